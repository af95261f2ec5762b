// Package records drives record CRUD for user-defined tables: wire
// normalisation on writes, dual-shape extraction on reads, and
// materialisation of foreign-key choices.
package records

import (
	"context"
	"net/url"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/cochinpm/client/internal/httpclient"
	"github.com/cochinpm/client/internal/tablestore"
	"github.com/cochinpm/client/pkg/constants"
	"github.com/cochinpm/client/pkg/models"
)

// TargetSlugResolver picks the column to read a foreign-key display value
// from. It is pluggable because the sub-type heuristic is driven by naming
// conventions that sites may want to replace.
type TargetSlugResolver func(owner *models.Table, field *models.Field) string

// Coordinator owns no state of its own; it speaks to the HTTP client and
// consults the table store for related-table schemas.
type Coordinator struct {
	client   *httpclient.Client
	tables   *tablestore.Store
	collator *collate.Collator

	// ResolveTargetSlug defaults to the sub-type aware resolver
	ResolveTargetSlug TargetSlugResolver
}

// NewCoordinator creates a record coordinator. Option display sorting is
// locale-aware; the application locale is French.
func NewCoordinator(client *httpclient.Client, tables *tablestore.Store) *Coordinator {
	c := &Coordinator{
		client:   client,
		tables:   tables,
		collator: collate.New(language.French),
	}
	c.ResolveTargetSlug = DefaultTargetSlug
	return c
}

// FetchRecords lists the records of a table. Filters are flat key/value
// pairs encoded as field_<key>=<value> query parameters; empty values are
// omitted.
func (c *Coordinator) FetchRecords(ctx context.Context, tableID string, filters map[string]string) ([]models.Record, error) {
	query := url.Values{}
	query.Set("table_id", tableID)
	for key, value := range filters {
		if value == "" {
			continue
		}
		query.Set("field_"+key, value)
	}

	var records []models.Record
	if err := c.client.Get(ctx, constants.APIRecordsByTable+"?"+query.Encode(), &records); err != nil {
		return nil, err
	}
	return records, nil
}

// FetchRecord retrieves one record by id
func (c *Coordinator) FetchRecord(ctx context.Context, recordID string) (models.Record, error) {
	var record models.Record
	if err := c.client.Get(ctx, constants.APIRecord(recordID), &record); err != nil {
		return nil, err
	}
	return record, nil
}

// CreateRecord creates a record with the normalised values
func (c *Coordinator) CreateRecord(ctx context.Context, tableID string, values map[string]interface{}) (models.Record, error) {
	payload := map[string]interface{}{
		"table_id": tableID,
		"values":   NormalizeValues(values),
	}
	var record models.Record
	if err := c.client.Post(ctx, constants.APIRecordCreateWithValues, payload, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateRecord updates a record with the normalised values
func (c *Coordinator) UpdateRecord(ctx context.Context, recordID string, values map[string]interface{}) (models.Record, error) {
	payload := map[string]interface{}{
		"values": NormalizeValues(values),
	}
	var record models.Record
	if err := c.client.Patch(ctx, constants.APIRecordUpdateWithValues(recordID), payload, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// DeleteRecord removes a record
func (c *Coordinator) DeleteRecord(ctx context.Context, recordID string) error {
	return c.client.Delete(ctx, constants.APIRecord(recordID))
}

// NormalizeValues prepares a draft for the wire: entries with nil or empty
// values are dropped, ambient system columns are dropped, booleans become
// "true"/"false", everything else its string form.
func NormalizeValues(values map[string]interface{}) map[string]string {
	out := make(map[string]string, len(values))
	for key, value := range values {
		if constants.IsSystemColumn(key) {
			continue
		}
		if value == nil {
			continue
		}
		s := models.Stringify(value)
		if s == "" {
			continue
		}
		out[key] = s
	}
	return out
}
