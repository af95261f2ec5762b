package models

import (
	"encoding/json"

	"github.com/cochinpm/client/pkg/constants"
)

// FieldType is defined in pkg/constants
type FieldType = constants.FieldType

// Field represents a column declaration within a user-defined table
type Field struct {
	ID          string    `json:"id,omitempty"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	FieldType   FieldType `json:"field_type"`
	IsRequired  bool      `json:"is_required,omitempty"`
	Description string    `json:"description,omitempty"`

	// DefaultValue seeds the draft when creating a new record
	DefaultValue string `json:"default_value,omitempty"`

	// Options is a JSON-encoded list of strings, used when FieldType is choice
	Options string `json:"options,omitempty"`

	// RelatedTable references the target table id, required for foreign_key
	RelatedTable          string `json:"related_table,omitempty"`
	ForeignReferenceField string `json:"foreign_reference_field,omitempty"`
	ForeignDisplayField   string `json:"foreign_display_field,omitempty"`
}

// ChoiceOptions parses the JSON-encoded options list. A missing or malformed
// list yields an empty slice, never an error: a choice field without options
// simply has nothing to offer.
func (f *Field) ChoiceOptions() []string {
	if f.Options == "" {
		return nil
	}
	var opts []string
	if err := json.Unmarshal([]byte(f.Options), &opts); err != nil {
		return nil
	}
	return opts
}

// Table represents a user-defined schema declared through the admin UI
type Table struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`

	// Fields is absent until the table is hydrated via its detail endpoint
	Fields []Field `json:"fields,omitempty"`
}

// FieldBySlug returns the field with the given slug, or nil
func (t *Table) FieldBySlug(slug string) *Field {
	for i := range t.Fields {
		if t.Fields[i].Slug == slug {
			return &t.Fields[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	cp := *t
	if t.Fields != nil {
		cp.Fields = make([]Field, len(t.Fields))
		copy(cp.Fields, t.Fields)
	}
	return &cp
}

// FKOption is a materialised choice for a foreign_key field
type FKOption struct {
	Value   string `json:"value"`
	Display string `json:"display"`
}
