// Package forms turns a table schema into a validating record editor: draft
// state, per-field errors, foreign-key choice sub-state, and the single
// mutating submit.
package forms

import (
	"context"
	"sync"

	"github.com/cochinpm/client/internal/records"
	"github.com/cochinpm/client/internal/tablestore"
	"github.com/cochinpm/client/pkg/constants"
	apperrors "github.com/cochinpm/client/pkg/errors"
	"github.com/cochinpm/client/pkg/models"
)

// FKState is the per-foreign-key-field choice sub-state
type FKState struct {
	Loading bool
	Choices []models.FKOption
	Err     string
}

// Engine builds forms for tables
type Engine struct {
	records *records.Coordinator
	tables  *tablestore.Store
}

// NewEngine creates a form engine
func NewEngine(rc *records.Coordinator, tables *tablestore.Store) *Engine {
	return &Engine{records: rc, tables: tables}
}

// Form is the draft state for one record being created or edited
type Form struct {
	engine   *Engine
	table    *models.Table
	recordID string

	mu     sync.Mutex
	values map[string]interface{}
	errors map[string]string
	fk     map[string]*FKState
}

// NewForm builds a form for the given table. With a record id, the draft is
// hydrated from the existing record through the extraction rule; without
// one, each field's draft is seeded from its default value.
func (e *Engine) NewForm(ctx context.Context, tableID, recordID string) (*Form, error) {
	table, err := e.tables.FetchTableWithFields(ctx, tableID)
	if err != nil {
		return nil, err
	}

	f := &Form{
		engine:   e,
		table:    table,
		recordID: recordID,
		values:   make(map[string]interface{}, len(table.Fields)),
		errors:   make(map[string]string),
		fk:       make(map[string]*FKState),
	}
	for i := range table.Fields {
		field := &table.Fields[i]
		if field.FieldType == constants.FieldTypeForeignKey {
			f.fk[field.ID] = &FKState{}
		}
	}

	if recordID != "" {
		record, err := e.records.FetchRecord(ctx, recordID)
		if err != nil {
			return nil, err
		}
		for _, field := range table.Fields {
			f.values[field.Slug] = record.ExtractValue(field.Slug)
		}
	} else {
		for _, field := range table.Fields {
			if field.DefaultValue != "" {
				f.values[field.Slug] = field.DefaultValue
			}
		}
	}
	return f, nil
}

// Table returns the schema this form edits
func (f *Form) Table() *models.Table { return f.table }

// IsEdit reports whether the form edits an existing record
func (f *Form) IsEdit() bool { return f.recordID != "" }

// SetValue updates one draft value and clears that field's error
func (f *Form) SetValue(slug string, value interface{}) {
	f.mu.Lock()
	f.values[slug] = value
	delete(f.errors, slug)
	f.mu.Unlock()
}

// Value returns the current draft value for a field
func (f *Form) Value(slug string) interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[slug]
}

// Values returns a copy of the draft
func (f *Form) Values() map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]interface{}, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// Errors returns a copy of the per-field errors
func (f *Form) Errors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// SetFieldError records a server-reported error against one field
func (f *Form) SetFieldError(slug, message string) {
	f.mu.Lock()
	f.errors[slug] = message
	f.mu.Unlock()
}

// FKStateFor returns a copy of the choice sub-state for a foreign-key field
func (f *Form) FKStateFor(fieldID string) (FKState, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.fk[fieldID]
	if !ok {
		return FKState{}, false
	}
	out := *state
	out.Choices = append([]models.FKOption(nil), state.Choices...)
	return out, true
}

// ResolveForeignKeys fetches choice sets for every foreign-key field, one
// request per field issued concurrently. Each goroutine writes only its own
// sub-state slot. A failed fetch leaves the field editable with an empty
// choice set and the error flagged.
func (f *Form) ResolveForeignKeys(ctx context.Context) {
	var wg sync.WaitGroup
	for i := range f.table.Fields {
		field := &f.table.Fields[i]
		state, ok := f.fk[field.ID]
		if !ok {
			continue
		}
		f.mu.Lock()
		state.Loading = true
		f.mu.Unlock()

		wg.Add(1)
		go func(field *models.Field, state *FKState) {
			defer wg.Done()
			choices, err := f.engine.records.ForeignKeyOptions(ctx, f.table, field)
			f.mu.Lock()
			state.Loading = false
			if err != nil {
				state.Choices = nil
				state.Err = err.Error()
			} else {
				state.Choices = choices
				state.Err = ""
			}
			f.mu.Unlock()
		}(field, state)
	}
	wg.Wait()
}

// Validate runs full validation and reports whether the draft is
// submittable. Field errors are replaced wholesale.
func (f *Form) Validate() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.errors = make(map[string]string)
	for i := range f.table.Fields {
		field := &f.table.Fields[i]
		if msg := f.validateFieldLocked(field); msg != "" {
			f.errors[field.Slug] = msg
		}
	}
	return len(f.errors) == 0
}

// Submit validates and issues exactly one mutating request. The draft is
// left intact on failure so the user can correct and retry.
func (f *Form) Submit(ctx context.Context) (models.Record, error) {
	if !f.Validate() {
		return nil, apperrors.NewClientConstraintError("the form has validation errors")
	}
	if f.recordID != "" {
		return f.engine.records.UpdateRecord(ctx, f.recordID, f.Values())
	}
	return f.engine.records.CreateRecord(ctx, f.table.ID, f.Values())
}
