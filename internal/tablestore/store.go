// Package tablestore is the in-memory registry of user-defined tables: a
// memoised view of the backend's table list and per-table schemas, with
// invalidation on every successful mutation.
package tablestore

import (
	"context"
	"sync"

	"github.com/cochinpm/client/internal/httpclient"
	"github.com/cochinpm/client/pkg/constants"
	"github.com/cochinpm/client/pkg/models"
	"github.com/cochinpm/client/pkg/slug"
)

// Store caches tables by id. Two caches exist because the shapes differ:
// the list endpoint returns tables without fields, the detail endpoint
// returns them hydrated.
type Store struct {
	client *httpclient.Client

	mu         sync.Mutex
	list       []models.Table
	listLoaded bool
	byID       map[string]*models.Table
	withFields map[string]*models.Table
	lastError  string
}

// NewStore creates an empty store bound to the given client
func NewStore(client *httpclient.Client) *Store {
	return &Store{
		client:     client,
		byID:       make(map[string]*models.Table),
		withFields: make(map[string]*models.Table),
	}
}

// Err returns the last fetch or mutation error, or ""
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// FetchTables returns the ordered table list (without fields), served from
// cache when loaded. On error, previously cached data stays visible.
func (s *Store) FetchTables(ctx context.Context) ([]models.Table, error) {
	s.mu.Lock()
	if s.listLoaded {
		cached := s.copyListLocked()
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	var tables []models.Table
	if err := s.client.Get(ctx, constants.APITables, &tables); err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		cached := s.copyListLocked()
		s.mu.Unlock()
		return cached, err
	}

	s.mu.Lock()
	s.list = tables
	s.listLoaded = true
	s.lastError = ""
	for i := range tables {
		t := tables[i]
		s.byID[t.ID] = &t
	}
	cached := s.copyListLocked()
	s.mu.Unlock()
	return cached, nil
}

// FetchTableWithFields returns the table hydrated with its field schemas,
// memoised per id. Two successive calls issue at most one request.
func (s *Store) FetchTableWithFields(ctx context.Context, id string) (*models.Table, error) {
	s.mu.Lock()
	if cached, ok := s.withFields[id]; ok {
		s.mu.Unlock()
		return cached.Clone(), nil
	}
	s.mu.Unlock()

	var table models.Table
	if err := s.client.Get(ctx, constants.APITable(id), &table); err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	s.withFields[id] = &table
	s.byID[id] = &table
	s.lastError = ""
	s.mu.Unlock()
	return table.Clone(), nil
}

// CreateTable creates a table, deriving the slug from the name when none is
// supplied.
func (s *Store) CreateTable(ctx context.Context, t models.Table) (*models.Table, error) {
	if t.Slug == "" {
		t.Slug = slug.Derive(t.Name)
	}

	var created models.Table
	if err := s.client.Post(ctx, constants.APITables, t, &created); err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	s.byID[created.ID] = &created
	if s.listLoaded {
		s.list = append(s.list, created)
	}
	s.lastError = ""
	s.mu.Unlock()
	return created.Clone(), nil
}

// UpdateTable applies a partial update. The slug is never overwritten unless
// the caller includes it in the patch explicitly.
func (s *Store) UpdateTable(ctx context.Context, id string, patch map[string]interface{}) (*models.Table, error) {
	var updated models.Table
	if err := s.client.Patch(ctx, constants.APITable(id), patch, &updated); err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	s.byID[id] = &updated
	delete(s.withFields, id)
	if s.listLoaded {
		for i := range s.list {
			if s.list[i].ID == id {
				s.list[i] = updated
				break
			}
		}
	}
	s.lastError = ""
	s.mu.Unlock()
	return updated.Clone(), nil
}

// DeleteTable destroys a table (the backend cascades to its records)
func (s *Store) DeleteTable(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, constants.APITable(id)); err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	delete(s.byID, id)
	delete(s.withFields, id)
	if s.listLoaded {
		kept := s.list[:0]
		for _, t := range s.list {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		s.list = kept
	}
	s.lastError = ""
	s.mu.Unlock()
	return nil
}

// AddFieldToTable declares a new field on a table and invalidates the
// hydrated schema cache for it.
func (s *Store) AddFieldToTable(ctx context.Context, tableID string, field models.Field) (*models.Field, error) {
	var created models.Field
	if err := s.client.Post(ctx, constants.APITableAddField(tableID), field, &created); err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	delete(s.withFields, tableID)
	s.lastError = ""
	s.mu.Unlock()
	return &created, nil
}

// Invalidate drops every cached shape of one table
func (s *Store) Invalidate(id string) {
	s.mu.Lock()
	delete(s.byID, id)
	delete(s.withFields, id)
	s.listLoaded = false
	s.mu.Unlock()
}

// InvalidateAll clears everything. The backup orchestrator calls this after
// a successful restore: user schemas may have changed wholesale.
func (s *Store) InvalidateAll() {
	s.mu.Lock()
	s.list = nil
	s.listLoaded = false
	s.byID = make(map[string]*models.Table)
	s.withFields = make(map[string]*models.Table)
	s.mu.Unlock()
}

// CachedTable returns the cached table for id without touching the network
func (s *Store) CachedTable(id string) (*models.Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

func (s *Store) copyListLocked() []models.Table {
	if s.list == nil {
		return nil
	}
	out := make([]models.Table, len(s.list))
	copy(out, s.list)
	return out
}
