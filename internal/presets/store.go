// Package presets persists user filter presets, the client-side analogue of
// the browser's filter_presets local-storage key: a JSON array of presets in
// a state directory.
package presets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/cochinpm/client/pkg/constants"
	"github.com/cochinpm/client/pkg/expression"
	"github.com/cochinpm/client/pkg/models"
)

// Preset is one saved filter: flat field filters that map onto
// field_<key> query parameters, plus an optional expression evaluated
// per record on the client.
type Preset struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	TableID    string            `json:"table_id"`
	Filters    map[string]string `json:"filters,omitempty"`
	FilterExpr string            `json:"filter_expr,omitempty"`
}

// Store owns the preset file
type Store struct {
	path   string
	engine *expression.Engine

	mu      sync.Mutex
	presets []Preset
}

// NewStore creates a store rooted in the given state directory
func NewStore(stateDir string) *Store {
	return &Store{
		path:   filepath.Join(stateDir, constants.LocalStorageFilterPresets+".json"),
		engine: expression.NewEngine(),
	}
}

// Load reads the preset file; a missing file means no presets
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.presets = nil
			return nil
		}
		return fmt.Errorf("failed to read presets: %w", err)
	}
	var presets []Preset
	if err := json.Unmarshal(data, &presets); err != nil {
		return fmt.Errorf("failed to parse presets: %w", err)
	}
	s.presets = presets
	return nil
}

func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.presets, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// List returns a copy of all presets
func (s *Store) List() []Preset {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Preset, len(s.presets))
	copy(out, s.presets)
	return out
}

// ForTable returns the presets saved for one table
func (s *Store) ForTable(tableID string) []Preset {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Preset
	for _, p := range s.presets {
		if p.TableID == tableID {
			out = append(out, p)
		}
	}
	return out
}

// Put upserts a preset, assigning an id when it has none, and persists
func (s *Store) Put(p Preset) (Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	replaced := false
	for i := range s.presets {
		if s.presets[i].ID == p.ID {
			s.presets[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		s.presets = append(s.presets, p)
	}
	return p, s.saveLocked()
}

// Delete removes a preset by id and persists
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.presets[:0]
	for _, p := range s.presets {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.presets = kept
	return s.saveLocked()
}

// Apply filters records through a preset: flat filters compare extracted
// values for equality, then the filter expression (when present) runs per
// record with the record's values as the environment.
func (s *Store) Apply(p Preset, records []models.Record) ([]models.Record, error) {
	out := make([]models.Record, 0, len(records))
	for _, record := range records {
		if !matchesFilters(p.Filters, record) {
			continue
		}
		if p.FilterExpr != "" {
			ok, err := s.engine.EvaluateBool(p.FilterExpr, map[string]interface{}(record))
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, record)
	}
	return out, nil
}

func matchesFilters(filters map[string]string, record models.Record) bool {
	for key, want := range filters {
		if want == "" {
			continue
		}
		if record.ExtractValue(key) != want {
			return false
		}
	}
	return true
}
