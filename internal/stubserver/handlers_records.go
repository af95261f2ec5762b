package stubserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cochinpm/client/pkg/constants"
	"github.com/cochinpm/client/pkg/models"
)

// handleRecordGet serves both GET /records/by_table/ and GET /records/:id/;
// gin cannot register a static sibling next to the :id parameter.
func (s *Server) handleRecordGet(c *gin.Context) {
	if c.Param("id") == "by_table" {
		s.listRecords(c, c.Query("table_id"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Record not found."})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) handleListTableRecords(c *gin.Context) {
	s.listRecords(c, c.Param("id"))
}

func (s *Server) listRecords(c *gin.Context, tableID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[tableID]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Table not found."})
		return
	}

	filters := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if strings.HasPrefix(key, "field_") && len(values) > 0 && values[0] != "" {
			filters[strings.TrimPrefix(key, "field_")] = values[0]
		}
	}

	out := make([]models.Record, 0)
	for _, rid := range s.recordOrder {
		if s.recordTable[rid] != tableID {
			continue
		}
		record := s.records[rid]
		if matchesRecord(record, filters) {
			out = append(out, record)
		}
	}
	c.JSON(http.StatusOK, out)
}

func matchesRecord(record models.Record, filters map[string]string) bool {
	for key, want := range filters {
		if record.ExtractValue(key) != want {
			return false
		}
	}
	return true
}

type createWithValuesRequest struct {
	TableID string            `json:"table_id"`
	Values  map[string]string `json:"values"`
}

type updateWithValuesRequest struct {
	Values map[string]string `json:"values"`
}

// handleRecordPost serves POST /records/create_with_values/
func (s *Server) handleRecordPost(c *gin.Context) {
	if c.Param("id") != "create_with_values" {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}

	var req createWithValuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body."})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	table, ok := s.tables[req.TableID]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"table_id": "Table does not exist."})
		return
	}
	if msg, field := validateValues(table, req.Values); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{field: msg})
		return
	}

	now := time.Now().UTC().Format(time.RFC3339)
	record := models.Record{
		constants.ColumnID:        uuid.NewString(),
		constants.ColumnCreatedAt: now,
		constants.ColumnUpdatedAt: now,
	}
	for key, value := range req.Values {
		record[key] = value
	}

	id := record.ID()
	s.records[id] = record
	s.recordTable[id] = req.TableID
	s.recordOrder = append(s.recordOrder, id)
	c.JSON(http.StatusCreated, record)
}

// handleRecordPatch serves PATCH /records/:id/update_with_values/
func (s *Server) handleRecordPatch(c *gin.Context) {
	if c.Param("action") != "update_with_values" {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}

	var req updateWithValuesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body."})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Param("id")
	record, ok := s.records[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Record not found."})
		return
	}

	table := s.tables[s.recordTable[id]]
	if msg, field := validateValues(table, req.Values); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{field: msg})
		return
	}

	for key, value := range req.Values {
		if constants.IsSystemColumn(key) {
			continue
		}
		record[key] = value
	}
	record[constants.ColumnUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	c.JSON(http.StatusOK, record)
}

func (s *Server) handleRecordDelete(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Param("id")
	if _, ok := s.records[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Record not found."})
		return
	}
	delete(s.records, id)
	delete(s.recordTable, id)
	kept := s.recordOrder[:0]
	for _, rid := range s.recordOrder {
		if rid != id {
			kept = append(kept, rid)
		}
	}
	s.recordOrder = kept
	c.JSON(http.StatusOK, gin.H{})
}

// validateValues applies the schema checks the real backend performs on
// write: unknown slugs and booleans that are not "true"/"false" are
// rejected.
func validateValues(table *models.Table, values map[string]string) (msg, field string) {
	if table == nil {
		return "", ""
	}
	for key, value := range values {
		if constants.IsSystemColumn(key) {
			continue
		}
		schema := table.FieldBySlug(key)
		if schema == nil {
			return "Unknown field.", key
		}
		if schema.FieldType == constants.FieldTypeBoolean && value != "true" && value != "false" {
			return "Booleans must be \"true\" or \"false\".", key
		}
	}
	return "", ""
}
