package stubserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cochinpm/client/pkg/constants"
	"github.com/cochinpm/client/pkg/models"
	"github.com/cochinpm/client/pkg/slug"
)

func (s *Server) handleListTables(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Table, 0, len(s.tableOrder))
	for _, id := range s.tableOrder {
		t := *s.tables[id]
		t.Fields = nil // the list endpoint never hydrates fields
		out = append(out, t)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetTable(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, ok := s.tables[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Table not found."})
		return
	}
	c.JSON(http.StatusOK, table)
}

func (s *Server) handleCreateTable(c *gin.Context) {
	var table models.Table
	if err := c.ShouldBindJSON(&table); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body."})
		return
	}
	if table.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"name": "This field is required."})
		return
	}
	if table.Slug == "" {
		table.Slug = slug.Derive(table.Name)
	}
	if !slug.IsValidTableSlug(table.Slug) {
		c.JSON(http.StatusBadRequest, gin.H{"slug": "Enter a valid slug."})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.tables {
		if existing.Slug == table.Slug {
			c.JSON(http.StatusBadRequest, gin.H{"slug": "A table with this slug already exists."})
			return
		}
	}

	table.ID = uuid.NewString()
	if table.Fields == nil {
		table.Fields = []models.Field{}
	}
	s.tables[table.ID] = &table
	s.tableOrder = append(s.tableOrder, table.ID)

	created := *s.tables[table.ID]
	created.Fields = nil
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleUpdateTable(c *gin.Context) {
	var patch map[string]interface{}
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body."})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	table, ok := s.tables[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Table not found."})
		return
	}

	if v, ok := patch["name"].(string); ok {
		table.Name = v
	}
	// The slug only changes when the caller sends one explicitly
	if v, ok := patch["slug"].(string); ok && v != "" {
		if !slug.IsValidTableSlug(v) {
			c.JSON(http.StatusBadRequest, gin.H{"slug": "Enter a valid slug."})
			return
		}
		table.Slug = v
	}
	if v, ok := patch["description"].(string); ok {
		table.Description = v
	}
	if v, ok := patch["is_active"].(bool); ok {
		table.IsActive = v
	}
	c.JSON(http.StatusOK, table)
}

func (s *Server) handleDeleteTable(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Param("id")
	if _, ok := s.tables[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Table not found."})
		return
	}
	delete(s.tables, id)
	kept := s.tableOrder[:0]
	for _, tid := range s.tableOrder {
		if tid != id {
			kept = append(kept, tid)
		}
	}
	s.tableOrder = kept

	// Cascade to records
	keptRecords := s.recordOrder[:0]
	for _, rid := range s.recordOrder {
		if s.recordTable[rid] == id {
			delete(s.records, rid)
			delete(s.recordTable, rid)
			continue
		}
		keptRecords = append(keptRecords, rid)
	}
	s.recordOrder = keptRecords

	c.JSON(http.StatusOK, gin.H{})
}

func (s *Server) handleAddField(c *gin.Context) {
	var field models.Field
	if err := c.ShouldBindJSON(&field); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body."})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	table, ok := s.tables[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Table not found."})
		return
	}
	if !slug.IsValidFieldSlug(field.Slug) {
		c.JSON(http.StatusBadRequest, gin.H{"slug": "Field slugs must match ^[a-z0-9_]+$."})
		return
	}
	if !constants.IsValidFieldType(string(field.FieldType)) {
		c.JSON(http.StatusBadRequest, gin.H{"field_type": "Unknown field type."})
		return
	}
	for _, existing := range table.Fields {
		if existing.Slug == field.Slug {
			c.JSON(http.StatusBadRequest, gin.H{"slug": "A field with this slug already exists."})
			return
		}
	}
	if field.FieldType == constants.FieldTypeChoice && field.ChoiceOptions() == nil {
		c.JSON(http.StatusBadRequest, gin.H{"options": "Choice fields need a JSON list of options."})
		return
	}
	if field.FieldType == constants.FieldTypeForeignKey {
		if _, ok := s.tables[field.RelatedTable]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"related_table": "Related table does not exist."})
			return
		}
		if field.ForeignReferenceField == "" {
			field.ForeignReferenceField = "primary key"
		}
	}

	field.ID = uuid.NewString()
	table.Fields = append(table.Fields, field)
	c.JSON(http.StatusCreated, field)
}
