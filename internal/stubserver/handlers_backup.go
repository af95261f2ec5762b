package stubserver

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// handleUploadRestore accepts the multipart upload and reports fabricated
// restoration counters based on current state. The stub does not actually
// replace its data: what matters to the client is the envelope.
func (s *Server) handleUploadRestore(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "A backup file is required."})
		return
	}
	uploadName := c.PostForm("upload_name")
	mergeStrategy := c.PostForm("merge_strategy")
	if uploadName == "" || mergeStrategy == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "upload_name and merge_strategy are required."})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".zip" && ext != ".encrypted" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Unsupported backup file type."})
		return
	}

	s.mu.Lock()
	tables := len(s.tables)
	records := len(s.records)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Backup restored.",
		"restoration": gin.H{
			"tables_restored":  tables,
			"records_restored": records,
			"files_restored":   1,
		},
		"security_report": gin.H{
			"upload_name":    uploadName,
			"merge_strategy": mergeStrategy,
			"issues":         []string{},
		},
	})
}
