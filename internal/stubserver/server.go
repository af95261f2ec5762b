// Package stubserver is an in-memory implementation of the backend surface
// the client consumes. It exists so the client core can be developed and
// exercised without the real backend: cookie sessions, CSRF, dynamic tables,
// records and the upload-restore endpoint all behave like the real thing,
// backed by maps instead of a database.
package stubserver

import (
	"crypto/rand"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"golang.org/x/crypto/bcrypt"

	"github.com/cochinpm/client/pkg/constants"
	"github.com/cochinpm/client/pkg/models"
)

// Config controls the stub's single admin account and session lifetime
type Config struct {
	AdminUsername string
	AdminPassword string
	SessionTTL    time.Duration
}

func (c Config) withDefaults() Config {
	if c.AdminUsername == "" {
		c.AdminUsername = "admin"
	}
	if c.AdminPassword == "" {
		c.AdminPassword = "admin"
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = constants.SessionDuration
	}
	return c
}

type account struct {
	user         models.User
	passwordHash []byte
}

// Server holds all stub state behind one mutex
type Server struct {
	engine    *gin.Engine
	jwtSecret []byte
	ttl       time.Duration
	cron      *cron.Cron

	mu           sync.Mutex
	accounts     map[string]account
	sessions     map[string]time.Time
	tables       map[string]*models.Table
	tableOrder   []string
	records      map[string]models.Record
	recordTable  map[string]string
	recordOrder  []string
}

// New creates a stub server with one admin account
func New(cfg Config) (*Server, error) {
	cfg = cfg.withDefaults()

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}

	s := &Server{
		jwtSecret:   secret,
		ttl:         cfg.SessionTTL,
		accounts:    map[string]account{},
		sessions:    map[string]time.Time{},
		tables:      map[string]*models.Table{},
		records:     map[string]models.Record{},
		recordTable: map[string]string{},
	}
	s.accounts[cfg.AdminUsername] = account{
		user: models.User{
			ID:          "1",
			Username:    cfg.AdminUsername,
			IsStaff:     true,
			IsSuperuser: true,
		},
		passwordHash: hash,
	}

	gin.SetMode(gin.ReleaseMode)
	s.engine = gin.New()
	s.engine.Use(gin.Recovery())
	s.routes()

	// Sessions already expire lazily on access; the sweep keeps the map
	// from growing with abandoned ones.
	s.cron = cron.New()
	if _, err := s.cron.AddFunc("@every 1m", s.purgeExpiredSessions); err != nil {
		return nil, err
	}
	s.cron.Start()

	return s, nil
}

// Handler returns the HTTP handler for the stub
func (s *Server) Handler() http.Handler { return s.engine }

// Close stops the background session sweep
func (s *Server) Close() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Server) routes() {
	api := s.engine.Group("/api")

	auth := api.Group("/auth")
	auth.GET("/csrf/", s.handleCSRF)
	auth.GET("/check/", s.handleAuthCheck)
	auth.POST("/login/", s.requireCSRF, s.handleLogin)
	auth.POST("/logout/", s.requireCSRF, s.handleLogout)

	tables := api.Group("/database/tables", s.requireSession)
	tables.GET("/", s.handleListTables)
	tables.GET("/:id/", s.handleGetTable)
	tables.GET("/:id/records", s.handleListTableRecords)
	tables.POST("/", s.requireCSRF, s.handleCreateTable)
	tables.PATCH("/:id/", s.requireCSRF, s.handleUpdateTable)
	tables.DELETE("/:id/", s.requireCSRF, s.handleDeleteTable)
	tables.POST("/:id/add_field/", s.requireCSRF, s.handleAddField)

	// gin cannot mix the static by_table/create_with_values segments with
	// the :id parameter, so record routes dispatch on the captured segment.
	rec := api.Group("/database/records", s.requireSession)
	rec.GET("/:id/", s.handleRecordGet)
	rec.POST("/:id/", s.requireCSRF, s.handleRecordPost)
	rec.PATCH("/:id/:action/", s.requireCSRF, s.handleRecordPatch)
	rec.DELETE("/:id/", s.requireCSRF, s.handleRecordDelete)

	api.POST("/backup/upload-restore-external/", s.requireSession, s.requireCSRF, s.handleUploadRestore)
}

func (s *Server) purgeExpiredSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, expiry := range s.sessions {
		if now.After(expiry) {
			delete(s.sessions, id)
			log.Printf("stubserver: purged expired session %s", id)
		}
	}
}
