package stubserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/cochinpm/client/pkg/constants"
	"github.com/cochinpm/client/pkg/models"
)

const contextKeyUser = "user"

// notAuthenticatedDetail mirrors the backend's wording; the client's
// classifier keys off it
const notAuthenticatedDetail = "Authentication credentials were not provided."

func (s *Server) handleCSRF(c *gin.Context) {
	token := uuid.NewString()
	c.SetCookie(constants.CookieCSRF, token, 3600, "/", "", false, false)
	c.JSON(http.StatusOK, gin.H{"csrfToken": token})
}

// requireCSRF enforces the double-submit check: the X-CSRFToken header must
// match the csrftoken cookie
func (s *Server) requireCSRF(c *gin.Context) {
	cookie, err := c.Cookie(constants.CookieCSRF)
	header := c.GetHeader(constants.HeaderCSRF)
	if err != nil || header == "" || header != cookie {
		c.JSON(http.StatusForbidden, gin.H{"detail": "CSRF token missing or incorrect."})
		c.Abort()
		return
	}
	c.Next()
}

// requireSession validates the session cookie and slides its expiry
func (s *Server) requireSession(c *gin.Context) {
	user, ok := s.authenticate(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": notAuthenticatedDetail})
		c.Abort()
		return
	}
	c.Set(contextKeyUser, user)
	c.Next()
}

func (s *Server) authenticate(c *gin.Context) (models.User, bool) {
	tokenString, err := c.Cookie(constants.CookieSession)
	if err != nil || tokenString == "" {
		return models.User{}, false
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return models.User{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.sessions[claims.ID]
	if !ok || time.Now().After(expiry) {
		delete(s.sessions, claims.ID)
		return models.User{}, false
	}
	// Sliding expiry: activity extends the session
	s.sessions[claims.ID] = time.Now().Add(s.ttl)

	acct, ok := s.accounts[claims.Subject]
	if !ok {
		return models.User{}, false
	}
	return acct.user, true
}

func (s *Server) handleAuthCheck(c *gin.Context) {
	user, ok := s.authenticate(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"isAuthenticated": false,
			"detail":          notAuthenticatedDetail,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"isAuthenticated": true, "user": user})
}

func (s *Server) handleLogin(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body."})
		return
	}

	s.mu.Lock()
	acct, ok := s.accounts[creds.Username]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(creds.Password)) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid username or password."})
		return
	}

	sessionID := uuid.NewString()
	claims := jwt.RegisteredClaims{
		ID:        sessionID,
		Subject:   creds.Username,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to create session."})
		return
	}

	s.mu.Lock()
	s.sessions[sessionID] = time.Now().Add(s.ttl)
	s.mu.Unlock()

	c.SetCookie(constants.CookieSession, token, int(s.ttl.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"user": acct.user})
}

func (s *Server) handleLogout(c *gin.Context) {
	if tokenString, err := c.Cookie(constants.CookieSession); err == nil {
		claims := &jwt.RegisteredClaims{}
		if _, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			return s.jwtSecret, nil
		}); err == nil {
			s.mu.Lock()
			delete(s.sessions, claims.ID)
			s.mu.Unlock()
		}
	}
	c.SetCookie(constants.CookieSession, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{})
}
