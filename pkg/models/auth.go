package models

// User represents the authenticated account as reported by the backend
type User struct {
	ID          string `json:"id,omitempty"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	IsStaff     bool   `json:"is_staff,omitempty"`
	IsSuperuser bool   `json:"is_superuser,omitempty"`
}

// Credentials is the login request payload
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthCheckResponse is the shape of GET /api/auth/check/
type AuthCheckResponse struct {
	IsAuthenticated bool  `json:"isAuthenticated"`
	User            *User `json:"user"`
}

// LoginResponse is the shape of POST /api/auth/login/
type LoginResponse struct {
	User *User `json:"user"`
}

// CSRFResponse is the shape of GET /api/auth/csrf/
type CSRFResponse struct {
	CSRFToken string `json:"csrfToken"`
}
