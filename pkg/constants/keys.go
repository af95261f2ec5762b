package constants

// Cookie and header names shared between the client and the backend
const (
	CookieCSRF    = "csrftoken"
	CookieSession = "sessionid"

	HeaderCSRF        = "X-CSRFToken"
	HeaderContentType = "Content-Type"
	HeaderRequestID   = "X-Request-ID"
)

// System columns the backend manages on every record. They are never part of
// a write payload.
const (
	ColumnID        = "id"
	ColumnCreatedAt = "created_at"
	ColumnUpdatedAt = "updated_at"
)

// SystemColumns lists the ambient record columns owned by the backend
func SystemColumns() []string {
	return []string{ColumnID, ColumnCreatedAt, ColumnUpdatedAt}
}

// IsSystemColumn reports whether key names an ambient backend-owned column
func IsSystemColumn(key string) bool {
	return key == ColumnID || key == ColumnCreatedAt || key == ColumnUpdatedAt
}

// LocalStorageFilterPresets is the key under which the UI persists filter
// presets in browser-local storage; the Go client uses it as the state file
// base name.
const LocalStorageFilterPresets = "filter_presets"
