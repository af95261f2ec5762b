package errors

import (
	"encoding/json"
	"net/http"
	"strings"
)

// markers in a 403 body that mean the session is gone rather than the user
// lacking a permission
var sessionMarkers = []string{"session", "authentication", "login required", "credentials"}

// Classify maps a non-2xx response to the client error taxonomy. The body is
// parsed as JSON best-effort; classification never fails.
func Classify(status int, body []byte) error {
	detail, message := parseBody(body)

	switch {
	case status == http.StatusUnauthorized:
		return NewAuthExpiredError(message)
	case status == http.StatusForbidden:
		if mentionsSession(string(body)) {
			return NewAuthExpiredError(message)
		}
		return &PermissionError{Detail: message}
	case status == http.StatusNotFound:
		return NewNotFoundError("resource", "")
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return NewValidationError(message, detail)
	case status >= 500:
		return &ServerError{Status: status, Body: string(body)}
	default:
		return &ServerError{Status: status, Body: string(body)}
	}
}

func parseBody(body []byte) (map[string]interface{}, string) {
	var detail map[string]interface{}
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, strings.TrimSpace(string(body))
	}
	for _, key := range []string{"detail", "error", "message"} {
		if msg, ok := detail[key].(string); ok {
			return detail, msg
		}
	}
	return detail, ""
}

func mentionsSession(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range sessionMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
