// Package httpclient is the single request envelope every component speaks
// through: cookie credentials, CSRF header injection, error classification
// and session-expiry detection live here and nowhere else.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/cochinpm/client/pkg/constants"
	apperrors "github.com/cochinpm/client/pkg/errors"
)

// SessionListener receives session-relevant events from the client. The
// session manager subscribes at construction; the client never reaches into
// session state itself.
type SessionListener interface {
	// OnActivity fires after every successful (2xx) response
	OnActivity()
	// OnAuthExpired fires when a response classifies as AuthExpired
	OnAuthExpired(err error)
}

// Client is a thin envelope over net/http with a cookie jar
type Client struct {
	baseURL    string
	HTTPClient *http.Client
	listener   SessionListener
}

// New creates a client for the given base URL. listener may be nil.
func New(baseURL string, listener SessionListener) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		listener: listener,
	}
}

// SetListener installs the session listener after construction. The session
// manager and the client reference each other, so one of them has to be
// wired second.
func (c *Client) SetListener(l SessionListener) {
	c.listener = l
}

// BaseURL returns the configured base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a GET request and decodes the JSON response into result
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// Post issues a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// Put issues a PUT request with a JSON body
func (c *Client) Put(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

// Patch issues a PATCH request with a JSON body
func (c *Client) Patch(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPatch, path, body, result)
}

// Delete issues a DELETE request
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// CSRFToken returns the current csrftoken cookie value, or ""
func (c *Client) CSRFToken() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}
	for _, cookie := range c.HTTPClient.Jar.Cookies(u) {
		if cookie.Name == constants.CookieCSRF {
			return cookie.Value
		}
	}
	return ""
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(constants.HeaderContentType, "application/json")
	req.Header.Set(constants.HeaderRequestID, uuid.NewString())

	if isMutating(method) {
		token := c.CSRFToken()
		if token == "" {
			return apperrors.NewClientConstraintError("missing CSRF token; fetch " + constants.APIAuthCSRF + " first")
		}
		req.Header.Set(constants.HeaderCSRF, token)
	}

	return c.execute(req, result)
}

// execute sends the request, classifies failures and notifies the session
// listener. Shared by the JSON verbs and the multipart upload path.
func (c *Client) execute(req *http.Request, result interface{}) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &apperrors.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBytes, _ := io.ReadAll(resp.Body)
		classified := apperrors.Classify(resp.StatusCode, respBytes)
		if apperrors.IsAuthExpired(classified) && c.listener != nil {
			c.listener.OnAuthExpired(classified)
		}
		return classified
	}

	if c.listener != nil {
		c.listener.OnActivity()
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
