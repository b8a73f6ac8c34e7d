// Package client calls the task tracker HTTP API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/identity"
	"github.com/gofiber/fiber/v2"
)

// DefaultTimeout bounds requests whose context has no deadline.
const DefaultTimeout = 10 * time.Second

// TokenSource supplies the access token sent with protected requests.
type TokenSource interface {
	AccessToken() string
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return e.Message
}

// Is maps responses to the sentinel errors callers check for.
func (e *APIError) Is(target error) bool {
	switch target {
	case identity.ErrRejected:
		return e.Status == fiber.StatusUnauthorized
	case task.ErrNotFound:
		return e.Status == fiber.StatusNotFound
	}
	return false
}

// IsValidation reports whether err is a rejected request body or query.
func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == fiber.StatusBadRequest
}

// Client is an HTTP client for the /api/v1 surface.
type Client struct {
	baseURL string
	timeout time.Duration
	tokens  TokenSource
}

var _ identity.Authenticator = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the timeout for requests without a context deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithTokenSource sets where protected requests take their token from.
func WithTokenSource(src TokenSource) Option {
	return func(c *Client) {
		c.tokens = src
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTokenSource replaces the token source. The identity provider needs the
// client before it exists, so it is usually set after construction.
func (c *Client) SetTokenSource(src TokenSource) {
	c.tokens = src
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.AccessToken()
}

// do sends the request built in a and decodes a JSON reply into out.
func (c *Client) do(ctx context.Context, a *fiber.Agent, token string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return context.DeadlineExceeded
		}
	}

	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	a.Timeout(timeout)

	if err := a.Parse(); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("request failed: %w", errors.Join(errs...))
	}

	if code >= fiber.StatusBadRequest {
		apiErr := &APIError{Status: code}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil {
			apiErr.Code = eb.Error
			apiErr.Message = eb.Message
		}
		return apiErr
	}

	if out == nil || code == fiber.StatusNoContent || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// authed returns the current token or identity.ErrNotSignedIn.
func (c *Client) authed() (string, error) {
	token := c.token()
	if token == "" {
		return "", identity.ErrNotSignedIn
	}
	return token, nil
}
