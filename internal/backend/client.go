package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/pakainexus/schoolgate/internal/domain"
	"go.uber.org/zap"
)

var (
	// ErrUnauthorized means the backend rejected the bearer token. The
	// session behind it has already been invalidated by the time callers
	// see this error.
	ErrUnauthorized = errors.New("backend: unauthorized")

	// ErrForbidden means the token is valid but the caller lacks access.
	// The session stays alive.
	ErrForbidden = errors.New("backend: forbidden")

	ErrNotFound = errors.New("backend: not found")
)

// StatusError carries a non-2xx status that is not one of the sentinel cases.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Body)
}

// SignOutFunc is invoked exactly once per session when any backend call
// comes back 401, no matter how many requests are in flight at that moment.
type SignOutFunc func(ctx context.Context, sess *domain.Session)

// Client is the single shared HTTP client for the platform backend. It
// attaches the bearer token to every request — explicit override first,
// session token second, nothing otherwise — and reacts globally to 401s.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	onSignOut  SignOutFunc

	mu            sync.Mutex
	tokenOverride string
	invalidated   map[string]struct{}
}

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithSignOut registers the global 401 handler.
func WithSignOut(fn SignOutFunc) ClientOption {
	return func(cl *Client) {
		cl.onSignOut = fn
	}
}

func New(baseURL string, logger *zap.Logger, options ...ClientOption) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{},
		logger:      logger,
		invalidated: make(map[string]struct{}),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// SetTokenOverride installs a manually-set token that takes precedence over
// every session token. Empty string removes the override. This is the single
// resolver for the two token sources; nothing else reads either directly.
func (c *Client) SetTokenOverride(token string) {
	c.mu.Lock()
	c.tokenOverride = token
	c.mu.Unlock()
}

// Token resolves the bearer token for a request: override first, then the
// session, then none. The override is deliberately global: when a debug
// token is set it is attached to every outgoing call, including the
// nominally public ones (branding lookup, password reset), so a developer
// pointing the gateway at a locked-down backend can exercise the full
// surface with one token.
func (c *Client) Token(sess *domain.Session) string {
	c.mu.Lock()
	override := c.tokenOverride
	c.mu.Unlock()
	if override != "" {
		return override
	}
	if sess != nil {
		return sess.AccessToken
	}
	return ""
}

// HandleUnauthorized reports a 401 observed outside the typed client (the
// dashboard reverse proxy) so it joins the same once-per-session sign-out.
func (c *Client) HandleUnauthorized(ctx context.Context, sess *domain.Session) {
	c.invalidate(ctx, sess)
}

// invalidate runs the sign-out hook once per session ID. Concurrent 401s
// for the same session all funnel through here; only the first wins.
func (c *Client) invalidate(ctx context.Context, sess *domain.Session) {
	if sess == nil {
		return
	}
	c.mu.Lock()
	if _, done := c.invalidated[sess.ID]; done {
		c.mu.Unlock()
		return
	}
	c.invalidated[sess.ID] = struct{}{}
	// Bound the tombstone set; entries only matter while requests for a
	// just-killed session are still draining.
	if len(c.invalidated) > 10000 {
		c.invalidated = map[string]struct{}{sess.ID: {}}
	}
	c.mu.Unlock()

	c.logger.Info("session invalidated by backend 401",
		zap.String("session_id", sess.ID),
		zap.String("user_id", sess.UserID))
	if c.onSignOut != nil {
		c.onSignOut(ctx, sess)
	}
}

func (c *Client) do(ctx context.Context, sess *domain.Session, method, path string, query url.Values, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(sess); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read backend response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.invalidate(ctx, sess)
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		c.logger.Warn("backend denied access",
			zap.String("method", method),
			zap.String("path", path))
		return nil, ErrForbidden
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &StatusError{Status: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// getJSON performs a GET and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, sess *domain.Session, path string, query url.Values, out any) error {
	body, err := c.do(ctx, sess, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal %s response: %w", path, err)
	}
	return nil
}

func (c *Client) sendJSON(ctx context.Context, sess *domain.Session, method, path string, query url.Values, in, out any) error {
	body, err := c.do(ctx, sess, method, path, query, in)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal %s response: %w", path, err)
	}
	return nil
}
