package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pakainexus/schoolgate/internal/domain"
	"go.uber.org/zap"
)

const tokenPath = "/api/v1/auth/login/access-token"

// placeholderUserID is used when the backend's minimal login response carries
// no user_id (the school-portal route returns only the access token).
const placeholderUserID = "current-user"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Adapter exchanges an email/password pair for a bearer token at the backend
// token endpoint and normalizes the result. Every failure mode past shape
// validation — wrong password, 5xx, unreachable backend, garbage body —
// collapses into a nil identity: callers cannot and must not distinguish
// them.
type Adapter struct {
	baseURL     string
	httpClient  *http.Client
	minPassword int
	logger      *zap.Logger
}

type AdapterOption func(*Adapter)

// WithMinPasswordLength enables shape validation of the password. The
// operator console requires 6 characters; the school portal accepts any
// non-empty password and lets the backend decide.
func WithMinPasswordLength(n int) AdapterOption {
	return func(a *Adapter) {
		a.minPassword = n
	}
}

func WithHTTPClient(c *http.Client) AdapterOption {
	return func(a *Adapter) {
		a.httpClient = c
	}
}

func NewAdapter(baseURL string, logger *zap.Logger, options ...AdapterOption) *Adapter {
	a := &Adapter{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     logger,
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// ValidCredentials reports whether the pair passes shape validation. A pair
// that fails here never reaches the network.
func (a *Adapter) ValidCredentials(email, password string) bool {
	if email == "" || password == "" {
		return false
	}
	if !emailPattern.MatchString(email) {
		return false
	}
	return len(password) >= a.minPassword
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      string `json:"user_id"`
	UserRole    string `json:"user_role"`
	TenantID    string `json:"tenant_id"`
}

// Authenticate validates the pair, exchanges it for a token, and returns the
// normalized identity. Returns (nil, nil) for anything that is not a
// success; the error return exists only for context cancellation.
func (a *Adapter) Authenticate(ctx context.Context, email, password string) (*domain.Identity, error) {
	if !a.ValidCredentials(email, password) {
		return nil, nil
	}

	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.logger.Warn("token endpoint unreachable", zap.Error(err))
		return nil, nil
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		a.logger.Warn("reading token response failed", zap.Error(err))
		return nil, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		a.logger.Debug("credential exchange rejected",
			zap.Int("status", resp.StatusCode))
		return nil, nil
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil || tr.AccessToken == "" {
		a.logger.Warn("malformed token response", zap.Error(err))
		return nil, nil
	}

	id := &domain.Identity{
		ID:          tr.UserID,
		Email:       email,
		AccessToken: tr.AccessToken,
		Role:        tr.UserRole,
		TenantID:    tr.TenantID,
	}
	if id.ID == "" {
		id.ID = placeholderUserID
	}
	return id, nil
}
