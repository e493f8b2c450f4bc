package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/pakainexus/schoolgate/internal/api/middleware"
	"github.com/pakainexus/schoolgate/internal/auth"
	"github.com/pakainexus/schoolgate/internal/backend"
	"github.com/pakainexus/schoolgate/internal/session"
)

type AuthHandler struct {
	adapter  *auth.Adapter
	sessions *session.Manager
	backend  *backend.Client
	loginLim *middleware.KeyedLimiter
	logger   *zap.Logger
}

func NewAuthHandler(adapter *auth.Adapter, sessions *session.Manager, backendClient *backend.Client, loginLim *middleware.KeyedLimiter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{adapter: adapter, sessions: sessions, backend: backendClient, loginLim: loginLim, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	TenantID string `json:"tenant_id,omitempty"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if !h.adapter.ValidCredentials(req.Email, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if h.loginLim != nil && !h.loginLim.Allow(loginKey(r, req.Email)) {
		writeError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		return
	}

	identity, err := h.adapter.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Error("credential exchange failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "authentication service unavailable")
		return
	}
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	sess, cookie, err := h.sessions.Mint(r.Context(), identity)
	if err != nil {
		h.logger.Error("failed to create session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, cookie)
	writeJSON(w, http.StatusOK, sessionResponse{
		UserID:   sess.UserID,
		Email:    sess.Email,
		Role:     sess.Role,
		TenantID: sess.TenantID,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.SessionFromContext(r.Context()); sess != nil {
		if err := h.sessions.Destroy(r.Context(), sess.ID); err != nil {
			h.logger.Error("failed to destroy session", zap.Error(err), zap.String("session_id", sess.ID))
		}
	}
	http.SetCookie(w, session.ClearCookie())
	w.WriteHeader(http.StatusNoContent)
}

// Session reports the authenticated user behind the current cookie. The
// access token never leaves the gateway.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		UserID:   sess.UserID,
		Email:    sess.Email,
		Role:     sess.Role,
		TenantID: sess.TenantID,
	})
}

// otpPattern matches the backend's 6-digit reset codes.
var otpPattern = regexp.MustCompile(`^\d{6}$`)

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.backend.ForgotPassword(r.Context(), req.Email); err != nil {
		h.logger.Error("forgot password request failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to send reset code")
		return
	}
	// Do not reveal whether the email exists.
	writeJSON(w, http.StatusOK, map[string]string{"message": "if the email exists, a reset code has been sent"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "email, otp and new_password are required")
		return
	}
	if !otpPattern.MatchString(req.OTP) {
		writeError(w, http.StatusBadRequest, "otp must be a 6-digit code")
		return
	}

	if err := h.backend.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		var statusErr *backend.StatusError
		if errors.As(err, &statusErr) && statusErr.Status == http.StatusBadRequest {
			writeError(w, http.StatusBadRequest, "invalid or expired reset code")
			return
		}
		h.logger.Error("password reset failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to reset password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

func loginKey(r *http.Request, email string) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return host + "|" + email
}
