package handlers

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/pakainexus/schoolgate/internal/api/middleware"
	"github.com/pakainexus/schoolgate/internal/backend"
	"github.com/pakainexus/schoolgate/internal/session"
)

// ProxyHandler forwards dashboard API calls straight to the backend,
// swapping the session cookie for the stored bearer token. A 401 from the
// backend invalidates the session exactly once and clears the cookie.
type ProxyHandler struct {
	backend *backend.Client
	proxy   *httputil.ReverseProxy
	logger  *zap.Logger
}

func NewProxyHandler(backendClient *backend.Client, backendURL, stripPrefix string, logger *zap.Logger) (*ProxyHandler, error) {
	target, err := url.Parse(backendURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}

	h := &ProxyHandler{backend: backendClient, logger: logger}
	h.proxy = &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.Out.URL.Path = "/api/v1" + strings.TrimPrefix(pr.In.URL.Path, stripPrefix)
			pr.Out.Header.Del("Cookie")
			sess := middleware.SessionFromContext(pr.In.Context())
			if token := backendClient.Token(sess); token != "" {
				pr.Out.Header.Set("Authorization", "Bearer "+token)
			}
		},
		ModifyResponse: h.handleResponse,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("backend proxy error", zap.Error(err), zap.String("path", r.URL.Path))
			writeError(w, http.StatusBadGateway, "backend unavailable")
		},
	}
	return h, nil
}

func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.proxy.ServeHTTP(w, r)
}

func (h *ProxyHandler) handleResponse(resp *http.Response) error {
	if resp.StatusCode != http.StatusUnauthorized {
		return nil
	}
	sess := middleware.SessionFromContext(resp.Request.Context())
	if sess == nil {
		return nil
	}
	h.backend.HandleUnauthorized(resp.Request.Context(), sess)
	resp.Header.Add("Set-Cookie", session.ClearCookie().String())
	return nil
}
