package handlers

import (
	"net/http"

	"github.com/pakainexus/schoolgate/internal/api/middleware"
	"github.com/pakainexus/schoolgate/internal/branding"
	"github.com/pakainexus/schoolgate/internal/domain"
)

type BrandingHandler struct {
	resolver *branding.Resolver
}

func NewBrandingHandler(resolver *branding.Resolver) *BrandingHandler {
	return &BrandingHandler{resolver: resolver}
}

type brandingResponse struct {
	*domain.Branding
	Stage branding.Stage `json:"stage"`
}

// Get returns the branding for the requesting host. Anonymous requests get
// the provisional public branding; authenticated requests get the resolved
// merge with the school profile.
func (h *BrandingHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	result := h.resolver.Resolve(r.Context(), r.Host, sess)
	writeJSON(w, http.StatusOK, brandingResponse{Branding: result.Branding, Stage: result.Stage})
}

// ThemeCSS serves the branding colors as a stylesheet of CSS custom
// properties so pages pick up tenant colors without a round trip.
func (h *BrandingHandler) ThemeCSS(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	result := h.resolver.Resolve(r.Context(), r.Host, sess)

	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	if result.Stage == branding.StageProvisional {
		w.Header().Set("Cache-Control", "no-store")
	} else {
		w.Header().Set("Cache-Control", "private, max-age=60")
	}
	_, _ = w.Write([]byte(branding.ThemeCSS(result.Branding)))
}
