package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/pakainexus/schoolgate/internal/backend"
)

var brandingFields = map[string]bool{
	"name":            true,
	"logo_url":        true,
	"primary_color":   true,
	"secondary_color": true,
	"website":         true,
	"address":         true,
}

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// SchoolHandler serves the tenant-side school endpoints; all data lives in
// the backend, keyed by the session's tenant.
type SchoolHandler struct {
	backend      *backend.Client
	cloudName    string
	uploadPreset string
	logger       *zap.Logger
}

func NewSchoolHandler(backendClient *backend.Client, cloudName, uploadPreset string, logger *zap.Logger) *SchoolHandler {
	return &SchoolHandler{backend: backendClient, cloudName: cloudName, uploadPreset: uploadPreset, logger: logger}
}

func (h *SchoolHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.backend.Profile(r.Context(), sessionOf(r))
	if err != nil {
		h.backendError(w, err, "failed to fetch school profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *SchoolHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.backend.Stats(r.Context(), sessionOf(r))
	if err != nil {
		h.backendError(w, err, "failed to fetch school stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *SchoolHandler) UpdateBranding(w http.ResponseWriter, r *http.Request) {
	var fields map[string]string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(fields) == 0 {
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}
	for key, value := range fields {
		if !brandingFields[key] {
			writeError(w, http.StatusBadRequest, "unknown branding field: "+key)
			return
		}
		if strings.HasSuffix(key, "_color") && !hexColorPattern.MatchString(value) {
			writeError(w, http.StatusBadRequest, key+" must be a hex color")
			return
		}
	}

	profile, err := h.backend.UpdateBranding(r.Context(), sessionOf(r), fields)
	if err != nil {
		h.backendError(w, err, "failed to update branding")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UploadConfig hands the browser the unsigned Cloudinary upload target so
// logo files never pass through the gateway.
func (h *SchoolHandler) UploadConfig(w http.ResponseWriter, r *http.Request) {
	if h.cloudName == "" || h.uploadPreset == "" {
		writeError(w, http.StatusNotFound, "uploads are not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"cloud_name":    h.cloudName,
		"upload_preset": h.uploadPreset,
		"upload_url":    "https://api.cloudinary.com/v1_1/" + h.cloudName + "/image/upload",
	})
}

func (h *SchoolHandler) backendError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "session expired")
	case errors.Is(err, backend.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, backend.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		h.logger.Error(fallback, zap.Error(err))
		writeError(w, http.StatusBadGateway, fallback)
	}
}
