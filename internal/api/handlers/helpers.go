package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pakainexus/schoolgate/internal/api/middleware"
	"github.com/pakainexus/schoolgate/internal/domain"
)

func sessionOf(r *http.Request) *domain.Session {
	return middleware.SessionFromContext(r.Context())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
