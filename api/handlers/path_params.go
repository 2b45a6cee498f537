package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

func urlParam(r *http.Request, key string) string {
	if val := chi.URLParam(r, key); val != "" {
		return val
	}
	// Fallback for direct handler tests without chi route context.
	segments := strings.Split(strings.Trim(strings.TrimSpace(r.URL.Path), "/"), "/")
	if key == "id" {
		for i := len(segments) - 1; i >= 0; i-- {
			if _, err := strconv.ParseInt(segments[i], 10, 64); err == nil {
				return segments[i]
			}
		}
	}
	return ""
}

func idParam(r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(urlParam(r, "id"))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
