package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"incidesk/config"
	"incidesk/core/auth"
	"incidesk/core/store"
)

const (
	SessionCookieName = "incidesk_session"
	CSRFCookieName    = "incidesk_csrf"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func sessionFromContext(r *http.Request) *store.SessionRecord {
	val := r.Context().Value(auth.SessionContextKey)
	if val == nil {
		return nil
	}
	sr, _ := val.(*store.SessionRecord)
	return sr
}

// currentUser resolves the request's session to the full user record.
func currentUser(r *http.Request, users store.UsersStore) (*store.User, error) {
	sr := sessionFromContext(r)
	if sr == nil {
		return nil, nil
	}
	return users.FindByUsername(r.Context(), sr.Username)
}

func clientIP(r *http.Request, cfg *config.AppConfig) string {
	ip, _, _ := net.SplitHostPort(r.RemoteAddr)
	if ip == "" {
		ip = strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(ip)
}

func isSecureRequest(r *http.Request, cfg *config.AppConfig) bool {
	if r != nil && r.TLS != nil {
		return true
	}
	return cfg != nil && cfg.TLSEnabled
}
