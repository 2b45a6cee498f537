package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"incidesk/config"
	"incidesk/core/accounts"
	"incidesk/core/auth"
	"incidesk/core/store"
	"incidesk/core/utils"
)

type AuthHandler struct {
	cfg            *config.AppConfig
	users          store.UsersStore
	sessions       store.SessionStore
	sessionManager *auth.SessionManager
	accounts       *accounts.Service
	audits         store.AuditStore
	logger         *utils.Logger
}

func NewAuthHandler(cfg *config.AppConfig, users store.UsersStore, sessions store.SessionStore, sm *auth.SessionManager, accountsSvc *accounts.Service, audits store.AuditStore, logger *utils.Logger) *AuthHandler {
	return &AuthHandler{cfg: cfg, users: users, sessions: sessions, sessionManager: sm, accounts: accountsSvc, audits: audits, logger: logger}
}

// RegisterForm describes the registration payload for clients that
// render the form themselves.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"fields": []string{"username", "email", "password", "confirm_password"},
	})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var reg accounts.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	user, err := h.accounts.Register(r.Context(), reg)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrPasswordMismatch):
			http.Error(w, "passwords do not match", http.StatusBadRequest)
		case errors.Is(err, accounts.ErrUsernameTaken):
			http.Error(w, "username already taken", http.StatusConflict)
		case errors.Is(err, accounts.ErrEmailTaken):
			http.Error(w, "email already registered", http.StatusConflict)
		case errors.Is(err, accounts.ErrInvalidInput):
			http.Error(w, "invalid input", http.StatusBadRequest)
		default:
			if h.logger != nil {
				h.logger.Errorf("register failed: %v", err)
			}
			http.Error(w, "server error", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"status":   "registered",
		"username": user.Username,
		"redirect": "/login",
	})
}

// LoginForm echoes the flash flags the login page shows after a
// registration, a logout or a failed attempt.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"fields": []string{"username", "password"}}
	q := r.URL.Query()
	if q.Get("error") != "" {
		resp["error"] = "invalid username or password"
	}
	if q.Get("logout") != "" {
		resp["message"] = "you have been logged out"
	}
	if q.Get("registered") != "" {
		resp["message"] = "registration successful, please sign in"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var cred auth.Credentials
	if err := json.NewDecoder(r.Body).Decode(&cred); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	cred.Username = strings.ToLower(strings.TrimSpace(cred.Username))
	if err := utils.ValidateUsername(cred.Username); err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	view, err := h.accounts.LoadForAuthentication(r.Context(), cred.Username)
	if err != nil || view == nil || !view.Enabled {
		_ = h.audits.Log(r.Context(), cred.Username, "auth.login_failed", "user missing or disabled")
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if !auth.VerifyPassword(cred.Password, h.cfg.Pepper, view.Hash) {
		_ = h.audits.Log(r.Context(), cred.Username, "auth.login_failed", "invalid password")
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	sess, err := h.sessionManager.Create(r.Context(), view.User, clientIP(r, h.cfg), r.UserAgent())
	if err != nil {
		if h.logger != nil {
			h.logger.Errorf("auth login session create failed for %s: %v", cred.Username, err)
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	_ = h.audits.Log(r.Context(), view.User.Username, "auth.login_success", "")
	cookieSecure := isSecureRequest(r, h.cfg)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ExpiresAt,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    sess.CSRFToken,
		Path:     "/",
		HttpOnly: false,
		Secure:   cookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ExpiresAt,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":       view.User.ID,
			"username": view.User.Username,
			"role":     view.User.Role,
		},
		"csrf_token": sess.CSRFToken,
		"redirect":   "/dashboard",
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	actor := ""
	if sr := sessionFromContext(r); sr != nil {
		actor = sr.Username
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		_ = h.sessions.DeleteSession(r.Context(), cookie.Value)
	}
	cookieSecure := isSecureRequest(r, h.cfg)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	_ = h.audits.Log(r.Context(), actor, "auth.logout", "")
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"redirect": "/login?logout=1",
	})
}
