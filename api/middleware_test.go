package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"incidesk/config"
	"incidesk/core/accounts"
	"incidesk/core/auth"
	"incidesk/core/incidents"
	"incidesk/core/rbac"
	"incidesk/core/store"
	"incidesk/core/utils"
)

func setupServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.AppConfig{
		DBPath:     filepath.Join(t.TempDir(), "api.db"),
		Pepper:     "pepper",
		CSRFKey:    "csrf-test-key",
		SessionTTL: time.Hour,
		Security:   config.SecurityConfig{OnlineWindowSec: 300},
	}
	logger := utils.NewLogger()
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.ApplyMigrations(context.Background(), db, logger); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	users := store.NewUsersStore(db)
	sessions := store.NewSessionsStore(db)
	audits := store.NewAuditStore(db)
	incStore := store.NewIncidentsStore(db)
	policy, err := rbac.NewPolicy()
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	sm := auth.NewSessionManager(sessions, cfg, logger)
	deps := ServerDeps{
		Users:          users,
		Sessions:       sessions,
		Audits:         audits,
		Policy:         policy,
		SessionManager: sm,
		AccountsSvc:    accounts.NewService(users, audits, cfg.Pepper, logger),
		IncidentsSvc:   incidents.NewService(incStore, audits, logger),
	}
	return NewServer(cfg, deps, logger)
}

func doJSON(t *testing.T, srv *Server, method, path, body string, cookies []*http.Cookie, csrf string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Accept", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	if csrf != "" {
		req.Header.Set("X-CSRF-Token", csrf)
	}
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func loginAs(t *testing.T, srv *Server, username, password string) ([]*http.Cookie, string) {
	t.Helper()
	rr := doJSON(t, srv, http.MethodPost, "/login", `{"username":"`+username+`","password":"`+password+`"}`, nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", username, rr.Code, rr.Body.String())
	}
	cookies := rr.Result().Cookies()
	csrf := ""
	for _, c := range cookies {
		if c.Name == "incidesk_csrf" {
			csrf = c.Value
		}
	}
	if csrf == "" {
		t.Fatalf("login %s: no csrf cookie", username)
	}
	return cookies, csrf
}

func TestEndToEndReporterFlow(t *testing.T) {
	srv := setupServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/register", `{"username":"alice","email":"alice@example.com","password":"sup3rsecret","confirm_password":"sup3rsecret"}`, nil, "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rr.Code, rr.Body.String())
	}

	cookies, csrf := loginAs(t, srv, "alice", "sup3rsecret")

	rr = doJSON(t, srv, http.MethodGet, "/dashboard", "", cookies, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard: %d %s", rr.Code, rr.Body.String())
	}

	// Reporter cannot reach the admin listing.
	rr = doJSON(t, srv, http.MethodGet, "/admin/incidents", "", cookies, "")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("admin list as reporter: expected 403, got %d", rr.Code)
	}

	// Mutations without the CSRF header are rejected.
	payload := `{"title":"Server outage","description":"Production server is not responding","severity":"high"}`
	rr = doJSON(t, srv, http.MethodPost, "/incidents/create", payload, cookies, "")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("create without csrf: expected 403, got %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodPost, "/incidents/create", payload, cookies, csrf)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create with csrf: %d %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, "/incidents/my", "", cookies, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("my incidents: %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Server outage") {
		t.Fatalf("my incidents missing created entry: %s", rr.Body.String())
	}
}

func TestUnauthenticatedRequests(t *testing.T) {
	srv := setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/incidents/my", nil)
	req.Header.Set("Accept", "text/html")
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusFound {
		t.Fatalf("expected login redirect for browser GET, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/login" {
		t.Fatalf("redirect location %q", loc)
	}

	req = httptest.NewRequest(http.MethodPost, "/incidents/create", strings.NewReader("{}"))
	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for POST without session, got %d", rr.Code)
	}
}

func TestLoginRateLimiting(t *testing.T) {
	srv := setupServer(t)

	blocked := false
	for i := 0; i < 12; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"brute","password":"guessing123"}`))
		req.RemoteAddr = "10.9.8.7:4444"
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, req)
		if rr.Code == http.StatusTooManyRequests {
			blocked = true
			break
		}
	}
	if !blocked {
		t.Fatalf("rate limiter never engaged")
	}
}
