package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"incidesk/config"
	"incidesk/core/store"
)

func setupSessions(t *testing.T) (store.SessionStore, *config.AppConfig) {
	t.Helper()
	cfg := &config.AppConfig{
		DBPath:     filepath.Join(t.TempDir(), "auth.db"),
		CSRFKey:    "csrf-key",
		SessionTTL: time.Hour,
	}
	db, err := store.NewDB(cfg, nil)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.ApplyMigrations(context.Background(), db, nil); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return store.NewSessionsStore(db), cfg
}

func seedSessionUser() *store.User {
	return &store.User{ID: 1, Username: "alice", Role: "reporter", Enabled: true}
}

func TestSessionRoundTrip(t *testing.T) {
	sessions, cfg := setupSessions(t)
	sm := NewSessionManager(sessions, cfg, nil)
	ctx := context.Background()

	sess, err := sm.Create(ctx, seedSessionUser(), "127.0.0.1", "test-agent")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.CSRFToken != GenerateCSRF(cfg.CSRFKey, sess.ID) {
		t.Fatalf("csrf token not derived from key")
	}
	saved, err := sessions.GetSession(ctx, sess.ID)
	if err != nil || saved == nil {
		t.Fatalf("get: %v", err)
	}
	if saved.Username != "alice" || saved.Role != "reporter" {
		t.Fatalf("saved record wrong: %+v", saved)
	}

	if err := sm.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	gone, err := sessions.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if gone != nil {
		t.Fatalf("session still present after delete")
	}
}

func TestExpiredSessionsInvisibleAndSwept(t *testing.T) {
	sessions, _ := setupSessions(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	expired := &store.SessionRecord{
		ID:         "expired-session",
		UserID:     1,
		Username:   "alice",
		Role:       "reporter",
		CSRFToken:  "tok",
		CreatedAt:  now.Add(-2 * time.Hour),
		LastSeenAt: now.Add(-2 * time.Hour),
		ExpiresAt:  now.Add(-time.Hour),
	}
	live := &store.SessionRecord{
		ID:         "live-session",
		UserID:     1,
		Username:   "alice",
		Role:       "reporter",
		CSRFToken:  "tok",
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(time.Hour),
	}
	if err := sessions.SaveSession(ctx, expired); err != nil {
		t.Fatalf("save expired: %v", err)
	}
	if err := sessions.SaveSession(ctx, live); err != nil {
		t.Fatalf("save live: %v", err)
	}

	if got, _ := sessions.GetSession(ctx, "expired-session"); got != nil {
		t.Fatalf("expired session visible")
	}
	if got, _ := sessions.GetSession(ctx, "live-session"); got == nil {
		t.Fatalf("live session missing")
	}

	n, err := sessions.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 swept session, got %d", n)
	}
	remaining, err := sessions.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != "live-session" {
		t.Fatalf("wrong sessions remain: %+v", remaining)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	ph, err := HashPassword("correct horse battery", "pepper")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if ph.Hash == "" || ph.Salt == "" {
		t.Fatalf("empty hash material")
	}
	if !VerifyPassword("correct horse battery", "pepper", ph) {
		t.Fatalf("valid password rejected")
	}
	if VerifyPassword("correct horse battery", "other-pepper", ph) {
		t.Fatalf("wrong pepper accepted")
	}
	if VerifyPassword("wrong password", "pepper", ph) {
		t.Fatalf("wrong password accepted")
	}

	again, err := HashPassword("correct horse battery", "pepper")
	if err != nil {
		t.Fatalf("hash again: %v", err)
	}
	if again.Salt == ph.Salt || again.Hash == ph.Hash {
		t.Fatalf("salt not randomized")
	}
}
