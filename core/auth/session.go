package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"

	"incidesk/config"
	"incidesk/core/store"
	"incidesk/core/utils"
)

type contextKey string

// SessionContextKey carries the authenticated *store.SessionRecord
// through the request context.
const SessionContextKey contextKey = "session"

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Session struct {
	ID         string
	UserID     int64
	Username   string
	Role       string
	CSRFToken  string
	IP         string
	UserAgent  string
	CreatedAt  time.Time
	LastSeenAt time.Time
	ExpiresAt  time.Time
}

type SessionManager struct {
	store  store.SessionStore
	cfg    *config.AppConfig
	logger *utils.Logger
}

func NewSessionManager(store store.SessionStore, cfg *config.AppConfig, logger *utils.Logger) *SessionManager {
	return &SessionManager{store: store, cfg: cfg, logger: logger}
}

func (m *SessionManager) Create(ctx context.Context, user *store.User, ip, userAgent string) (*Session, error) {
	id := uuid.Must(uuid.NewV4()).String()
	var csrf string
	var err error
	if m.cfg.CSRFKey != "" {
		csrf = GenerateCSRF(m.cfg.CSRFKey, id)
	} else {
		csrf, err = utils.RandString(32)
		if err != nil {
			return nil, err
		}
	}
	now := utils.NowUTC()
	ttl := m.cfg.EffectiveSessionTTL()
	sess := &Session{
		ID:         id,
		UserID:     user.ID,
		Username:   user.Username,
		Role:       user.Role,
		CSRFToken:  csrf,
		IP:         ip,
		UserAgent:  userAgent,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(ttl),
	}
	if err := m.store.SaveSession(ctx, &store.SessionRecord{
		ID:         sess.ID,
		UserID:     sess.UserID,
		Username:   sess.Username,
		Role:       sess.Role,
		CSRFToken:  sess.CSRFToken,
		IP:         sess.IP,
		UserAgent:  sess.UserAgent,
		CreatedAt:  sess.CreatedAt,
		LastSeenAt: sess.LastSeenAt,
		ExpiresAt:  sess.ExpiresAt,
	}); err != nil {
		return nil, err
	}
	return sess, nil
}

func (m *SessionManager) Refresh(ctx context.Context, sessID string) error {
	return m.store.UpdateActivity(ctx, sessID, utils.NowUTC(), m.cfg.EffectiveSessionTTL())
}

func (m *SessionManager) Rotate(ctx context.Context, sessID string) (*Session, error) {
	old, err := m.store.GetSession(ctx, sessID)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, errors.New("session not found")
	}
	_ = m.store.DeleteSession(ctx, sessID)
	return m.Create(ctx, &store.User{ID: old.UserID, Username: old.Username, Role: old.Role}, old.IP, old.UserAgent)
}

func (m *SessionManager) Delete(ctx context.Context, sessID string) error {
	return m.store.DeleteSession(ctx, sessID)
}

// GenerateCSRF derives a deterministic token for a session id so that
// restarts with the same key keep issued tokens valid.
func GenerateCSRF(key, sessionID string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(sessionID))
	return hex.EncodeToString(mac.Sum(nil))
}
