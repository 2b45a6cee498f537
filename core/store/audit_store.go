package store

import (
	"context"
	"database/sql"
	"time"
)

type AuditEntry struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type AuditStore interface {
	Log(ctx context.Context, username, action, details string) error
	List(ctx context.Context, limit int) ([]AuditEntry, error)
}

type auditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) AuditStore {
	return &auditStore{db: db}
}

func (s *auditStore) Log(ctx context.Context, username, action, details string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (username, action, details, created_at)
		VALUES (?, ?, ?, ?)`,
		username, action, details, time.Now().UTC())
	return err
}

func (s *auditStore) List(ctx context.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, action, details, created_at FROM audit_log
		ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var details sql.NullString
		if err := rows.Scan(&e.ID, &e.Username, &e.Action, &details, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Details = details.String
		res = append(res, e)
	}
	return res, rows.Err()
}
