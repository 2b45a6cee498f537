package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type Incident struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	Status      string    `json:"status"`
	AdminNotes  string    `json:"admin_notes"`
	ReportedBy  int64     `json:"reported_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type IncidentsStore interface {
	Create(ctx context.Context, incident *Incident) (int64, error)
	Get(ctx context.Context, id int64) (*Incident, error)
	ListByReporter(ctx context.Context, userID int64) ([]Incident, error)
	ListAll(ctx context.Context) ([]Incident, error)
	Update(ctx context.Context, incident *Incident) error
	Delete(ctx context.Context, id int64) error
	CountAll(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	CountBySeverity(ctx context.Context, severity string) (int64, error)
	CountByReporter(ctx context.Context, userID int64) (int64, error)
}

type incidentsStore struct {
	db *sql.DB
}

func NewIncidentsStore(db *sql.DB) IncidentsStore {
	return &incidentsStore{db: db}
}

const incidentColumns = `id, title, description, severity, status, admin_notes, reported_by, created_at, updated_at`

func (s *incidentsStore) Create(ctx context.Context, incident *Incident) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO incidents (title, description, severity, status, admin_notes, reported_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		incident.Title, incident.Description, incident.Severity, incident.Status, incident.AdminNotes, incident.ReportedBy, incident.CreatedAt, incident.UpdatedAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		row := s.db.QueryRowContext(ctx, `
			SELECT id FROM incidents WHERE reported_by=? ORDER BY id DESC LIMIT 1`, incident.ReportedBy)
		if scanErr := row.Scan(&id); scanErr != nil {
			return 0, scanErr
		}
	}
	incident.ID = id
	return id, nil
}

func (s *incidentsStore) Get(ctx context.Context, id int64) (*Incident, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id=?`, id)
	return scanIncident(row)
}

func (s *incidentsStore) ListByReporter(ctx context.Context, userID int64) ([]Incident, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+incidentColumns+` FROM incidents
		WHERE reported_by=? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectIncidents(rows)
}

func (s *incidentsStore) ListAll(ctx context.Context) ([]Incident, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+incidentColumns+` FROM incidents
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	return collectIncidents(rows)
}

func (s *incidentsStore) Update(ctx context.Context, incident *Incident) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE incidents SET status=?, admin_notes=?, updated_at=?
		WHERE id=?`,
		incident.Status, incident.AdminNotes, incident.UpdatedAt, incident.ID)
	return err
}

func (s *incidentsStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM incidents WHERE id=?`, id)
	return err
}

func (s *incidentsStore) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM incidents`).Scan(&n)
	return n, err
}

func (s *incidentsStore) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM incidents WHERE status=?`, status).Scan(&n)
	return n, err
}

func (s *incidentsStore) CountBySeverity(ctx context.Context, severity string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM incidents WHERE severity=?`, severity).Scan(&n)
	return n, err
}

func (s *incidentsStore) CountByReporter(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM incidents WHERE reported_by=?`, userID).Scan(&n)
	return n, err
}

func scanIncident(row *sql.Row) (*Incident, error) {
	var inc Incident
	if err := row.Scan(&inc.ID, &inc.Title, &inc.Description, &inc.Severity, &inc.Status, &inc.AdminNotes, &inc.ReportedBy, &inc.CreatedAt, &inc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &inc, nil
}

func collectIncidents(rows *sql.Rows) ([]Incident, error) {
	defer rows.Close()
	var res []Incident
	for rows.Next() {
		var inc Incident
		if err := rows.Scan(&inc.ID, &inc.Title, &inc.Description, &inc.Severity, &inc.Status, &inc.AdminNotes, &inc.ReportedBy, &inc.CreatedAt, &inc.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, inc)
	}
	return res, rows.Err()
}
