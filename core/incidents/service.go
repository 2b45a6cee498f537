package incidents

import (
	"context"
	"errors"
	"strings"

	"incidesk/core/rbac"
	"incidesk/core/store"
	"incidesk/core/utils"
)

var (
	ErrNotFound     = errors.New("incident not found")
	ErrForbidden    = errors.New("access denied")
	ErrInvalidInput = errors.New("invalid input")
)

const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"

	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusRejected   = "rejected"
)

// Severities and Statuses are in display order.
var (
	Severities = []string{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	Statuses   = []string{StatusOpen, StatusInProgress, StatusResolved, StatusRejected}
)

func ValidSeverity(s string) bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

func ValidStatus(s string) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

const (
	titleMinLen       = 5
	titleMaxLen       = 200
	descriptionMinLen = 10
	descriptionMaxLen = 5000
	adminNotesMaxLen  = 5000
)

type CreateInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

type Statistics struct {
	Total      int64 `json:"total"`
	Open       int64 `json:"open"`
	InProgress int64 `json:"in_progress"`
	Resolved   int64 `json:"resolved"`
	Critical   int64 `json:"critical"`
}

type Service struct {
	store  store.IncidentsStore
	audits store.AuditStore
	logger *utils.Logger
}

func NewService(incidents store.IncidentsStore, audits store.AuditStore, logger *utils.Logger) *Service {
	return &Service{store: incidents, audits: audits, logger: logger}
}

// CanRead is the single read-access rule: admins see everything,
// reporters see only what they filed.
func (s *Service) CanRead(user *store.User, inc *store.Incident) bool {
	if user == nil || inc == nil {
		return false
	}
	if user.Role == rbac.RoleAdmin {
		return true
	}
	return user.ID == inc.ReportedBy
}

// Create files a new incident for the reporter. Status is always open
// at creation regardless of input.
func (s *Service) Create(ctx context.Context, reporter *store.User, in CreateInput) (*store.Incident, error) {
	if reporter == nil {
		return nil, ErrInvalidInput
	}
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if len(title) < titleMinLen || len(title) > titleMaxLen {
		return nil, ErrInvalidInput
	}
	if len(description) < descriptionMinLen || len(description) > descriptionMaxLen {
		return nil, ErrInvalidInput
	}
	if !ValidSeverity(in.Severity) {
		return nil, ErrInvalidInput
	}
	now := utils.NowUTC()
	inc := &store.Incident{
		Title:       title,
		Description: description,
		Severity:    in.Severity,
		Status:      StatusOpen,
		AdminNotes:  "",
		ReportedBy:  reporter.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.store.Create(ctx, inc); err != nil {
		return nil, err
	}
	if s.audits != nil {
		_ = s.audits.Log(ctx, reporter.Username, "incidents.create", inc.Title)
	}
	return inc, nil
}

// ListByUser returns the user's own incidents, newest first.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]store.Incident, error) {
	return s.store.ListByReporter(ctx, userID)
}

// ListAll returns every incident, newest first.
func (s *Service) ListAll(ctx context.Context) ([]store.Incident, error) {
	return s.store.ListAll(ctx)
}

func (s *Service) GetByID(ctx context.Context, user *store.User, id int64) (*store.Incident, error) {
	inc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inc == nil {
		return nil, ErrNotFound
	}
	if !s.CanRead(user, inc) {
		return nil, ErrForbidden
	}
	return inc, nil
}

// Update sets the status and, when notes is non-blank after trimming,
// replaces the admin notes. Any status-to-status transition is
// accepted.
func (s *Service) Update(ctx context.Context, actor *store.User, id int64, status, notes string) (*store.Incident, error) {
	if !ValidStatus(status) {
		return nil, ErrInvalidInput
	}
	inc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inc == nil {
		return nil, ErrNotFound
	}
	inc.Status = status
	trimmed := strings.TrimSpace(notes)
	if trimmed != "" {
		if len(trimmed) > adminNotesMaxLen {
			return nil, ErrInvalidInput
		}
		inc.AdminNotes = trimmed
	}
	inc.UpdatedAt = utils.NowUTC()
	if err := s.store.Update(ctx, inc); err != nil {
		return nil, err
	}
	if s.audits != nil && actor != nil {
		_ = s.audits.Log(ctx, actor.Username, "incidents.update", inc.Title)
	}
	return inc, nil
}

// Delete removes an incident permanently. The existence check runs
// first so a missing id reports ErrNotFound rather than silently
// succeeding.
func (s *Service) Delete(ctx context.Context, actor *store.User, id int64) error {
	inc, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if inc == nil {
		return ErrNotFound
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if s.audits != nil && actor != nil {
		_ = s.audits.Log(ctx, actor.Username, "incidents.delete", inc.Title)
	}
	return nil
}

// Statistics is asymmetric: admins get global breakdowns, reporters
// get only their own total with the remaining counters zero.
func (s *Service) Statistics(ctx context.Context, user *store.User) (*Statistics, error) {
	if user == nil {
		return nil, ErrInvalidInput
	}
	if user.Role != rbac.RoleAdmin {
		own, err := s.store.CountByReporter(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		return &Statistics{Total: own}, nil
	}
	stats := &Statistics{}
	var err error
	if stats.Total, err = s.store.CountAll(ctx); err != nil {
		return nil, err
	}
	if stats.Open, err = s.store.CountByStatus(ctx, StatusOpen); err != nil {
		return nil, err
	}
	if stats.InProgress, err = s.store.CountByStatus(ctx, StatusInProgress); err != nil {
		return nil, err
	}
	if stats.Resolved, err = s.store.CountByStatus(ctx, StatusResolved); err != nil {
		return nil, err
	}
	if stats.Critical, err = s.store.CountBySeverity(ctx, SeverityCritical); err != nil {
		return nil, err
	}
	return stats, nil
}
