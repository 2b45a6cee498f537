package incidents

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"incidesk/config"
	"incidesk/core/rbac"
	"incidesk/core/store"
)

func setupIncidents(t *testing.T) (*Service, store.IncidentsStore, store.UsersStore) {
	t.Helper()
	cfg := &config.AppConfig{DBPath: filepath.Join(t.TempDir(), "incidents.db")}
	db, err := store.NewDB(cfg, nil)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.ApplyMigrations(context.Background(), db, nil); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	incStore := store.NewIncidentsStore(db)
	users := store.NewUsersStore(db)
	audits := store.NewAuditStore(db)
	return NewService(incStore, audits, nil), incStore, users
}

func seedUser(t *testing.T, users store.UsersStore, username, role string) *store.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	u := &store.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "h",
		Salt:         "s",
		Role:         role,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

func TestCreateForcesOpenStatus(t *testing.T) {
	svc, _, users := setupIncidents(t)
	ctx := context.Background()
	alice := seedUser(t, users, "alice", rbac.RoleReporter)

	inc, err := svc.Create(ctx, alice, CreateInput{
		Title:       "Server outage",
		Description: "Production server is not responding",
		Severity:    SeverityHigh,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inc.ID <= 0 {
		t.Fatalf("expected assigned id, got %d", inc.ID)
	}
	if inc.Status != StatusOpen {
		t.Fatalf("expected open status, got %q", inc.Status)
	}
	if inc.ReportedBy != alice.ID {
		t.Fatalf("expected reporter %d, got %d", alice.ID, inc.ReportedBy)
	}
	if inc.AdminNotes != "" {
		t.Fatalf("expected empty admin notes")
	}
	if inc.CreatedAt.IsZero() || !inc.CreatedAt.Equal(inc.UpdatedAt) {
		t.Fatalf("timestamps wrong: created=%v updated=%v", inc.CreatedAt, inc.UpdatedAt)
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, users := setupIncidents(t)
	ctx := context.Background()
	alice := seedUser(t, users, "alice", rbac.RoleReporter)

	cases := []CreateInput{
		{Title: "tiny", Description: "long enough description", Severity: SeverityLow},
		{Title: "valid title here", Description: "too short", Severity: SeverityLow},
		{Title: "valid title here", Description: "long enough description", Severity: "urgent"},
	}
	for i, in := range cases {
		if _, err := svc.Create(ctx, alice, in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestGetByIDAccessControl(t *testing.T) {
	svc, _, users := setupIncidents(t)
	ctx := context.Background()
	alice := seedUser(t, users, "alice", rbac.RoleReporter)
	bob := seedUser(t, users, "bob", rbac.RoleReporter)
	admin := seedUser(t, users, "root", rbac.RoleAdmin)

	inc, err := svc.Create(ctx, alice, CreateInput{
		Title:       "Server outage",
		Description: "Production server is not responding",
		Severity:    SeverityHigh,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.GetByID(ctx, alice, inc.ID); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := svc.GetByID(ctx, admin, inc.ID); err != nil {
		t.Fatalf("admin read: %v", err)
	}
	if _, err := svc.GetByID(ctx, bob, inc.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner, got %v", err)
	}
	if _, err := svc.GetByID(ctx, alice, inc.ID+100); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdatePreservesNotesWhenBlank(t *testing.T) {
	svc, incStore, users := setupIncidents(t)
	ctx := context.Background()
	alice := seedUser(t, users, "alice", rbac.RoleReporter)
	admin := seedUser(t, users, "root", rbac.RoleAdmin)

	created := time.Now().UTC().Truncate(time.Second).Add(-time.Hour)
	seed := &store.Incident{
		Title:       "Server outage",
		Description: "Production server is not responding",
		Severity:    SeverityHigh,
		Status:      StatusOpen,
		AdminNotes:  "checked network, escalating",
		ReportedBy:  alice.ID,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	if _, err := incStore.Create(ctx, seed); err != nil {
		t.Fatalf("seed incident: %v", err)
	}

	updated, err := svc.Update(ctx, admin, seed.ID, StatusResolved, "   ")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != StatusResolved {
		t.Fatalf("expected resolved, got %q", updated.Status)
	}
	if updated.AdminNotes != "checked network, escalating" {
		t.Fatalf("blank notes overwrote existing: %q", updated.AdminNotes)
	}
	if !updated.UpdatedAt.After(created) {
		t.Fatalf("updatedAt not advanced: %v", updated.UpdatedAt)
	}
	if updated.Title != seed.Title || updated.Description != seed.Description || updated.Severity != seed.Severity || updated.ReportedBy != alice.ID {
		t.Fatalf("immutable fields changed: %+v", updated)
	}
	if !updated.CreatedAt.Equal(created) {
		t.Fatalf("createdAt changed: %v", updated.CreatedAt)
	}
}

func TestUpdateReplacesNotesAndValidatesStatus(t *testing.T) {
	svc, _, users := setupIncidents(t)
	ctx := context.Background()
	alice := seedUser(t, users, "alice", rbac.RoleReporter)
	admin := seedUser(t, users, "root", rbac.RoleAdmin)

	inc, err := svc.Create(ctx, alice, CreateInput{
		Title:       "Broken printer",
		Description: "Second floor printer is jammed",
		Severity:    SeverityLow,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, admin, inc.ID, StatusInProgress, "  technician dispatched  ")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.AdminNotes != "technician dispatched" {
		t.Fatalf("notes not trimmed/replaced: %q", updated.AdminNotes)
	}

	if _, err := svc.Update(ctx, admin, inc.ID, "closed", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad status, got %v", err)
	}
	if _, err := svc.Update(ctx, admin, inc.ID+100, StatusOpen, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Any transition is accepted, including back to open.
	if _, err := svc.Update(ctx, admin, inc.ID, StatusOpen, ""); err != nil {
		t.Fatalf("reopen: %v", err)
	}
}

func TestDeleteReportsMissing(t *testing.T) {
	svc, _, users := setupIncidents(t)
	ctx := context.Background()
	alice := seedUser(t, users, "alice", rbac.RoleReporter)
	admin := seedUser(t, users, "root", rbac.RoleAdmin)

	inc, err := svc.Create(ctx, alice, CreateInput{
		Title:       "Server outage",
		Description: "Production server is not responding",
		Severity:    SeverityHigh,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, admin, inc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, admin, inc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestStatisticsAsymmetric(t *testing.T) {
	svc, incStore, users := setupIncidents(t)
	ctx := context.Background()
	alice := seedUser(t, users, "alice", rbac.RoleReporter)
	bob := seedUser(t, users, "bob", rbac.RoleReporter)
	admin := seedUser(t, users, "root", rbac.RoleAdmin)

	now := time.Now().UTC().Truncate(time.Second)
	seed := []struct {
		reporter *store.User
		severity string
		status   string
	}{
		{alice, SeverityCritical, StatusOpen},
		{alice, SeverityLow, StatusResolved},
		{bob, SeverityCritical, StatusInProgress},
		{bob, SeverityMedium, StatusOpen},
		{bob, SeverityHigh, StatusRejected},
	}
	for i, s := range seed {
		inc := &store.Incident{
			Title:       "seeded incident record",
			Description: "seeded incident description",
			Severity:    s.severity,
			Status:      s.status,
			ReportedBy:  s.reporter.ID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if _, err := incStore.Create(ctx, inc); err != nil {
			t.Fatalf("seed #%d: %v", i, err)
		}
	}

	adminStats, err := svc.Statistics(ctx, admin)
	if err != nil {
		t.Fatalf("admin stats: %v", err)
	}
	if adminStats.Total != 5 || adminStats.Open != 2 || adminStats.InProgress != 1 || adminStats.Resolved != 1 || adminStats.Critical != 2 {
		t.Fatalf("admin stats wrong: %+v", adminStats)
	}

	aliceStats, err := svc.Statistics(ctx, alice)
	if err != nil {
		t.Fatalf("reporter stats: %v", err)
	}
	if aliceStats.Total != 2 {
		t.Fatalf("reporter total = %d", aliceStats.Total)
	}
	if aliceStats.Open != 0 || aliceStats.InProgress != 0 || aliceStats.Resolved != 0 || aliceStats.Critical != 0 {
		t.Fatalf("reporter breakdowns should be zero: %+v", aliceStats)
	}
}

func TestListByUserScoped(t *testing.T) {
	svc, _, users := setupIncidents(t)
	ctx := context.Background()
	alice := seedUser(t, users, "alice", rbac.RoleReporter)
	bob := seedUser(t, users, "bob", rbac.RoleReporter)

	if _, err := svc.Create(ctx, alice, CreateInput{Title: "alice incident", Description: "description for alice", Severity: SeverityLow}); err != nil {
		t.Fatalf("create alice: %v", err)
	}
	if _, err := svc.Create(ctx, bob, CreateInput{Title: "bob incident first", Description: "description for bob", Severity: SeverityMedium}); err != nil {
		t.Fatalf("create bob: %v", err)
	}

	aliceList, err := svc.ListByUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list alice: %v", err)
	}
	if len(aliceList) != 1 || aliceList[0].ReportedBy != alice.ID {
		t.Fatalf("alice list wrong: %+v", aliceList)
	}
	all, err := svc.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 incidents, got %d", len(all))
	}
}
