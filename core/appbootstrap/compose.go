package appbootstrap

import (
	"database/sql"

	"incidesk/api"
	"incidesk/config"
	"incidesk/core/accounts"
	"incidesk/core/auth"
	"incidesk/core/incidents"
	"incidesk/core/rbac"
	"incidesk/core/store"
	"incidesk/core/utils"
)

type runtimeComposition struct {
	serverDeps api.ServerDeps
	sessions   store.SessionStore
	workers    []api.BackgroundWorker
}

func composeRuntime(cfg *config.AppConfig, db *sql.DB, logger *utils.Logger) (*runtimeComposition, error) {
	users := store.NewUsersStore(db)
	sessions := store.NewSessionsStore(db)
	incidentsStore := store.NewIncidentsStore(db)
	audits := store.NewAuditStore(db)

	policy, err := rbac.NewPolicy()
	if err != nil {
		return nil, err
	}
	sessionManager := auth.NewSessionManager(sessions, cfg, logger)
	accountsSvc := accounts.NewService(users, audits, cfg.Pepper, logger)
	incidentsSvc := incidents.NewService(incidentsStore, audits, logger)
	sweeper := auth.NewSweeper(sessions, cfg.Scheduler, logger)

	return &runtimeComposition{
		serverDeps: api.ServerDeps{
			Users:          users,
			Sessions:       sessions,
			Audits:         audits,
			Policy:         policy,
			SessionManager: sessionManager,
			AccountsSvc:    accountsSvc,
			IncidentsSvc:   incidentsSvc,
		},
		sessions: sessions,
		workers:  []api.BackgroundWorker{sweeper},
	}, nil
}
