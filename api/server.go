package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"incidesk/config"
	"incidesk/core/accounts"
	"incidesk/core/auth"
	"incidesk/core/incidents"
	"incidesk/core/rbac"
	"incidesk/core/store"
	"incidesk/core/utils"
)

// BackgroundWorker is anything the runtime starts before serving and
// stops on shutdown.
type BackgroundWorker interface {
	Start()
	Stop()
}

type ServerDeps struct {
	Users          store.UsersStore
	Sessions       store.SessionStore
	Audits         store.AuditStore
	Policy         *rbac.Policy
	SessionManager *auth.SessionManager
	AccountsSvc    *accounts.Service
	IncidentsSvc   *incidents.Service
}

type Server struct {
	cfg             *config.AppConfig
	router          chi.Router
	logger          *utils.Logger
	users           store.UsersStore
	sessions        store.SessionStore
	audits          store.AuditStore
	policy          *rbac.Policy
	sessionManager  *auth.SessionManager
	accountsSvc     *accounts.Service
	incidentsSvc    *incidents.Service
	activityTracker *sessionActivity
	httpServer      *http.Server
}

func NewServer(cfg *config.AppConfig, deps ServerDeps, logger *utils.Logger) *Server {
	s := &Server{
		cfg:             cfg,
		router:          chi.NewRouter(),
		logger:          logger,
		users:           deps.Users,
		sessions:        deps.Sessions,
		audits:          deps.Audits,
		policy:          deps.Policy,
		sessionManager:  deps.SessionManager,
		accountsSvc:     deps.AccountsSvc,
		incidentsSvc:    deps.IncidentsSvc,
		activityTracker: newSessionActivity(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Run() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if s.logger != nil {
		s.logger.Printf("listening on %s (tls=%v)", s.cfg.ListenAddr, s.cfg.TLSEnabled)
	}
	if s.cfg.TLSEnabled {
		return s.httpServer.ListenAndServeTLS(s.cfg.TLSCert, s.cfg.TLSKey)
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
