package api

import (
	"net/http"

	"incidesk/api/handlers"
	"incidesk/core/rbac"
)

func (s *Server) routes() {
	auth := handlers.NewAuthHandler(s.cfg, s.users, s.sessions, s.sessionManager, s.accountsSvc, s.audits, s.logger)
	inc := handlers.NewIncidentsHandler(s.cfg, s.users, s.incidentsSvc, s.audits, s.logger)
	admin := handlers.NewAdminHandler(s.cfg, s.users, s.incidentsSvc, s.audits, s.logger)

	s.router.Use(s.recoverMiddleware)
	s.router.Use(s.securityHeadersMiddleware)
	s.router.Use(s.jsonMiddleware)
	s.router.Use(s.loggingMiddleware)

	s.router.MethodFunc(http.MethodGet, "/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})
	s.router.MethodFunc(http.MethodGet, "/register", auth.RegisterForm)
	s.router.MethodFunc(http.MethodPost, "/register", auth.Register)
	s.router.MethodFunc(http.MethodGet, "/login", auth.LoginForm)
	s.router.MethodFunc(http.MethodPost, "/login", s.rateLimitMiddleware(auth.Login))
	s.router.MethodFunc(http.MethodPost, "/logout", s.withSession(auth.Logout))

	s.router.MethodFunc(http.MethodGet, "/dashboard", s.withSession(s.requirePermission(rbac.PermStatsView)(inc.Dashboard)))
	s.router.MethodFunc(http.MethodGet, "/incidents/my", s.withSession(s.requirePermission(rbac.PermIncidentsViewOwn)(inc.My)))
	s.router.MethodFunc(http.MethodGet, "/incidents/create", s.withSession(s.requirePermission(rbac.PermIncidentsCreate)(inc.CreateForm)))
	s.router.MethodFunc(http.MethodPost, "/incidents/create", s.withSession(s.requirePermission(rbac.PermIncidentsCreate)(inc.Create)))
	s.router.MethodFunc(http.MethodGet, "/incidents/{id:[0-9]+}", s.withSession(s.requirePermission(rbac.PermIncidentsViewOwn)(inc.Get)))

	s.router.MethodFunc(http.MethodGet, "/admin/incidents", s.withSession(s.requirePermission(rbac.PermIncidentsViewAll)(admin.List)))
	s.router.MethodFunc(http.MethodGet, "/admin/incidents/edit/{id:[0-9]+}", s.withSession(s.requirePermission(rbac.PermIncidentsManage)(admin.EditForm)))
	s.router.MethodFunc(http.MethodPost, "/admin/incidents/update/{id:[0-9]+}", s.withSession(s.requirePermission(rbac.PermIncidentsManage)(admin.Update)))
	s.router.MethodFunc(http.MethodPost, "/admin/incidents/delete/{id:[0-9]+}", s.withSession(s.requirePermission(rbac.PermIncidentsManage)(admin.Delete)))
}
