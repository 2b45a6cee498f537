package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"incidesk/config"
	"incidesk/core/incidents"
	"incidesk/core/rbac"
	"incidesk/core/store"
	"incidesk/core/utils"
)

type IncidentsHandler struct {
	cfg       *config.AppConfig
	users     store.UsersStore
	incidents *incidents.Service
	audits    store.AuditStore
	logger    *utils.Logger
}

func NewIncidentsHandler(cfg *config.AppConfig, users store.UsersStore, svc *incidents.Service, audits store.AuditStore, logger *utils.Logger) *IncidentsHandler {
	return &IncidentsHandler{cfg: cfg, users: users, incidents: svc, audits: audits, logger: logger}
}

// Dashboard shows per-role statistics: global breakdowns for admins,
// the reporter's own total otherwise.
func (h *IncidentsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.users)
	if err != nil || user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	stats, err := h.incidents.Statistics(r.Context(), user)
	if err != nil {
		if h.logger != nil {
			h.logger.Errorf("dashboard stats for %s: %v", user.Username, err)
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"username": user.Username,
		"is_admin": user.Role == rbac.RoleAdmin,
		"stats":    stats,
	})
}

func (h *IncidentsHandler) My(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.users)
	if err != nil || user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	list, err := h.incidents.ListByUser(r.Context(), user.ID)
	if err != nil {
		if h.logger != nil {
			h.logger.Errorf("list incidents for %s: %v", user.Username, err)
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []store.Incident{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"incidents": list})
}

func (h *IncidentsHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"fields":     []string{"title", "description", "severity"},
		"severities": incidents.Severities,
	})
}

func (h *IncidentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.users)
	if err != nil || user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var in incidents.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	inc, err := h.incidents.Create(r.Context(), user, in)
	if err != nil {
		if errors.Is(err, incidents.ErrInvalidInput) {
			http.Error(w, "invalid input", http.StatusBadRequest)
			return
		}
		if h.logger != nil {
			h.logger.Errorf("create incident for %s: %v", user.Username, err)
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"incident": inc,
		"message":  "incident reported",
		"redirect": "/incidents/my",
	})
}

func (h *IncidentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r, h.users)
	if err != nil || user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	id, ok := idParam(r)
	if !ok {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	inc, err := h.incidents.GetByID(r.Context(), user, id)
	if err != nil {
		switch {
		case errors.Is(err, incidents.ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, incidents.ErrForbidden):
			http.Error(w, "forbidden", http.StatusForbidden)
		default:
			if h.logger != nil {
				h.logger.Errorf("get incident %d for %s: %v", id, user.Username, err)
			}
			http.Error(w, "server error", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"incident": inc,
		"is_owner": user.ID == inc.ReportedBy,
		"is_admin": user.Role == rbac.RoleAdmin,
	})
}
