package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"incidesk/config"
	"incidesk/core/incidents"
	"incidesk/core/store"
	"incidesk/core/utils"
)

type AdminHandler struct {
	cfg       *config.AppConfig
	users     store.UsersStore
	incidents *incidents.Service
	audits    store.AuditStore
	logger    *utils.Logger
}

func NewAdminHandler(cfg *config.AppConfig, users store.UsersStore, svc *incidents.Service, audits store.AuditStore, logger *utils.Logger) *AdminHandler {
	return &AdminHandler{cfg: cfg, users: users, incidents: svc, audits: audits, logger: logger}
}

func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.incidents.ListAll(r.Context())
	if err != nil {
		if h.logger != nil {
			h.logger.Errorf("admin list incidents: %v", err)
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []store.Incident{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"incidents":  list,
		"statuses":   incidents.Statuses,
		"severities": incidents.Severities,
	})
}

func (h *AdminHandler) EditForm(w http.ResponseWriter, r *http.Request) {
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
		if errors.Is(err, incidents.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if h.logger != nil {
			h.logger.Errorf("admin edit form %d: %v", id, err)
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"incident": inc,
		"statuses": incidents.Statuses,
	})
}

type adminUpdatePayload struct {
	Status     string `json:"status"`
	AdminNotes string `json:"admin_notes"`
}

func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	var payload adminUpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	inc, err := h.incidents.Update(r.Context(), user, id, payload.Status, payload.AdminNotes)
	if err != nil {
		switch {
		case errors.Is(err, incidents.ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, incidents.ErrInvalidInput):
			http.Error(w, "invalid input", http.StatusBadRequest)
		default:
			if h.logger != nil {
				h.logger.Errorf("admin update incident %d: %v", id, err)
			}
			http.Error(w, "server error", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"incident": inc,
		"message":  "incident updated",
		"redirect": "/admin/incidents",
	})
}

func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	if err := h.incidents.Delete(r.Context(), user, id); err != nil {
		if errors.Is(err, incidents.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if h.logger != nil {
			h.logger.Errorf("admin delete incident %d: %v", id, err)
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "deleted",
		"message":  "incident deleted",
		"redirect": "/admin/incidents",
	})
}
