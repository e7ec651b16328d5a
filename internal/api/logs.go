package api

import (
	"net/http"

	"wgnst/internal/models"
	"wgnst/internal/repo"
)

func (h *Handler) listActivity(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListActivity(r.Context(), queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.ActivityEntry{}
	}
	models.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) listAuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.store.ListAuditLogs(r.Context(), repo.AuditFilter{
		Table:    q.Get("table"),
		RecordID: q.Get("record_id"),
		Limit:    queryInt(r, "limit"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.AuditLog{}
	}
	models.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) listAccessLogs(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListAccessLogs(r.Context(), queryInt(r, "limit"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.AccessLog{}
	}
	models.WriteJSON(w, http.StatusOK, list)
}
