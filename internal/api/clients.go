package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"wgnst/internal/models"
	"wgnst/internal/provision"
)

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListClients(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Client{}
	}
	models.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	var in provision.ClientInput
	if !decode(w, r, &in, false) {
		return
	}
	c, err := h.svc.CreateClient(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) getClient(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.GetClient(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	var in provision.ClientInput
	if !decode(w, r, &in, false) {
		return
	}
	c, err := h.svc.UpdateClient(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteClient(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) bundle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	arc, sum, err := h.svc.Bundle(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", `attachment; filename="client-`+id+`.tar.gz"`)
	w.Header().Set("X-Checksum-Sha256", sum)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(arc)
}
