// Package api содержит management API владельца (шлюзы, пиры, ссылки, журналы).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"wgnst/internal/audit"
	"wgnst/internal/logs"
	"wgnst/internal/middleware"
	"wgnst/internal/models"
	"wgnst/internal/provision"
	"wgnst/internal/repo"
)

const maxBody = 1 << 20

type Handler struct {
	svc   *provision.Service
	store repo.Store
	rec   *audit.Recorder
}

func New(svc *provision.Service, store repo.Store, rec *audit.Recorder) *Handler {
	return &Handler{svc: svc, store: store, rec: rec}
}

// RegisterRoutes вешает /api/* за authMW; каждый вызов пишется в журнал доступа.
func (h *Handler) RegisterRoutes(r *mux.Router, authMW mux.MiddlewareFunc) {
	api := r.PathPrefix("/api").Subrouter()
	if authMW != nil {
		api.Use(authMW)
	}
	api.Use(h.accessLog)

	api.HandleFunc("/clients", h.listClients).Methods(http.MethodGet).Name("list_clients")
	api.HandleFunc("/clients", h.createClient).Methods(http.MethodPost).Name("create_client")
	api.HandleFunc("/clients/{id}", h.getClient).Methods(http.MethodGet).Name("get_client")
	api.HandleFunc("/clients/{id}", h.updateClient).Methods(http.MethodPut).Name("update_client")
	api.HandleFunc("/clients/{id}", h.deleteClient).Methods(http.MethodDelete).Name("delete_client")
	api.HandleFunc("/clients/{id}/peers", h.createPeers).Methods(http.MethodPost).Name("create_peers")
	api.HandleFunc("/clients/{id}/bundle", h.bundle).Methods(http.MethodGet).Name("export_bundle")

	api.HandleFunc("/peers", h.listPeers).Methods(http.MethodGet).Name("list_peers")
	api.HandleFunc("/peers/{id}", h.getPeer).Methods(http.MethodGet).Name("get_peer")
	api.HandleFunc("/peers/{id}", h.updatePeer).Methods(http.MethodPut).Name("update_peer")
	api.HandleFunc("/peers/{id}", h.deletePeer).Methods(http.MethodDelete).Name("delete_peer")
	api.HandleFunc("/peers/{id}/regenerate-token", h.regenerateToken).Methods(http.MethodPost).Name("regenerate_token")
	api.HandleFunc("/peers/{id}/toggle-download", h.toggleDownload).Methods(http.MethodPost).Name("toggle_download")
	api.HandleFunc("/peers/{id}/config", h.peerConfig).Methods(http.MethodGet).Name("get_peer_config")
	api.HandleFunc("/peers/{id}/router", h.peerRouter).Methods(http.MethodGet).Name("get_peer_router")

	api.HandleFunc("/activity", h.listActivity).Methods(http.MethodGet).Name("list_activity")
	api.HandleFunc("/audit-logs", h.listAuditLogs).Methods(http.MethodGet).Name("list_audit_logs")
	api.HandleFunc("/access-logs", h.listAccessLogs).Methods(http.MethodGet).Name("list_access_logs")
}

func decode(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("invalid JSON body: %v", err), nil)
		return false
	}
	return true
}

// writeError сопоставляет ошибки домена с кодами ответа.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *provision.ValidationError
	switch {
	case errors.As(err, &ve):
		models.WriteValidation(w, ve.Error(), ve.Fields)
	case errors.Is(err, repo.ErrNotFound):
		models.WriteProblem(w, http.StatusNotFound, "Not Found", err.Error(), nil)
	default:
		reqid := middleware.GetRequestID(r)
		logs.Logger.WithFields(logrus.Fields{"reqid": reqid, "uri": r.URL.Path, "err": err}).Error("api: request failed")
		models.WriteInternal(w, reqid)
	}
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}
