package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"wgnst/internal/models"
	"wgnst/internal/provision"
	"wgnst/internal/vpn/wireguard"
)

// peerView: пир и его публичная ссылка.
type peerView struct {
	*models.Peer
	DownloadURL   string `json:"download_url"`
	DownloadState string `json:"download_state"`
}

func (h *Handler) view(p *models.Peer) peerView {
	d := h.svc.Describe(p)
	return peerView{Peer: p, DownloadURL: d.DownloadURL, DownloadState: d.State}
}

func (h *Handler) views(peers []*models.Peer) []peerView {
	out := make([]peerView, 0, len(peers))
	for _, p := range peers {
		out = append(out, h.view(p))
	}
	return out
}

type batchFailure struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// createPeers отвечает 201, если созданы все; 207, если часть; 500, если ни одного.
func (h *Handler) createPeers(w http.ResponseWriter, r *http.Request) {
	var req provision.CreateRequest
	if !decode(w, r, &req, false) {
		return
	}
	peers, err := h.svc.CreatePeers(r.Context(), mux.Vars(r)["id"], req)
	var be *provision.BatchError
	switch {
	case err == nil:
		models.WriteJSON(w, http.StatusCreated, map[string]any{"peers": h.views(peers)})
	case errors.As(err, &be):
		failed := batchFailure{Index: be.Index, Name: be.Name, Error: be.Err.Error()}
		if len(peers) == 0 {
			models.WriteProblem(w, http.StatusInternalServerError, "Peer Creation Failed", be.Error(),
				map[string]any{"failed": failed})
			return
		}
		models.WriteJSON(w, http.StatusMultiStatus, map[string]any{
			"created": h.views(peers),
			"failed":  failed,
		})
	default:
		writeError(w, r, err)
	}
}

func (h *Handler) listPeers(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID != "" {
		if _, err := h.store.GetClient(r.Context(), clientID); err != nil {
			writeError(w, r, err)
			return
		}
	}
	list, err := h.store.ListPeers(r.Context(), clientID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]peerView, 0, len(list))
	for i := range list {
		out = append(out, h.view(&list[i]))
	}
	models.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) getPeer(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetPeer(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, h.view(p))
}

func (h *Handler) updatePeer(w http.ResponseWriter, r *http.Request) {
	var in provision.PeerUpdate
	if !decode(w, r, &in, false) {
		return
	}
	p, err := h.svc.UpdatePeer(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, h.view(p))
}

func (h *Handler) deletePeer(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePeer(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) regenerateToken(w http.ResponseWriter, r *http.Request) {
	var req provision.RegenerateRequest
	if !decode(w, r, &req, true) {
		return
	}
	p, err := h.svc.RegenerateToken(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, h.svc.Describe(p))
}

func (h *Handler) toggleDownload(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.ToggleDownload(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, h.svc.Describe(p))
}

// peerConfig: .conf для владельца; счётчик скачиваний не трогает.
func (h *Handler) peerConfig(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetPeer(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	attachment(w, wireguard.ConfigFilename(p.Name), p.ConfigText)
}

func (h *Handler) peerRouter(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetPeer(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	attachment(w, wireguard.FileBase(p.Name)+h.svc.Dialect().Extension(), p.RouterCommand)
}

func attachment(w http.ResponseWriter, filename, body string) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
