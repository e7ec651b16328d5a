// Package download: публичная выдача конфига по токену.
// Аутентификации нет: токен и есть пропуск.
package download

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"wgnst/internal/audit"
	"wgnst/internal/logs"
	"wgnst/internal/middleware"
	"wgnst/internal/models"
	"wgnst/internal/ratelimit"
	"wgnst/internal/repo"
	"wgnst/internal/vpn/wireguard"
)

const (
	msgNotFound  = "file not found"
	msgDisabled  = "download link has been disabled"
	msgExpired   = "download link has expired"
	msgExhausted = "download limit reached"
)

type Gateway struct {
	peers   repo.Peers
	rec     *audit.Recorder
	limiter ratelimit.Limiter
	now     func() time.Time
}

// NewGateway: limiter может быть nil, тогда без ограничения частоты.
func NewGateway(peers repo.Peers, rec *audit.Recorder, limiter ratelimit.Limiter) *Gateway {
	return &Gateway{
		peers:   peers,
		rec:     rec,
		limiter: limiter,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRoutes: /download/{token} и алиас /api/download/{token}.
func (g *Gateway) RegisterRoutes(r *mux.Router) {
	for _, prefix := range []string{"/download", "/api/download"} {
		sr := r.PathPrefix(prefix).Subrouter()
		sr.Use(middleware.CORS(http.MethodGet))
		sr.Use(ratelimit.Middleware(g.limiter, middleware.ClientIP))
		sr.HandleFunc("/{token}", g.ServeDownload).Methods(http.MethodGet, http.MethodOptions)
	}
}

func (g *Gateway) ServeDownload(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	now := g.now()
	entry := logs.Logger.WithFields(logrus.Fields{
		"reqid": middleware.GetRequestID(r),
		"token": logs.Short(token),
		"ip":    middleware.ClientIP(r),
	})

	p, err := g.peers.ConsumeDownload(r.Context(), token, now)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		entry.Info("download: unknown token")
		http.Error(w, msgNotFound, http.StatusNotFound)
		return
	case errors.Is(err, repo.ErrDownloadUnavailable):
		status, msg := deny(p.DownloadState(now))
		entry.WithField("state", p.DownloadState(now).String()).Info("download: denied")
		g.access(r, p, status)
		http.Error(w, msg, status)
		return
	case err != nil:
		entry.WithError(err).Error("download: consume failed")
		models.WriteInternal(w, middleware.GetRequestID(r))
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+wireguard.ConfigFilename(p.Name)+`"`)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(p.ConfigText))

	entry.WithFields(logrus.Fields{"peer": p.ID, "count": p.DownloadCount}).Info("download: served")
	g.access(r, p, http.StatusOK)
}

func (g *Gateway) access(r *http.Request, p *models.Peer, status int) {
	g.rec.Access(models.AccessLog{
		Action:       "download",
		ResourceType: "peer",
		ResourceID:   p.ID,
		IP:           middleware.ClientIP(r),
		UserAgent:    r.UserAgent(),
		Status:       status,
	})
}

// deny сопоставляет состояние ссылки с кодом ответа.
func deny(s models.DownloadState) (int, string) {
	switch s {
	case models.DownloadDisabled:
		return http.StatusForbidden, msgDisabled
	case models.DownloadExpired:
		return http.StatusGone, msgExpired
	default:
		// exhausted, а также гонка, проигранная условному UPDATE
		return http.StatusTooManyRequests, msgExhausted
	}
}
