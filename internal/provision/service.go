// Package provision создаёт пиры WireGuard и управляет их ссылками на скачивание.
package provision

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"wgnst/internal/audit"
	"wgnst/internal/models"
	"wgnst/internal/qr"
	"wgnst/internal/render/router"
	"wgnst/internal/repo"
	"wgnst/internal/vpn/wireguard"
)

const (
	MaxBatch = 256

	DefaultLimit = 1
	DefaultTTL   = 24 * time.Hour
)

// KeySource: источник ключевых пар (подменяется в тестах).
type KeySource interface {
	Generate() (wireguard.Keypair, error)
}

type Options struct {
	PublicBaseURL string
	DefaultLimit  int
	DefaultTTL    time.Duration
	AllowedIPs    string
	DefaultPort   int
	Dialect       router.Dialect
}

type Service struct {
	clients  repo.Clients
	peers    repo.Peers
	qr       *qr.Producer
	rec      *audit.Recorder
	opts     Options
	keys     KeySource
	now      func() time.Time
	newToken func() string
	validate *validator.Validate
}

func New(clients repo.Clients, peers repo.Peers, qrp *qr.Producer, rec *audit.Recorder, opts Options) *Service {
	if opts.DefaultLimit < 1 {
		opts.DefaultLimit = DefaultLimit
	}
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = DefaultTTL
	}
	if opts.DefaultPort == 0 {
		opts.DefaultPort = wireguard.DefaultPort
	}
	if opts.AllowedIPs == "" {
		opts.AllowedIPs = wireguard.DefaultAllowedIPs
	}
	if opts.Dialect == "" {
		opts.Dialect = router.MikroTik
	}
	return &Service{
		clients:  clients,
		peers:    peers,
		qr:       qrp,
		rec:      rec,
		opts:     opts,
		keys:     wireguard.NewKeyGenerator(),
		now:      func() time.Time { return time.Now().UTC() },
		newToken: uuid.NewString,
		validate: newValidator(),
	}
}

// DownloadURL: публичная ссылка для токена.
func (s *Service) DownloadURL(token string) string {
	return strings.TrimRight(s.opts.PublicBaseURL, "/") + "/download/" + token
}

// Dialect: диалект роутерных команд этого сервиса.
func (s *Service) Dialect() router.Dialect { return s.opts.Dialect }

// Descriptor: состояние ссылки на скачивание для ответа владельцу.
type Descriptor struct {
	DownloadToken    string     `json:"download_token"`
	DownloadURL      string     `json:"download_url"`
	DownloadCount    int        `json:"download_count"`
	DownloadLimit    *int       `json:"download_limit"`
	ExpiresAt        *time.Time `json:"expires_at"`
	IsDownloadActive bool       `json:"is_download_active"`
	State            string     `json:"state"`
}

func (s *Service) Describe(p *models.Peer) Descriptor {
	return Descriptor{
		DownloadToken:    p.DownloadToken,
		DownloadURL:      s.DownloadURL(p.DownloadToken),
		DownloadCount:    p.DownloadCount,
		DownloadLimit:    p.DownloadLimit,
		ExpiresAt:        p.DownloadExpiresAt,
		IsDownloadActive: p.IsDownloadActive,
		State:            p.DownloadState(s.now()).String(),
	}
}

// снимок пира для журнала изменений: без ключей и текста конфига
func peerSnapshot(p *models.Peer) map[string]any {
	return map[string]any{
		"id":                  p.ID,
		"client_id":           p.ClientID,
		"name":                p.Name,
		"ip_address":          p.IPAddress,
		"public_key":          p.PublicKey,
		"status":              p.Status,
		"download_count":      p.DownloadCount,
		"download_limit":      p.DownloadLimit,
		"download_expires_at": p.DownloadExpiresAt,
		"is_download_active":  p.IsDownloadActive,
	}
}
