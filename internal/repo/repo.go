package repo

import (
	"context"
	"errors"
	"time"

	"wgnst/internal/models"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrDownloadUnavailable = errors.New("download unavailable")
)

// Clients: хранилище шлюзов.
type Clients interface {
	CreateClient(ctx context.Context, c *models.Client) error
	GetClient(ctx context.Context, id string) (*models.Client, error)
	ListClients(ctx context.Context) ([]models.Client, error)
	UpdateClient(ctx context.Context, c *models.Client) error
	// DeleteClient удаляет шлюз вместе со всеми его пирами.
	DeleteClient(ctx context.Context, id string) error
}

// PeerPatch: редактируемые владельцем поля пира.
type PeerPatch struct {
	Name   *string
	Status *string
}

// Peers: хранилище пиров и их ссылок на скачивание.
type Peers interface {
	CreatePeer(ctx context.Context, p *models.Peer) error
	GetPeer(ctx context.Context, id string) (*models.Peer, error)
	GetPeerByToken(ctx context.Context, token string) (*models.Peer, error)
	// ListPeers с пустым clientID отдаёт все пиры.
	ListPeers(ctx context.Context, clientID string) ([]models.Peer, error)
	UpdatePeer(ctx context.Context, id string, patch PeerPatch) (*models.Peer, error)
	DeletePeer(ctx context.Context, id string) error

	// ResetDownload выдаёт новый токен: count=0, active=true.
	ResetDownload(ctx context.Context, id, token string, limit *int, expiresAt *time.Time) (*models.Peer, error)
	// ToggleDownload меняет только is_download_active.
	ToggleDownload(ctx context.Context, id string) (*models.Peer, error)
	// ConsumeDownload атомарно проверяет ссылку и увеличивает счётчик.
	// Если ссылка недоступна: текущее состояние пира и ErrDownloadUnavailable.
	ConsumeDownload(ctx context.Context, token string, now time.Time) (*models.Peer, error)
}

// AuditFilter: фильтр выборки журнала изменений.
type AuditFilter struct {
	Table    string
	RecordID string
	Limit    int
}

// Logs: журналы доступа, изменений и активности.
type Logs interface {
	AddAccessLog(ctx context.Context, e *models.AccessLog) error
	AddAuditLog(ctx context.Context, e *models.AuditLog) error
	AddActivity(ctx context.Context, e *models.ActivityEntry) error
	ListAccessLogs(ctx context.Context, limit int) ([]models.AccessLog, error)
	ListAuditLogs(ctx context.Context, f AuditFilter) ([]models.AuditLog, error)
	ListActivity(ctx context.Context, limit int) ([]models.ActivityEntry, error)
}

// Tokens: API-токены management API.
type Tokens interface {
	CreateToken(ctx context.Context, t *models.APIToken) error
	GetActiveToken(ctx context.Context, keyID string) (*models.APIToken, error)
	TouchToken(ctx context.Context, id uint, at time.Time) error
	RevokeToken(ctx context.Context, keyID string) error
}

// Store: всё хранилище сервиса.
type Store interface {
	Clients
	Peers
	Logs
	Tokens
}

const defaultListLimit = 50
const maxListLimit = 500

// ClampLimit приводит limit к диапазону 1..500, 0: значение по умолчанию.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	}
	return limit
}
