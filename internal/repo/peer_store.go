package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wgnst/internal/models"
)

func (s *GormStore) CreatePeer(ctx context.Context, p *models.Peer) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *GormStore) GetPeer(ctx context.Context, id string) (*models.Peer, error) {
	var p models.Peer
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *GormStore) GetPeerByToken(ctx context.Context, token string) (*models.Peer, error) {
	var p models.Peer
	if err := s.db.WithContext(ctx).Where("download_token = ?", token).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (s *GormStore) ListPeers(ctx context.Context, clientID string) ([]models.Peer, error) {
	q := s.db.WithContext(ctx).Order("created_at asc, ip_address asc")
	if clientID != "" {
		q = q.Where("client_id = ?", clientID)
	}
	var out []models.Peer
	return out, q.Find(&out).Error
}

func (s *GormStore) UpdatePeer(ctx context.Context, id string, patch PeerPatch) (*models.Peer, error) {
	upd := map[string]any{"updated_at": time.Now().UTC()}
	if patch.Name != nil {
		upd["name"] = *patch.Name
	}
	if patch.Status != nil {
		upd["status"] = *patch.Status
	}
	res := s.db.WithContext(ctx).Model(&models.Peer{}).Where("id = ?", id).Updates(upd)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetPeer(ctx, id)
}

func (s *GormStore) DeletePeer(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Peer{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ResetDownload(ctx context.Context, id, token string, limit *int, expiresAt *time.Time) (*models.Peer, error) {
	// map, чтобы nil в limit/expires реально записался как NULL
	res := s.db.WithContext(ctx).Model(&models.Peer{}).Where("id = ?", id).
		Updates(map[string]any{
			"download_token":      token,
			"download_count":      0,
			"download_limit":      limit,
			"download_expires_at": expiresAt,
			"is_download_active":  true,
			"updated_at":          time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetPeer(ctx, id)
}

func (s *GormStore) ToggleDownload(ctx context.Context, id string) (*models.Peer, error) {
	res := s.db.WithContext(ctx).Model(&models.Peer{}).Where("id = ?", id).
		UpdateColumn("is_download_active", gorm.Expr("NOT is_download_active"))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetPeer(ctx, id)
}

// ConsumeDownload делает один условный UPDATE, поэтому из N параллельных запросов при лимите K
// проходят ровно min(N, K). Перечитываем по id в той же транзакции: токен к этому
// моменту мог смениться.
func (s *GormStore) ConsumeDownload(ctx context.Context, token string, now time.Time) (*models.Peer, error) {
	now = now.UTC()
	var (
		p        models.Peer
		consumed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("download_token = ?", token).First(&p).Error; err != nil {
			return notFound(err)
		}
		res := tx.Model(&models.Peer{}).
			Where("id = ? AND download_token = ? AND is_download_active = ?", p.ID, token, true).
			Where("(download_expires_at IS NULL OR download_expires_at > ?)", now).
			Where("(download_limit IS NULL OR download_count < download_limit)").
			UpdateColumn("download_count", gorm.Expr("download_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		consumed = res.RowsAffected > 0
		id := p.ID
		p = models.Peer{}
		return notFound(tx.Where("id = ?", id).First(&p).Error)
	})
	if err != nil {
		return nil, err
	}
	if !consumed {
		return &p, ErrDownloadUnavailable
	}
	return &p, nil
}
