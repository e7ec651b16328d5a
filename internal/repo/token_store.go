package repo

import (
	"context"
	"time"

	"wgnst/internal/models"
)

func (s *GormStore) CreateToken(ctx context.Context, t *models.APIToken) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *GormStore) GetActiveToken(ctx context.Context, keyID string) (*models.APIToken, error) {
	var t models.APIToken
	err := s.db.WithContext(ctx).Where("key_id = ? AND revoked_at IS NULL", keyID).First(&t).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (s *GormStore) TouchToken(ctx context.Context, id uint, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.APIToken{}).Where("id = ?", id).
		UpdateColumn("last_used_at", at.UTC()).Error
}

func (s *GormStore) RevokeToken(ctx context.Context, keyID string) error {
	res := s.db.WithContext(ctx).Model(&models.APIToken{}).
		Where("key_id = ? AND revoked_at IS NULL", keyID).
		Update("revoked_at", time.Now().UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
