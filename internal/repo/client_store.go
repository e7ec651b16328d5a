package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wgnst/internal/models"
)

func (s *GormStore) CreateClient(ctx context.Context, c *models.Client) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *GormStore) GetClient(ctx context.Context, id string) (*models.Client, error) {
	var c models.Client
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *GormStore) ListClients(ctx context.Context) ([]models.Client, error) {
	var out []models.Client
	err := s.db.WithContext(ctx).
		Order("display_order asc, created_at asc").
		Find(&out).Error
	return out, err
}

func (s *GormStore) UpdateClient(ctx context.Context, c *models.Client) error {
	c.UpdatedAt = time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&models.Client{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"name":           c.Name,
			"public_ip":      c.PublicIP,
			"public_key":     c.PublicKey,
			"interface_name": c.Interface,
			"listen_port":    c.ListenPort,
			"display_order":  c.DisplayOrder,
			"updated_at":     c.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteClient: каскад в одной транзакции (sqlite по умолчанию FK не проверяет).
func (s *GormStore) DeleteClient(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("client_id = ?", id).Delete(&models.Peer{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Client{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
