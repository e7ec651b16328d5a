package repo

import (
	"context"
	"time"

	"wgnst/internal/models"
)

func (s *GormStore) AddAccessLog(ctx context.Context, e *models.AccessLog) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(e).Error
}

func (s *GormStore) AddAuditLog(ctx context.Context, e *models.AuditLog) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(e).Error
}

func (s *GormStore) AddActivity(ctx context.Context, e *models.ActivityEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(e).Error
}

func (s *GormStore) ListAccessLogs(ctx context.Context, limit int) ([]models.AccessLog, error) {
	var out []models.AccessLog
	err := s.db.WithContext(ctx).Order("created_at desc, id desc").Limit(ClampLimit(limit)).Find(&out).Error
	return out, err
}

func (s *GormStore) ListAuditLogs(ctx context.Context, f AuditFilter) ([]models.AuditLog, error) {
	q := s.db.WithContext(ctx).Order("created_at desc, id desc").Limit(ClampLimit(f.Limit))
	if f.Table != "" {
		q = q.Where("table_name = ?", f.Table)
	}
	if f.RecordID != "" {
		q = q.Where("record_id = ?", f.RecordID)
	}
	var out []models.AuditLog
	return out, q.Find(&out).Error
}

func (s *GormStore) ListActivity(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	var out []models.ActivityEntry
	err := s.db.WithContext(ctx).Order("created_at desc, id desc").Limit(ClampLimit(limit)).Find(&out).Error
	return out, err
}
