package repo

import (
	"errors"

	"gorm.io/gorm"
)

// GormStore: реализация Store поверх gorm (postgres/mysql/sqlite).
type GormStore struct{ db *gorm.DB }

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

var _ Store = (*GormStore)(nil)

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
