package models

import "time"

// APIToken: ключ доступа к management API. Храним только argon2-хэш секрета.
type APIToken struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Name       string     `gorm:"size:255;not null" json:"name"`
	Subject    string     `gorm:"size:255;not null" json:"subject"`
	KeyID      string     `gorm:"size:16;not null;uniqueIndex" json:"key_id"` // короткий человекочитаемый id
	SecretHash []byte     `gorm:"not null" json:"-"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	RevokedAt  *time.Time `gorm:"index" json:"revoked_at,omitempty"`
}
