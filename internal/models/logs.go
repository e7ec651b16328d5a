package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	AuditInsert = "INSERT"
	AuditUpdate = "UPDATE"
	AuditDelete = "DELETE"
)

// AccessLog: запись о каждом обращении к API и к скачиванию.
type AccessLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Subject      string    `gorm:"size:255;index" json:"subject,omitempty"`
	Action       string    `gorm:"size:64;not null" json:"action"`
	ResourceType string    `gorm:"size:64" json:"resource_type,omitempty"`
	ResourceID   string    `gorm:"size:64" json:"resource_id,omitempty"`
	IP           string    `gorm:"column:ip_address;size:64" json:"ip_address,omitempty"`
	UserAgent    string    `gorm:"size:512" json:"user_agent,omitempty"`
	Status       int       `json:"status,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// AuditLog хранит изменение записи, старые и новые значения.
type AuditLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Subject   string         `gorm:"size:255" json:"subject,omitempty"`
	Table     string         `gorm:"column:table_name;size:64;index:idx_audit_record,priority:1" json:"table_name"`
	RecordID  string         `gorm:"size:64;index:idx_audit_record,priority:2" json:"record_id"`
	Action    string         `gorm:"size:16;not null" json:"action"`
	OldValues datatypes.JSON `json:"old_values,omitempty"`
	NewValues datatypes.JSON `json:"new_values,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

// ActivityEntry: человекочитаемая лента действий.
type ActivityEntry struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Subject     string         `gorm:"size:255" json:"subject,omitempty"`
	ActionType  string         `gorm:"size:64;not null" json:"action_type"`
	Description string         `gorm:"size:1024" json:"description"`
	EntityType  string         `gorm:"size:64" json:"entity_type,omitempty"`
	EntityID    string         `gorm:"size:64" json:"entity_id,omitempty"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (ActivityEntry) TableName() string { return "activity_log" }
