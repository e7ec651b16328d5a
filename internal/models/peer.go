package models

import "time"

const (
	PeerStatusActive    = "activo"
	PeerStatusInactive  = "inactivo"
	PeerStatusSuspended = "suspendido"
)

// ValidPeerStatus: допустимые значения статуса.
func ValidPeerStatus(s string) bool {
	switch s {
	case PeerStatusActive, PeerStatusInactive, PeerStatusSuspended:
		return true
	}
	return false
}

// Peer: выданная конфигурация WireGuard и её ссылка на скачивание.
// IsDownloadActive без default-тега: gorm иначе перетрёт явный false.
type Peer struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	ClientID      string    `gorm:"index;size:36;not null" json:"client_id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	IPAddress     string    `gorm:"column:ip_address;size:15;not null" json:"ip_address"`
	ConfigText    string    `gorm:"type:text;not null" json:"config_text"`
	RouterCommand string    `gorm:"type:text" json:"router_command"`
	QRCode        string    `gorm:"column:qr_code;type:text" json:"qr_code"`
	PrivateKey    string    `gorm:"size:64;not null" json:"-"`
	PublicKey     string    `gorm:"size:64;not null" json:"public_key"`
	Status        string    `gorm:"size:16;not null" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	DownloadToken     string     `gorm:"uniqueIndex;size:36;not null" json:"download_token"`
	DownloadCount     int        `gorm:"not null" json:"download_count"`
	DownloadLimit     *int       `json:"download_limit"`
	DownloadExpiresAt *time.Time `json:"download_expires_at"`
	IsDownloadActive  bool       `gorm:"not null" json:"is_download_active"`
}

// DownloadState: результат проверки ссылки на момент now.
type DownloadState int

const (
	DownloadServable DownloadState = iota
	DownloadDisabled
	DownloadExpired
	DownloadExhausted
)

func (s DownloadState) String() string {
	switch s {
	case DownloadServable:
		return "servable"
	case DownloadDisabled:
		return "disabled"
	case DownloadExpired:
		return "expired"
	case DownloadExhausted:
		return "exhausted"
	}
	return "unknown"
}

// DownloadState проверяет условия в фиксированном порядке:
// выключена → истекла → исчерпана.
func (p *Peer) DownloadState(now time.Time) DownloadState {
	if !p.IsDownloadActive {
		return DownloadDisabled
	}
	if p.DownloadExpiresAt != nil && !now.Before(*p.DownloadExpiresAt) {
		return DownloadExpired
	}
	if p.DownloadLimit != nil && p.DownloadCount >= *p.DownloadLimit {
		return DownloadExhausted
	}
	return DownloadServable
}
