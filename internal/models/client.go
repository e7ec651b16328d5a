package models

import "time"

// Client: шлюз WireGuard, под которым создаются пиры.
type Client struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	PublicIP     string    `gorm:"column:public_ip;size:255;not null" json:"public_ip"`
	PublicKey    string    `gorm:"size:64;not null" json:"public_key"`
	Interface    string    `gorm:"column:interface_name;size:64;not null" json:"interface"`
	ListenPort   int       `gorm:"not null" json:"listen_port"`
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Port возвращает порт шлюза, 51820 если не задан.
func (c *Client) Port() int {
	if c.ListenPort == 0 {
		return 51820
	}
	return c.ListenPort
}
