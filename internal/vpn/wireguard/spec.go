package wireguard

import (
	"fmt"
	"net/netip"
	"strings"
)

const (
	// DefaultDNS и DefaultKeepalive зашиты в клиентский конфиг.
	DefaultDNS       = "1.1.1.1"
	DefaultKeepalive = 25
	DefaultPort      = 51820

	// DefaultAllowedIPs: только частные диапазоны (split tunnel), не 0.0.0.0/0.
	DefaultAllowedIPs = "10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16"
)

// ClientConfig: входные данные клиентского .conf.
type ClientConfig struct {
	PrivateKey      string
	Address         string // IPv4 пира без маски
	ServerPublicKey string
	Endpoint        string // хост шлюза без порта
	Port            string
	AllowedIPs      string // CSV как есть
}

// CheckAllowedIPs: непустой CSV из CIDR-префиксов, как в AllowedIPs конфига.
func CheckAllowedIPs(csv string) error {
	if strings.TrimSpace(csv) == "" {
		return fmt.Errorf("allowed ips must not be empty")
	}
	for _, part := range strings.Split(csv, ",") {
		if _, err := netip.ParsePrefix(strings.TrimSpace(part)); err != nil {
			return fmt.Errorf("invalid allowed ips prefix %q: %w", strings.TrimSpace(part), err)
		}
	}
	return nil
}
