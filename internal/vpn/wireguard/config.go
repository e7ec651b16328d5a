package wireguard

import (
	"fmt"
	"strings"
)

// RenderClientConfig рендерит INI-конфиг клиента. Чистая функция:
// одинаковый вход даёт побайтно одинаковый вывод.
func RenderClientConfig(c ClientConfig) string {
	allowed := strings.TrimSpace(c.AllowedIPs)
	if allowed == "" {
		allowed = DefaultAllowedIPs
	}
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = fmt.Sprint(DefaultPort)
	}

	var b strings.Builder
	b.WriteString("[Interface]\n")
	fmt.Fprintf(&b, "PrivateKey = %s\n", c.PrivateKey)
	fmt.Fprintf(&b, "Address = %s/32\n", c.Address)
	fmt.Fprintf(&b, "DNS = %s\n", DefaultDNS)
	b.WriteString("\n[Peer]\n")
	fmt.Fprintf(&b, "PublicKey = %s\n", c.ServerPublicKey)
	fmt.Fprintf(&b, "AllowedIPs = %s\n", allowed)
	fmt.Fprintf(&b, "Endpoint = %s:%s\n", c.Endpoint, port)
	fmt.Fprintf(&b, "PersistentKeepalive = %d\n", DefaultKeepalive)
	return b.String()
}
