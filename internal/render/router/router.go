// Package router рендерит однострочную команду добавления пира на шлюзе.
package router

import (
	"fmt"
	"strings"
)

type Dialect string

const (
	MikroTik Dialect = "mikrotik"
	OpenWrt  Dialect = "openwrt"
)

// Peer: то, что нужно шлюзу, чтобы принять пира.
type Peer struct {
	Address   string // IPv4 без маски
	PublicKey string
	Interface string
	Comment   string // имя пира
}

// ParseDialect: пустая строка означает MikroTik.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(s))) {
	case "", MikroTik:
		return MikroTik, nil
	case OpenWrt:
		return OpenWrt, nil
	default:
		return "", fmt.Errorf("unsupported router dialect: %s", s)
	}
}

// Render: чистая функция, вывод заканчивается переводом строки.
func Render(d Dialect, p Peer) (string, error) {
	switch d {
	case "", MikroTik:
		return renderMikroTik(p), nil
	case OpenWrt:
		return renderOpenWrt(p), nil
	default:
		return "", fmt.Errorf("unsupported router dialect: %s", d)
	}
}

// Extension: расширение файла команды в экспортируемом архиве.
func (d Dialect) Extension() string {
	if d == OpenWrt {
		return ".sh"
	}
	return ".rsc"
}

// ===== mikrotik =====

// RouterOS: строки в двойных кавычках, \ и " экранируются обратным слешем.
func dq(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

func renderMikroTik(p Peer) string {
	var b strings.Builder
	b.WriteString("/interface wireguard peers add")
	fmt.Fprintf(&b, " allowed-address=%s/32", p.Address)
	fmt.Fprintf(&b, " interface=%s", p.Interface)
	fmt.Fprintf(&b, " public-key=\"%s\"", dq(p.PublicKey))
	fmt.Fprintf(&b, " comment=\"%s\"", dq(p.Comment))
	b.WriteString(" responder=yes\n")
	return b.String()
}

// ===== openwrt =====

// uci: значения в одинарных кавычках, ' закрывает/открывает кавычку.
func sq(s string) string {
	s = strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func renderOpenWrt(p Peer) string {
	section := "wireguard_" + p.Interface
	ref := "network.@" + section + "[-1]"
	cmds := []string{
		"uci add network " + section,
		"uci set " + ref + ".description=" + sq(p.Comment),
		"uci set " + ref + ".public_key=" + sq(p.PublicKey),
		"uci add_list " + ref + ".allowed_ips=" + sq(p.Address+"/32"),
		"uci commit network",
	}
	return strings.Join(cmds, " && ") + "\n"
}
