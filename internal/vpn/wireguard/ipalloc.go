package wireguard

import (
	"encoding/binary"
	"fmt"
	"net/netip"
)

// OffsetIP прибавляет offset к IPv4-адресу как к uint32.
// Переполнение октетов и выход за подсеть не проверяются: 10.0.0.254 + 2 = 10.0.1.0,
// 255.255.255.255 + 1 = 0.0.0.0. Ошибка только на некорректном base.
func OffsetIP(base string, offset int) (string, error) {
	addr, err := ParseIPv4(base)
	if err != nil {
		return "", err
	}
	b := addr.As4()
	n := binary.BigEndian.Uint32(b[:]) + uint32(offset)
	binary.BigEndian.PutUint32(b[:], n)
	return netip.AddrFrom4(b).String(), nil
}

// ParseIPv4 принимает только dotted-quad IPv4 (без маски и зоны).
func ParseIPv4(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("invalid IPv4 address %q", s)
	}
	return addr, nil
}
