package provision

import (
	"context"
	"strconv"
	"strings"

	"wgnst/internal/tarball"
	"wgnst/internal/vpn/wireguard"
)

// Bundle собирает архив всех пиров шлюза (peers/*.conf и общий файл роутерных команд).
// Токены не расходуются.
func (s *Service) Bundle(ctx context.Context, clientID string) ([]byte, string, error) {
	client, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		return nil, "", err
	}
	peers, err := s.peers.ListPeers(ctx, clientID)
	if err != nil {
		return nil, "", err
	}

	files := make([]tarball.File, 0, len(peers)+1)
	var cmds strings.Builder
	// имя и ip пиров могут совпадать: повтор получает суффикс -2, -3, ...
	seen := make(map[string]int, len(peers))
	for _, p := range peers {
		base := wireguard.FileBase(p.Name) + "_" + p.IPAddress
		seen[base]++
		if n := seen[base]; n > 1 {
			base += "-" + strconv.Itoa(n)
		}
		name := "peers/" + base + ".conf"
		files = append(files, tarball.File{Name: name, Data: []byte(p.ConfigText), Mode: 0600})
		if p.RouterCommand != "" {
			cmds.WriteString(p.RouterCommand)
			if !strings.HasSuffix(p.RouterCommand, "\n") {
				cmds.WriteByte('\n')
			}
		}
	}
	router := "router/" + wireguard.FileBase(client.Interface) + s.opts.Dialect.Extension()
	files = append(files, tarball.File{Name: router, Data: []byte(cmds.String()), Mode: 0644})

	return tarball.Build(files)
}
