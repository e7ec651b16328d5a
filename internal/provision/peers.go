package provision

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"

	"wgnst/internal/audit"
	"wgnst/internal/logs"
	"wgnst/internal/models"
	"wgnst/internal/render/router"
	"wgnst/internal/repo"
	"wgnst/internal/vpn/wireguard"
)

// CreateRequest: запрос на создание одного пира или пакета.
type CreateRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	BaseIP     string `json:"base_ip" validate:"required,ipv4"`
	Endpoint   string `json:"endpoint" validate:"omitempty,ipv4|hostname_rfc1123"`
	Port       int    `json:"port" validate:"omitempty,min=1,max=65535"`
	AllowedIPs string `json:"allowed_ips" validate:"omitempty,max=1024"`
	Multiple   bool   `json:"multiple"`
	Count      int    `json:"count"` // только при multiple, 1..MaxBatch
}

func (s *Service) validateCreate(req CreateRequest) error {
	extra := map[string]string{}
	// без multiple count игнорируется
	if req.Multiple && (req.Count < 1 || req.Count > MaxBatch) {
		extra["count"] = fmt.Sprintf("must be between 1 and %d when multiple is set", MaxBatch)
	}
	if req.AllowedIPs != "" && wireguard.CheckAllowedIPs(req.AllowedIPs) != nil {
		extra["allowed_ips"] = "must be a comma-separated list of CIDR prefixes"
	}
	return check(s.validate, req, extra)
}

// CreatePeers создаёт пиры последовательно. Каждый пир: отдельная единица
// работы: при сбое на k-м пире пиры 0..k-1 остаются, возвращается *BatchError.
func (s *Service) CreatePeers(ctx context.Context, clientID string, req CreateRequest) ([]*models.Peer, error) {
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}
	client, err := s.clients.GetClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("client %s: %w", clientID, err)
	}

	count := 1
	if req.Multiple {
		count = req.Count
	}
	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = client.PublicIP
	}
	port := req.Port
	if port == 0 {
		port = client.ListenPort
	}
	if port == 0 {
		port = s.opts.DefaultPort
	}
	allowed := req.AllowedIPs
	if allowed == "" {
		allowed = s.opts.AllowedIPs
	}

	subject := audit.SubjectFrom(ctx)
	created := make([]*models.Peer, 0, count)
	for i := 0; i < count; i++ {
		name, ip := req.Name, req.BaseIP
		if req.Multiple {
			name = req.Name + "-" + strconv.Itoa(i+1)
		}
		// отмена клиента между итерациями: уже созданные пиры остаются
		if err := ctx.Err(); err != nil {
			return created, &BatchError{Index: i, Name: name, Err: err}
		}
		if req.Multiple {
			if ip, err = wireguard.OffsetIP(req.BaseIP, i); err != nil {
				return created, &BatchError{Index: i, Name: name, Err: err}
			}
		}

		p, err := s.buildPeer(ctx, client, name, ip, endpoint, port, allowed)
		if err == nil {
			err = s.peers.CreatePeer(ctx, p)
		}
		if err != nil {
			logs.Logger.WithFields(logrus.Fields{
				"client": clientID, "index": i, "name": name, "err": err,
			}).Error("provision: peer creation failed")
			return created, &BatchError{Index: i, Name: name, Err: err}
		}
		created = append(created, p)

		s.rec.Activity(subject, "peer_created",
			fmt.Sprintf("created peer %s (%s) on client %s", p.Name, p.IPAddress, client.Name),
			"peer", p.ID, map[string]any{"client_id": client.ID, "ip_address": p.IPAddress})
		s.rec.Audit(subject, "peers", p.ID, models.AuditInsert, nil, peerSnapshot(p))
	}

	logs.Logger.WithFields(logrus.Fields{
		"client": clientID, "count": len(created),
	}).Info("provision: peers created")
	return created, nil
}

// buildPeer полностью вычисляет поля пира до сохранения.
func (s *Service) buildPeer(ctx context.Context, client *models.Client, name, ip, endpoint string, port int, allowed string) (*models.Peer, error) {
	kp, err := s.keys.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	conf := wireguard.RenderClientConfig(wireguard.ClientConfig{
		PrivateKey:      kp.PrivateKey,
		Address:         ip,
		ServerPublicKey: client.PublicKey,
		Endpoint:        endpoint,
		Port:            strconv.Itoa(port),
		AllowedIPs:      allowed,
	})
	cmd, err := router.Render(s.opts.Dialect, router.Peer{
		Address:   ip,
		PublicKey: kp.PublicKey,
		Interface: client.Interface,
		Comment:   name,
	})
	if err != nil {
		return nil, fmt.Errorf("render router command: %w", err)
	}
	img := s.qr.Render(ctx, conf)

	limit := s.opts.DefaultLimit
	expires := s.now().Add(s.opts.DefaultTTL)
	return &models.Peer{
		ClientID:          client.ID,
		Name:              name,
		IPAddress:         ip,
		ConfigText:        conf,
		RouterCommand:     cmd,
		QRCode:            img.Ref,
		PrivateKey:        kp.PrivateKey,
		PublicKey:         kp.PublicKey,
		Status:            models.PeerStatusActive,
		DownloadToken:     s.newToken(),
		DownloadCount:     0,
		DownloadLimit:     &limit,
		DownloadExpiresAt: &expires,
		IsDownloadActive:  true,
	}, nil
}

// PeerUpdate: правка имени/статуса владельцем.
type PeerUpdate struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=200"`
	Status *string `json:"status" validate:"omitempty,oneof=activo inactivo suspendido"`
}

func (s *Service) UpdatePeer(ctx context.Context, id string, in PeerUpdate) (*models.Peer, error) {
	if err := check(s.validate, in, nil); err != nil {
		return nil, err
	}
	old, err := s.peers.GetPeer(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.peers.UpdatePeer(ctx, id, repo.PeerPatch{Name: in.Name, Status: in.Status})
	if err != nil {
		return nil, err
	}
	s.rec.Audit(audit.SubjectFrom(ctx), "peers", id, models.AuditUpdate, peerSnapshot(old), peerSnapshot(p))
	return p, nil
}

func (s *Service) DeletePeer(ctx context.Context, id string) error {
	old, err := s.peers.GetPeer(ctx, id)
	if err != nil {
		return err
	}
	if err := s.peers.DeletePeer(ctx, id); err != nil {
		return err
	}
	subject := audit.SubjectFrom(ctx)
	s.rec.Audit(subject, "peers", id, models.AuditDelete, peerSnapshot(old), nil)
	s.rec.Activity(subject, "peer_deleted", "deleted peer "+old.Name, "peer", id, nil)
	return nil
}
