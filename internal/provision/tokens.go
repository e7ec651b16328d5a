package provision

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"wgnst/internal/audit"
	"wgnst/internal/logs"
	"wgnst/internal/models"
)

// RegenerateRequest: параметры новой ссылки. Пустой запрос берёт значения по умолчанию.
type RegenerateRequest struct {
	DownloadLimit *int `json:"download_limit" validate:"omitempty,min=1"`
	Unlimited     bool `json:"unlimited"`
	ExpiresHours  *int `json:"expires_hours" validate:"omitempty,min=1,max=8760"`
	NoExpiry      bool `json:"no_expiry"`
}

// RegenerateToken: единственный выход из expired/exhausted/disabled:
// новый токен, count=0, новые limit/expiry, active=true.
func (s *Service) RegenerateToken(ctx context.Context, peerID string, req RegenerateRequest) (*models.Peer, error) {
	if err := check(s.validate, req, nil); err != nil {
		return nil, err
	}
	old, err := s.peers.GetPeer(ctx, peerID)
	if err != nil {
		return nil, err
	}

	var limit *int
	if !req.Unlimited {
		v := s.opts.DefaultLimit
		if req.DownloadLimit != nil {
			v = *req.DownloadLimit
		}
		limit = &v
	}
	var expires *time.Time
	if !req.NoExpiry {
		ttl := s.opts.DefaultTTL
		if req.ExpiresHours != nil {
			ttl = time.Duration(*req.ExpiresHours) * time.Hour
		}
		v := s.now().Add(ttl)
		expires = &v
	}

	p, err := s.peers.ResetDownload(ctx, peerID, s.newToken(), limit, expires)
	if err != nil {
		return nil, err
	}

	subject := audit.SubjectFrom(ctx)
	s.rec.Audit(subject, "peers", p.ID, models.AuditUpdate, peerSnapshot(old), peerSnapshot(p))
	s.rec.Activity(subject, "token_regenerated", "regenerated download link for "+p.Name, "peer", p.ID, nil)
	logs.Logger.WithFields(logrus.Fields{
		"peer": p.ID, "token": logs.Short(p.DownloadToken),
	}).Info("provision: download token regenerated")
	return p, nil
}

// ToggleDownload переключает только is_download_active.
func (s *Service) ToggleDownload(ctx context.Context, peerID string) (*models.Peer, error) {
	p, err := s.peers.ToggleDownload(ctx, peerID)
	if err != nil {
		return nil, err
	}
	subject := audit.SubjectFrom(ctx)
	s.rec.Audit(subject, "peers", p.ID, models.AuditUpdate,
		map[string]any{"is_download_active": !p.IsDownloadActive},
		map[string]any{"is_download_active": p.IsDownloadActive})
	action := "download_disabled"
	if p.IsDownloadActive {
		action = "download_enabled"
	}
	s.rec.Activity(subject, action, action+" for "+p.Name, "peer", p.ID, nil)
	return p, nil
}
