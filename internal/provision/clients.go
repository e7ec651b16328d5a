package provision

import (
	"context"

	"wgnst/internal/audit"
	"wgnst/internal/models"
	"wgnst/internal/vpn/wireguard"
)

// ClientInput: поля шлюза, редактируемые владельцем.
type ClientInput struct {
	Name         string `json:"name" validate:"required,max=255"`
	PublicIP     string `json:"public_ip" validate:"required,ipv4|hostname_rfc1123"`
	PublicKey    string `json:"public_key" validate:"required"`
	Interface    string `json:"interface" validate:"required,max=64"`
	ListenPort   int    `json:"listen_port" validate:"omitempty,min=1,max=65535"`
	DisplayOrder int    `json:"display_order" validate:"min=0"`
}

func (s *Service) validateClient(in ClientInput) error {
	extra := map[string]string{}
	if in.PublicKey != "" {
		if err := wireguard.ParseKey(in.PublicKey); err != nil {
			extra["public_key"] = "must be a base64-encoded 32-byte WireGuard key"
		}
	}
	return check(s.validate, in, extra)
}

func (in ClientInput) apply(c *models.Client) {
	c.Name = in.Name
	c.PublicIP = in.PublicIP
	c.PublicKey = in.PublicKey
	c.Interface = in.Interface
	c.ListenPort = in.ListenPort
	c.DisplayOrder = in.DisplayOrder
}

func (s *Service) CreateClient(ctx context.Context, in ClientInput) (*models.Client, error) {
	if err := s.validateClient(in); err != nil {
		return nil, err
	}
	c := &models.Client{}
	in.apply(c)
	if err := s.clients.CreateClient(ctx, c); err != nil {
		return nil, err
	}
	subject := audit.SubjectFrom(ctx)
	s.rec.Audit(subject, "clients", c.ID, models.AuditInsert, nil, c)
	s.rec.Activity(subject, "client_created", "created client "+c.Name, "client", c.ID, nil)
	return c, nil
}

func (s *Service) UpdateClient(ctx context.Context, id string, in ClientInput) (*models.Client, error) {
	if err := s.validateClient(in); err != nil {
		return nil, err
	}
	old, err := s.clients.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	c := *old
	in.apply(&c)
	if err := s.clients.UpdateClient(ctx, &c); err != nil {
		return nil, err
	}
	s.rec.Audit(audit.SubjectFrom(ctx), "clients", id, models.AuditUpdate, old, &c)
	return &c, nil
}

// DeleteClient удаляет шлюз и все его пиры.
func (s *Service) DeleteClient(ctx context.Context, id string) error {
	old, err := s.clients.GetClient(ctx, id)
	if err != nil {
		return err
	}
	if err := s.clients.DeleteClient(ctx, id); err != nil {
		return err
	}
	subject := audit.SubjectFrom(ctx)
	s.rec.Audit(subject, "clients", id, models.AuditDelete, old, nil)
	s.rec.Activity(subject, "client_deleted", "deleted client "+old.Name, "client", id, nil)
	return nil
}
