package repo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"wgnst/internal/models"
)

// MemStore: in-memory Store для режима без БД и тестов.
type MemStore struct {
	mu       sync.RWMutex
	seq      int
	clients  map[string]*models.Client
	peers    map[string]*models.Peer
	peerSeq  map[string]int // порядок вставки
	byToken  map[string]string
	access   []models.AccessLog
	audit    []models.AuditLog
	activity []models.ActivityEntry
	tokens   map[string]*models.APIToken
	tokenSeq uint
}

func NewMemStore() *MemStore {
	return &MemStore{
		clients: make(map[string]*models.Client),
		peers:   make(map[string]*models.Peer),
		peerSeq: make(map[string]int),
		byToken: make(map[string]string),
		tokens:  make(map[string]*models.APIToken),
	}
}

var _ Store = (*MemStore)(nil)

func clonePeer(p *models.Peer) *models.Peer {
	cp := *p
	if p.DownloadLimit != nil {
		v := *p.DownloadLimit
		cp.DownloadLimit = &v
	}
	if p.DownloadExpiresAt != nil {
		v := *p.DownloadExpiresAt
		cp.DownloadExpiresAt = &v
	}
	return &cp
}

// -------- clients --------

func (m *MemStore) CreateClient(_ context.Context, c *models.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, ok := m.clients[c.ID]; ok {
		return fmt.Errorf("client %s already exists", c.ID)
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	cp := *c
	m.clients[c.ID] = &cp
	return nil
}

func (m *MemStore) GetClient(_ context.Context, id string) (*models.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemStore) ListClients(_ context.Context) ([]models.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Client, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemStore) UpdateClient(_ context.Context, c *models.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.clients[c.ID]
	if !ok {
		return ErrNotFound
	}
	c.CreatedAt = cur.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	cp := *c
	m.clients[c.ID] = &cp
	return nil
}

func (m *MemStore) DeleteClient(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[id]; !ok {
		return ErrNotFound
	}
	for pid, p := range m.peers {
		if p.ClientID == id {
			m.dropPeerLocked(pid)
		}
	}
	delete(m.clients, id)
	return nil
}

// -------- peers --------

func (m *MemStore) CreatePeer(_ context.Context, p *models.Peer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, ok := m.byToken[p.DownloadToken]; ok {
		return fmt.Errorf("duplicate download token")
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	m.seq++
	m.peers[p.ID] = clonePeer(p)
	m.peerSeq[p.ID] = m.seq
	m.byToken[p.DownloadToken] = p.ID
	return nil
}

func (m *MemStore) GetPeer(_ context.Context, id string) (*models.Peer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.peers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePeer(p), nil
}

func (m *MemStore) GetPeerByToken(_ context.Context, token string) (*models.Peer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePeer(m.peers[id]), nil
}

func (m *MemStore) ListPeers(_ context.Context, clientID string) ([]models.Peer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Peer, 0)
	for _, p := range m.peers {
		if clientID == "" || p.ClientID == clientID {
			out = append(out, *clonePeer(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.peerSeq[out[i].ID] < m.peerSeq[out[j].ID] })
	return out, nil
}

func (m *MemStore) UpdatePeer(_ context.Context, id string, patch PeerPatch) (*models.Peer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.peers[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	p.UpdatedAt = time.Now().UTC()
	return clonePeer(p), nil
}

func (m *MemStore) DeletePeer(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.peers[id]; !ok {
		return ErrNotFound
	}
	m.dropPeerLocked(id)
	return nil
}

func (m *MemStore) dropPeerLocked(id string) {
	if p, ok := m.peers[id]; ok {
		delete(m.byToken, p.DownloadToken)
	}
	delete(m.peers, id)
	delete(m.peerSeq, id)
}

func (m *MemStore) ResetDownload(_ context.Context, id, token string, limit *int, expiresAt *time.Time) (*models.Peer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.peers[id]
	if !ok {
		return nil, ErrNotFound
	}
	if _, taken := m.byToken[token]; taken {
		return nil, fmt.Errorf("duplicate download token")
	}
	delete(m.byToken, p.DownloadToken)
	p.DownloadToken = token
	p.DownloadCount = 0
	p.DownloadLimit = nil
	if limit != nil {
		v := *limit
		p.DownloadLimit = &v
	}
	p.DownloadExpiresAt = nil
	if expiresAt != nil {
		v := expiresAt.UTC()
		p.DownloadExpiresAt = &v
	}
	p.IsDownloadActive = true
	p.UpdatedAt = time.Now().UTC()
	m.byToken[token] = id
	return clonePeer(p), nil
}

func (m *MemStore) ToggleDownload(_ context.Context, id string) (*models.Peer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.peers[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.IsDownloadActive = !p.IsDownloadActive
	return clonePeer(p), nil
}

// ConsumeDownload: проверка и инкремент под одной блокировкой.
func (m *MemStore) ConsumeDownload(_ context.Context, token string, now time.Time) (*models.Peer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byToken[token]
	if !ok {
		return nil, ErrNotFound
	}
	p := m.peers[id]
	if p.DownloadState(now) != models.DownloadServable {
		return clonePeer(p), ErrDownloadUnavailable
	}
	p.DownloadCount++
	return clonePeer(p), nil
}

// -------- logs --------

func (m *MemStore) AddAccessLog(_ context.Context, e *models.AccessLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uint(len(m.access) + 1)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m.access = append(m.access, *e)
	return nil
}

func (m *MemStore) AddAuditLog(_ context.Context, e *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uint(len(m.audit) + 1)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m.audit = append(m.audit, *e)
	return nil
}

func (m *MemStore) AddActivity(_ context.Context, e *models.ActivityEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uint(len(m.activity) + 1)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m.activity = append(m.activity, *e)
	return nil
}

// newestFirst обходит журнал с конца, отбирая до limit записей.
func newestFirst[T any](src []T, limit int, keep func(T) bool) []T {
	out := make([]T, 0)
	for i := len(src) - 1; i >= 0 && len(out) < limit; i-- {
		if keep == nil || keep(src[i]) {
			out = append(out, src[i])
		}
	}
	return out
}

func (m *MemStore) ListAccessLogs(_ context.Context, limit int) ([]models.AccessLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newestFirst(m.access, ClampLimit(limit), nil), nil
}

func (m *MemStore) ListAuditLogs(_ context.Context, f AuditFilter) ([]models.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newestFirst(m.audit, ClampLimit(f.Limit), func(e models.AuditLog) bool {
		return (f.Table == "" || e.Table == f.Table) && (f.RecordID == "" || e.RecordID == f.RecordID)
	}), nil
}

func (m *MemStore) ListActivity(_ context.Context, limit int) ([]models.ActivityEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return newestFirst(m.activity, ClampLimit(limit), nil), nil
}

// -------- tokens --------

func (m *MemStore) CreateToken(_ context.Context, t *models.APIToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[t.KeyID]; ok {
		return fmt.Errorf("token key id %s already exists", t.KeyID)
	}
	m.tokenSeq++
	t.ID = m.tokenSeq
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	cp := *t
	m.tokens[t.KeyID] = &cp
	return nil
}

func (m *MemStore) GetActiveToken(_ context.Context, keyID string) (*models.APIToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tokens[keyID]
	if !ok || t.RevokedAt != nil {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MemStore) TouchToken(_ context.Context, id uint, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.ID == id {
			v := at.UTC()
			t.LastUsedAt = &v
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemStore) RevokeToken(_ context.Context, keyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[keyID]
	if !ok || t.RevokedAt != nil {
		return ErrNotFound
	}
	now := time.Now().UTC()
	t.RevokedAt = &now
	return nil
}
