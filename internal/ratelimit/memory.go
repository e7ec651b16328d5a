package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const idleTTL = 10 * time.Minute

type memEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter: token bucket на ключ (golang.org/x/time/rate),
// для одного экземпляра сервиса.
type MemoryLimiter struct {
	mu      sync.Mutex
	every   rate.Limit
	burst   int
	entries map[string]*memEntry
	calls   int
	now     func() time.Time
}

// NewMemoryLimiter: perMinute запросов в минуту на ключ, всплеск до perMinute.
func NewMemoryLimiter(perMinute int) *MemoryLimiter {
	return &MemoryLimiter{
		every:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
		entries: make(map[string]*memEntry),
		now:     time.Now,
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.calls++
	if m.calls%1024 == 0 {
		m.sweepLocked(now)
	}

	e, ok := m.entries[key]
	if !ok {
		e = &memEntry{lim: rate.NewLimiter(m.every, m.burst)}
		m.entries[key] = e
	}
	e.lastSeen = now

	if e.lim.AllowN(now, 1) {
		return Decision{Allowed: true}, nil
	}
	res := e.lim.ReserveN(now, 1)
	delay := res.DelayFrom(now)
	res.CancelAt(now)
	return Decision{Allowed: false, RetryAfter: delay}, nil
}

func (m *MemoryLimiter) sweepLocked(now time.Time) {
	for k, e := range m.entries {
		if now.Sub(e.lastSeen) > idleTTL {
			delete(m.entries, k)
		}
	}
}
