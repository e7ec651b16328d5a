package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestPeerDownloadState(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Second)

	cases := []struct {
		name string
		peer Peer
		want DownloadState
	}{
		{"fresh", Peer{IsDownloadActive: true, DownloadLimit: intPtr(1), DownloadExpiresAt: &future}, DownloadServable},
		{"unlimited no expiry", Peer{IsDownloadActive: true, DownloadCount: 1000}, DownloadServable},
		{"disabled", Peer{IsDownloadActive: false, DownloadLimit: intPtr(1)}, DownloadDisabled},
		{"expired", Peer{IsDownloadActive: true, DownloadExpiresAt: &past}, DownloadExpired},
		{"expires exactly now", Peer{IsDownloadActive: true, DownloadExpiresAt: &now}, DownloadExpired},
		{"exhausted", Peer{IsDownloadActive: true, DownloadCount: 1, DownloadLimit: intPtr(1)}, DownloadExhausted},
		// порядок проверок: выключение важнее срока и лимита
		{"disabled beats expired and exhausted", Peer{DownloadCount: 5, DownloadLimit: intPtr(1), DownloadExpiresAt: &past}, DownloadDisabled},
		{"expired beats exhausted", Peer{IsDownloadActive: true, DownloadCount: 5, DownloadLimit: intPtr(1), DownloadExpiresAt: &past}, DownloadExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.peer.DownloadState(now))
		})
	}
}

func TestClientPortDefault(t *testing.T) {
	assert.Equal(t, 51820, (&Client{}).Port())
	assert.Equal(t, 13231, (&Client{ListenPort: 13231}).Port())
}

func TestValidPeerStatus(t *testing.T) {
	assert.True(t, ValidPeerStatus(PeerStatusActive))
	assert.True(t, ValidPeerStatus(PeerStatusSuspended))
	assert.False(t, ValidPeerStatus("deleted"))
}
