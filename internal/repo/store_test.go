package repo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"wgnst/internal/db"
	"wgnst/internal/models"
)

func newSQLiteStore(t *testing.T) *GormStore {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	gdb, err := db.Open("sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewGormStore(gdb)
}

// каждый сценарий гоняем на обеих реализациях
func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemStore()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, newSQLiteStore(t)) })
}

func intPtr(v int) *int { return &v }

func seedClient(t *testing.T, s Store) *models.Client {
	t.Helper()
	c := &models.Client{
		Name:      "office",
		PublicIP:  "203.0.113.10",
		PublicKey: "xTIBA5rboUvnH4htodjb6e697QjLERt1NAB4mZqp8Dg=",
		Interface: "wg0",
	}
	require.NoError(t, s.CreateClient(context.Background(), c))
	return c
}

func seedPeer(t *testing.T, s Store, clientID string, limit *int, expires *time.Time) *models.Peer {
	t.Helper()
	p := &models.Peer{
		ClientID:          clientID,
		Name:              "laptop",
		IPAddress:         "10.0.0.5",
		ConfigText:        "[Interface]\n",
		PrivateKey:        "priv",
		PublicKey:         "pub",
		Status:            models.PeerStatusActive,
		DownloadToken:     uuid.NewString(),
		DownloadLimit:     limit,
		DownloadExpiresAt: expires,
		IsDownloadActive:  true,
	}
	require.NoError(t, s.CreatePeer(context.Background(), p))
	return p
}

func TestClientCRUD(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		c := seedClient(t, s)
		require.NotEmpty(t, c.ID)

		got, err := s.GetClient(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "office", got.Name)

		got.Name = "branch"
		got.ListenPort = 13231
		require.NoError(t, s.UpdateClient(ctx, got))
		got, err = s.GetClient(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "branch", got.Name)
		assert.Equal(t, 13231, got.ListenPort)

		list, err := s.ListClients(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		_, err = s.GetClient(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.UpdateClient(ctx, &models.Client{ID: "missing", Name: "x"}), ErrNotFound)
	})
}

func TestDeleteClientCascadesPeers(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		c := seedClient(t, s)
		other := seedClient(t, s)
		p1 := seedPeer(t, s, c.ID, intPtr(1), nil)
		seedPeer(t, s, c.ID, intPtr(1), nil)
		keep := seedPeer(t, s, other.ID, intPtr(1), nil)

		require.NoError(t, s.DeleteClient(ctx, c.ID))

		_, err := s.GetPeer(ctx, p1.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.GetPeerByToken(ctx, p1.DownloadToken)
		assert.ErrorIs(t, err, ErrNotFound)

		all, err := s.ListPeers(ctx, "")
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, keep.ID, all[0].ID)

		assert.ErrorIs(t, s.DeleteClient(ctx, c.ID), ErrNotFound)
	})
}

func TestPeerListAndPatch(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		c := seedClient(t, s)
		p := seedPeer(t, s, c.ID, intPtr(1), nil)

		list, err := s.ListPeers(ctx, c.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)

		list, err = s.ListPeers(ctx, "other")
		require.NoError(t, err)
		assert.Empty(t, list)

		name, status := "phone", models.PeerStatusSuspended
		upd, err := s.UpdatePeer(ctx, p.ID, PeerPatch{Name: &name, Status: &status})
		require.NoError(t, err)
		assert.Equal(t, "phone", upd.Name)
		assert.Equal(t, models.PeerStatusSuspended, upd.Status)
		assert.Equal(t, p.DownloadToken, upd.DownloadToken)

		require.NoError(t, s.DeletePeer(ctx, p.ID))
		assert.ErrorIs(t, s.DeletePeer(ctx, p.ID), ErrNotFound)
	})
}

func TestConsumeDownloadLifecycle(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		now := time.Now().UTC()
		exp := now.Add(24 * time.Hour)
		c := seedClient(t, s)
		p := seedPeer(t, s, c.ID, intPtr(1), &exp)

		got, err := s.ConsumeDownload(ctx, p.DownloadToken, now)
		require.NoError(t, err)
		assert.Equal(t, 1, got.DownloadCount)

		got, err = s.ConsumeDownload(ctx, p.DownloadToken, now)
		assert.ErrorIs(t, err, ErrDownloadUnavailable)
		require.NotNil(t, got)
		assert.Equal(t, models.DownloadExhausted, got.DownloadState(now))
		assert.Equal(t, 1, got.DownloadCount)

		// новый токен: старый перестаёт существовать, счётчик обнулён
		newToken := uuid.NewString()
		newExp := now.Add(48 * time.Hour)
		reset, err := s.ResetDownload(ctx, p.ID, newToken, intPtr(2), &newExp)
		require.NoError(t, err)
		assert.Equal(t, 0, reset.DownloadCount)
		assert.True(t, reset.IsDownloadActive)
		require.NotNil(t, reset.DownloadLimit)
		assert.Equal(t, 2, *reset.DownloadLimit)

		_, err = s.ConsumeDownload(ctx, p.DownloadToken, now)
		assert.ErrorIs(t, err, ErrNotFound)

		got, err = s.ConsumeDownload(ctx, newToken, now)
		require.NoError(t, err)
		assert.Equal(t, 1, got.DownloadCount)
	})
}

// смена токена сразу после инкремента (регенерация в соседнем запросе)
// не должна превращать уже засчитанное скачивание в 404
func TestConsumeDownloadTokenRotatedAfterUpdate(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	c := seedClient(t, s)
	p := seedPeer(t, s, c.ID, intPtr(3), nil)
	rotated := uuid.NewString()

	fired := false
	require.NoError(t, s.db.Callback().Update().After("gorm:update").Register("test:rotate_token", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "peers" {
			return
		}
		fired = true
		err := tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE peers SET download_token = ? WHERE id = ?", rotated, p.ID).Error
		if err != nil {
			_ = tx.AddError(err)
		}
	}))

	got, err := s.ConsumeDownload(ctx, p.DownloadToken, now)
	require.NoError(t, err)
	require.True(t, fired)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, rotated, got.DownloadToken)
	assert.Equal(t, 1, got.DownloadCount)
}

func TestConsumeDownloadUnlimitedReset(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		c := seedClient(t, s)
		p := seedPeer(t, s, c.ID, intPtr(1), nil)

		reset, err := s.ResetDownload(ctx, p.ID, uuid.NewString(), nil, nil)
		require.NoError(t, err)
		assert.Nil(t, reset.DownloadLimit)
		assert.Nil(t, reset.DownloadExpiresAt)

		for i := 0; i < 5; i++ {
			_, err := s.ConsumeDownload(ctx, reset.DownloadToken, time.Now())
			require.NoError(t, err)
		}
	})
}

func TestConsumeDownloadExpiredAndDisabled(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		now := time.Now().UTC()
		past := now.Add(-time.Hour)
		c := seedClient(t, s)

		expired := seedPeer(t, s, c.ID, intPtr(5), &past)
		got, err := s.ConsumeDownload(ctx, expired.DownloadToken, now)
		assert.ErrorIs(t, err, ErrDownloadUnavailable)
		assert.Equal(t, models.DownloadExpired, got.DownloadState(now))
		assert.Equal(t, 0, got.DownloadCount)

		p := seedPeer(t, s, c.ID, intPtr(5), nil)
		toggled, err := s.ToggleDownload(ctx, p.ID)
		require.NoError(t, err)
		assert.False(t, toggled.IsDownloadActive)
		// выключение не трогает остальные поля
		assert.Equal(t, p.DownloadToken, toggled.DownloadToken)
		assert.Equal(t, 5, *toggled.DownloadLimit)

		got, err = s.ConsumeDownload(ctx, p.DownloadToken, now)
		assert.ErrorIs(t, err, ErrDownloadUnavailable)
		assert.Equal(t, models.DownloadDisabled, got.DownloadState(now))

		toggled, err = s.ToggleDownload(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, toggled.IsDownloadActive)
		_, err = s.ConsumeDownload(ctx, p.DownloadToken, now)
		assert.NoError(t, err)

		_, err = s.ToggleDownload(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestConsumeDownloadConcurrent(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		const workers, limit = 20, 5
		c := seedClient(t, s)
		p := seedPeer(t, s, c.ID, intPtr(limit), nil)

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			ok, bad int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.ConsumeDownload(context.Background(), p.DownloadToken, time.Now())
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					ok++
				case errors.Is(err, ErrDownloadUnavailable):
					bad++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, limit, ok)
		assert.Equal(t, workers-limit, bad)
		got, err := s.GetPeer(context.Background(), p.ID)
		require.NoError(t, err)
		assert.Equal(t, limit, got.DownloadCount)
	})
}

func TestLogsNewestFirstAndFilter(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		base := time.Now().UTC().Add(-time.Minute)
		for i := 0; i < 3; i++ {
			require.NoError(t, s.AddAccessLog(ctx, &models.AccessLog{Action: "list_clients", CreatedAt: base.Add(time.Duration(i) * time.Second)}))
			require.NoError(t, s.AddActivity(ctx, &models.ActivityEntry{ActionType: "peer_created", Description: "d", CreatedAt: base.Add(time.Duration(i) * time.Second)}))
		}
		require.NoError(t, s.AddAuditLog(ctx, &models.AuditLog{Table: "peers", RecordID: "a", Action: models.AuditInsert}))
		require.NoError(t, s.AddAuditLog(ctx, &models.AuditLog{Table: "peers", RecordID: "b", Action: models.AuditInsert}))
		require.NoError(t, s.AddAuditLog(ctx, &models.AuditLog{Table: "clients", RecordID: "a", Action: models.AuditDelete}))

		acc, err := s.ListAccessLogs(ctx, 2)
		require.NoError(t, err)
		require.Len(t, acc, 2)
		assert.True(t, acc[0].CreatedAt.After(acc[1].CreatedAt))

		act, err := s.ListActivity(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, act, 3)

		aud, err := s.ListAuditLogs(ctx, AuditFilter{Table: "peers"})
		require.NoError(t, err)
		assert.Len(t, aud, 2)

		aud, err = s.ListAuditLogs(ctx, AuditFilter{Table: "peers", RecordID: "a"})
		require.NoError(t, err)
		require.Len(t, aud, 1)
		assert.Equal(t, models.AuditInsert, aud[0].Action)
	})
}

func TestTokens(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		tok := &models.APIToken{Name: "ci", Subject: "ops", KeyID: "abcd1234", SecretHash: []byte{1, 2, 3}}
		require.NoError(t, s.CreateToken(ctx, tok))

		got, err := s.GetActiveToken(ctx, "abcd1234")
		require.NoError(t, err)
		assert.Equal(t, "ops", got.Subject)
		assert.Equal(t, []byte{1, 2, 3}, got.SecretHash)

		require.NoError(t, s.TouchToken(ctx, got.ID, time.Now()))
		require.NoError(t, s.RevokeToken(ctx, "abcd1234"))

		_, err = s.GetActiveToken(ctx, "abcd1234")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.RevokeToken(ctx, "abcd1234"), ErrNotFound)
	})
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 50, ClampLimit(0))
	assert.Equal(t, 50, ClampLimit(-3))
	assert.Equal(t, 10, ClampLimit(10))
	assert.Equal(t, 500, ClampLimit(10000))
}
