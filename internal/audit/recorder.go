// Package audit пишет журналы доступа, изменений и активности в фоне.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"wgnst/internal/logs"
	"wgnst/internal/models"
	"wgnst/internal/repo"
)

const DefaultTimeout = 3 * time.Second

// Recorder пишет fire-and-forget, ошибки записи логируются и не влияют на запрос.
// Nil-Recorder допустим и ничего не пишет.
type Recorder struct {
	store   repo.Logs
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewRecorder(store repo.Logs, timeout time.Duration) *Recorder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Recorder{store: store, timeout: timeout}
}

func (r *Recorder) spawn(kind string, fn func(ctx context.Context) error) {
	if r == nil || r.store == nil {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			logs.Logger.WithFields(logrus.Fields{"kind": kind, "err": err}).Warn("audit: write failed")
		}
	}()
}

// Access пишет запись журнала доступа.
func (r *Recorder) Access(e models.AccessLog) {
	r.spawn("access", func(ctx context.Context) error { return r.store.AddAccessLog(ctx, &e) })
}

// Audit пишет снимки записи до/после изменения.
func (r *Recorder) Audit(subject, table, recordID, action string, oldValues, newValues any) {
	e := models.AuditLog{
		Subject:   subject,
		Table:     table,
		RecordID:  recordID,
		Action:    action,
		OldValues: toJSON(oldValues),
		NewValues: toJSON(newValues),
	}
	r.spawn("audit", func(ctx context.Context) error { return r.store.AddAuditLog(ctx, &e) })
}

// Activity пишет строку ленты активности.
func (r *Recorder) Activity(subject, actionType, description, entityType, entityID string, meta map[string]any) {
	e := models.ActivityEntry{
		Subject:     subject,
		ActionType:  actionType,
		Description: description,
		EntityType:  entityType,
		EntityID:    entityID,
		Metadata:    toJSON(meta),
	}
	r.spawn("activity", func(ctx context.Context) error { return r.store.AddActivity(ctx, &e) })
}

// Wait дожидается всех начатых записей (shutdown, тесты).
func (r *Recorder) Wait() {
	if r == nil {
		return
	}
	r.wg.Wait()
}

func toJSON(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	if m, ok := v.(map[string]any); ok && m == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		logs.Logger.WithError(err).Warn("audit: marshal values")
		return nil
	}
	return datatypes.JSON(b)
}
