// Package ratelimit ограничивает частоту запросов по ключу (обычно IP клиента).
package ratelimit

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"wgnst/internal/logs"
)

// Decision: ответ лимитера. RetryAfter имеет смысл только при Allowed=false.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Middleware отвечает 429 "too many requests" с Retry-After.
// Ошибка лимитера (например, Redis недоступен) не блокирует трафик.
func Middleware(l Limiter, keyFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			key := keyFn(r)
			d, err := l.Allow(r.Context(), key)
			if err != nil {
				logs.Logger.WithFields(logrus.Fields{"key": key, "err": err}).Warn("ratelimit: limiter error, allowing request")
				next.ServeHTTP(w, r)
				return
			}
			if !d.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(d.RetryAfter)))
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func retrySeconds(d time.Duration) int {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}
