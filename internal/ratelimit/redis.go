package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter: скользящее окно на ZSET, общее для всех экземпляров.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window, prefix: "wgnst:ratelimit"}
}

func (l *RedisLimiter) key(k string) string {
	return fmt.Sprintf("%s:%s:%s", l.prefix, k, l.window)
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := time.Now()
	redisKey := l.key(key)
	windowStart := now.Add(-l.window).UnixNano()
	nowNano := now.UnixNano()

	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart))
	zcard := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(nowNano), Member: fmt.Sprintf("%d-%s", nowNano, uuid.NewString())})
	pipe.Expire(ctx, redisKey, l.window+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("ratelimit pipeline: %w", err)
	}

	if zcard.Val() < int64(l.limit) {
		return Decision{Allowed: true}, nil
	}

	// ждать, пока выпадет самая старая запись окна
	retry := l.window
	oldest, err := l.client.ZRangeWithScores(ctx, redisKey, 0, 0).Result()
	if err == nil && len(oldest) == 1 {
		retry = time.Unix(0, int64(oldest[0].Score)).Add(l.window).Sub(now)
	}
	return Decision{Allowed: false, RetryAfter: retry}, nil
}

// Reset очищает окно ключа.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.key(key)).Err()
}
