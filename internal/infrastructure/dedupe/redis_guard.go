// Package dedupe drops redelivered chat messages so one message never
// produces two orders.
package dedupe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "order-intake:msg:"

type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGuard(addr string, ttl time.Duration) *RedisGuard {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
		ReadTimeout: time.Second,
	})
	return NewRedisGuardWithClient(client, ttl)
}

func NewRedisGuardWithClient(client *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisGuard{client: client, ttl: ttl}
}

// FirstSeen claims messageID for the guard TTL. When Redis is unreachable it
// reports true together with the error: losing the guard must not stop
// order intake.
func (g *RedisGuard) FirstSeen(ctx context.Context, messageID string) (bool, error) {
	id := strings.TrimSpace(messageID)
	if id == "" {
		return true, nil
	}
	claimed, err := g.client.SetNX(ctx, messageKey(id), "1", g.ttl).Result()
	if err != nil {
		return true, fmt.Errorf("redis setnx: %w", err)
	}
	return claimed, nil
}

func (g *RedisGuard) Ping(ctx context.Context) error {
	return g.client.Ping(ctx).Err()
}

func (g *RedisGuard) Close() error {
	return g.client.Close()
}

func messageKey(messageID string) string {
	return keyPrefix + messageID
}
