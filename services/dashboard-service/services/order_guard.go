package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// OrderGuard suppresses repeated buys of the same sku and quantity inside a
// short window.
type OrderGuard interface {
	Allow(ctx context.Context, sku string, quantity int) (bool, error)
}

// RedisOrderGuard keeps one expiring key per sku+quantity.
type RedisOrderGuard struct {
	client redis.Cmdable
	window time.Duration
}

func NewRedisOrderGuard(client redis.Cmdable, window time.Duration) *RedisOrderGuard {
	if window <= 0 {
		window = 2 * time.Second
	}
	return &RedisOrderGuard{client: client, window: window}
}

func (g *RedisOrderGuard) Allow(ctx context.Context, sku string, quantity int) (bool, error) {
	key := fmt.Sprintf("idem:buy:%s:%d", sku, quantity)
	return g.client.SetNX(ctx, key, 1, g.window).Result()
}

// AllowAll is the guard used when no Redis is configured.
type AllowAll struct{}

func (AllowAll) Allow(context.Context, string, int) (bool, error) { return true, nil }
