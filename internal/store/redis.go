package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis holds the redemption event queue and the recent-scans feed. Nothing
// correctness-critical lives here, so timeouts stay short and failures
// degrade to a stale feed rather than blocking scans.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy reports redis connectivity for the health endpoint.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}
