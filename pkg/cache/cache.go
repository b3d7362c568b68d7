// Package cache provides the key/value cache used for tree reads and probed
// by the heartbeat endpoint.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/treestatus-api/pkg/config"
)

// Backend types accepted by CACHE_TYPE.
const (
	TypeSimple = "simple"
	TypeRedis  = "redis"
	TypeNull   = "null"
)

// Backend is the cache contract. Get reports absence through its bool result.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) (bool, error)
	Close() error
}

// New builds the backend named by cfg.Type. The redis client is only
// required for the redis type and is owned by the caller.
func New(cfg config.CacheConfig, client *redis.Client) (Backend, error) {
	switch cfg.Type {
	case TypeSimple, "":
		return NewMemory(cfg.Options)
	case TypeRedis:
		if client == nil {
			return nil, fmt.Errorf("cache type %q requires a redis client", cfg.Type)
		}
		return NewRedisBackend(client, cfg.Options), nil
	case TypeNull:
		return Null{}, nil
	default:
		return nil, fmt.Errorf("unsupported cache type %q", cfg.Type)
	}
}

func durationOption(options map[string]string, key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := options[key]
	if !ok || raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("cache option %s: %w", key, err)
	}
	return d, nil
}
