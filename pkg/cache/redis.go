package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/treestatus-api/pkg/config"
)

// NewRedis returns a configured Redis client.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// Redis is the networked backend. Keys are namespaced with the key_prefix option.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend wraps an existing client.
func NewRedisBackend(client *redis.Client, options map[string]string) *Redis {
	prefix, ok := options["key_prefix"]
	if !ok {
		prefix = "treestatus:"
	}
	return &Redis{client: client, prefix: prefix}
}

// Get implements Backend.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

// Set implements Backend. A non-positive ttl stores without expiry.
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	status, err := r.client.Set(ctx, r.prefix+key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis set %s: %w", key, err)
	}
	return status == "OK", nil
}

// Delete implements Backend and reports whether a key was removed.
func (r *Redis) Delete(ctx context.Context, key string) (bool, error) {
	removed, err := r.client.Del(ctx, r.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis delete %s: %w", key, err)
	}
	return removed > 0, nil
}

// Close is a no-op: the client is shared with the notification publisher.
func (r *Redis) Close() error {
	return nil
}
