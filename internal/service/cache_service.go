package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/treestatus-api/pkg/cache"
)

// CacheService stores JSON payloads in the configured cache backend and
// records hit/miss metrics.
type CacheService struct {
	backend    cache.Backend
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
}

// NewCacheService constructs a cache service. A nil backend disables caching.
func NewCacheService(backend cache.Backend, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{backend: backend, metrics: metrics, defaultTTL: defaultTTL, logger: logger}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.backend != nil
}

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
// Undecodable entries count as misses.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	raw, found, err := s.backend.Get(ctx, key)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	if !found {
		s.metrics.RecordCacheOperation(false, duration)
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		s.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return false, nil
	}
	s.metrics.RecordCacheOperation(true, duration)
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	start := time.Now()
	_, err = s.backend.Set(ctx, key, string(payload), ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate removes the given keys. Every key is attempted; the first error is returned.
func (s *CacheService) Invalidate(ctx context.Context, keys ...string) error {
	if !s.Enabled() {
		return nil
	}
	var firstErr error
	for _, key := range keys {
		if _, err := s.backend.Delete(ctx, key); err != nil {
			s.logger.Warn("cache invalidate failed", zap.String("key", key), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
