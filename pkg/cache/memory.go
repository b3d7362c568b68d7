package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is the in-process backend.
type Memory struct {
	store *gocache.Cache
	// deletes serializes Delete so only one caller sees found=true per key.
	deletes sync.Mutex
}

// NewMemory understands the options default_timeout and cleanup_interval.
func NewMemory(options map[string]string) (*Memory, error) {
	defaultTimeout, err := durationOption(options, "default_timeout", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	cleanup, err := durationOption(options, "cleanup_interval", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	return &Memory{store: gocache.New(defaultTimeout, cleanup)}, nil
}

// Get implements Backend.
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	value, found := m.store.Get(key)
	if !found {
		return "", false, nil
	}
	s, ok := value.(string)
	return s, ok, nil
}

// Set implements Backend. A non-positive ttl uses the default timeout.
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.store.Set(key, value, ttl)
	return true, nil
}

// Delete implements Backend and reports whether the key existed.
func (m *Memory) Delete(_ context.Context, key string) (bool, error) {
	m.deletes.Lock()
	defer m.deletes.Unlock()
	_, found := m.store.Get(key)
	m.store.Delete(key)
	return found, nil
}

// Close implements Backend.
func (m *Memory) Close() error {
	m.store.Flush()
	return nil
}
