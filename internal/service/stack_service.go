package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/treestatus-api/internal/models"
)

type stackRepository interface {
	Get(ctx context.Context, id int64) (*models.StatusChange, error)
	List(ctx context.Context) ([]models.StatusChange, error)
	Revert(ctx context.Context, id int64, who string, when time.Time) (*models.StatusChange, error)
	Discard(ctx context.Context, id int64) error
}

// StackService lists, reverts and discards remembered status changes.
type StackService struct {
	repo     stackRepository
	cache    *CacheService
	notifier Notifier
	metrics  *MetricsService
	logger   *zap.Logger
	timeout  time.Duration
	now      func() time.Time
}

// NewStackService constructs the service.
func NewStackService(repo stackRepository, cache *CacheService, notifier Notifier, metrics *MetricsService, logger *zap.Logger, timeout time.Duration) *StackService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &StackService{repo: repo, cache: cache, notifier: notifier, metrics: metrics, logger: logger, timeout: timeout, now: time.Now}
}

// List returns every stack, newest first.
func (s *StackService) List(ctx context.Context) ([]models.StatusChange, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	stacks, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(err, "", "failed to list stacks")
	}
	return stacks, nil
}

// Get returns one stack.
func (s *StackService) Get(ctx context.Context, id int64) (*models.StatusChange, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	stack, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("stack %d not found", id), "failed to load stack")
	}
	return stack, nil
}

// Revert restores the trees of a stack to their previous state and removes it.
func (s *StackService) Revert(ctx context.Context, id int64, who string) (*models.StatusChange, error) {
	now := s.now()
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	stack, err := s.repo.Revert(ctx, id, who, now)
	s.metrics.ObserveDBQuery("stack.revert", time.Since(start))
	if err != nil {
		return nil, storeError(err, fmt.Sprintf("stack %d not found", id), "failed to revert stack")
	}

	trees := stack.TreeNames()
	_ = s.cache.Invalidate(context.WithoutCancel(ctx), treeCacheKeys(trees)...)
	s.metrics.RecordStatusChange(models.EventStackReverted)
	s.notifier.Notify(ctx, models.StatusChangeEvent{
		Kind: models.EventStackReverted, Trees: trees, Reason: stack.Reason, Who: who, When: now, StackID: &stack.ID,
	})
	s.logger.Info("stack reverted", zap.Int64("stack_id", id), zap.Strings("trees", trees), zap.String("who", who))
	return stack, nil
}

// Discard forgets a stack without touching the trees.
func (s *StackService) Discard(ctx context.Context, id int64, who string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.repo.Discard(ctx, id); err != nil {
		return storeError(err, fmt.Sprintf("stack %d not found", id), "failed to discard stack")
	}
	s.logger.Info("stack discarded", zap.Int64("stack_id", id), zap.String("who", who))
	return nil
}
