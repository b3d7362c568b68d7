package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNotRunning is returned by Enqueue before Start or after Stop.
var ErrNotRunning = errors.New("queue not running")

// Task wraps a payload with delivery bookkeeping.
type Task[T any] struct {
	ID       string
	Payload  T
	Attempt  int
	Enqueued time.Time
}

// Handler processes one task.
type Handler[T any] func(context.Context, Task[T]) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue is an in-memory worker pool with bounded retries.
type Queue[T any] struct {
	name    string
	handler Handler[T]
	cfg     QueueConfig
	logger  *zap.Logger

	tasks   chan Task[T]
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	retries sync.WaitGroup
	mu      sync.RWMutex
	running bool
}

// NewQueue builds a queue for handler.
func NewQueue[T any](name string, handler Handler[T], cfg QueueConfig) *Queue[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 16
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue[T]{
		name:    name,
		handler: handler,
		cfg:     cfg,
		logger:  cfg.Logger.With(zap.String("queue", name)),
		tasks:   make(chan Task[T], cfg.BufferSize),
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (q *Queue[T]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.running = true
	q.logger.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop cancels the workers and waits for in-flight tasks and pending retries.
func (q *Queue[T]) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
	q.retries.Wait()
	q.logger.Info("queue stopped")
}

// Enqueue hands a task to the workers. While the buffer is full it waits until
// ctx is done or the queue stops, whichever comes first.
func (q *Queue[T]) Enqueue(ctx context.Context, task Task[T]) error {
	q.mu.RLock()
	running, queueCtx := q.running, q.ctx
	q.mu.RUnlock()
	if !running {
		return fmt.Errorf("%s: %w", q.name, ErrNotRunning)
	}
	if task.Enqueued.IsZero() {
		task.Enqueued = time.Now().UTC()
	}

	select {
	case <-queueCtx.Done():
		return fmt.Errorf("%s: %w", q.name, ErrNotRunning)
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", q.name, ctx.Err())
	case q.tasks <- task:
		return nil
	}
}

func (q *Queue[T]) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case task := <-q.tasks:
			if err := q.handler(q.ctx, task); err != nil {
				q.retry(task, err)
			}
		}
	}
}

func (q *Queue[T]) retry(task Task[T], err error) {
	task.Attempt++
	if task.Attempt > q.cfg.MaxRetries {
		q.logger.Error("task exceeded retries", zap.String("task_id", task.ID), zap.Int("attempt", task.Attempt), zap.Error(err))
		return
	}
	q.logger.Warn("task failed, retrying", zap.String("task_id", task.ID), zap.Int("attempt", task.Attempt), zap.Error(err))

	q.retries.Add(1)
	go func() {
		defer q.retries.Done()
		timer := time.NewTimer(q.cfg.RetryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-timer.C:
			if err := q.Enqueue(q.ctx, task); err != nil {
				q.logger.Error("failed to requeue task", zap.String("task_id", task.ID), zap.Error(err))
			}
		}
	}()
}
