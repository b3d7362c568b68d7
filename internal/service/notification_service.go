package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/treestatus-api/internal/models"
	"github.com/noah-isme/treestatus-api/pkg/config"
	"github.com/noah-isme/treestatus-api/pkg/jobs"
)

// Notifier receives committed status changes.
type Notifier interface {
	Notify(ctx context.Context, event models.StatusChangeEvent)
}

// NoopNotifier drops every event.
type NoopNotifier struct{}

// Notify implements Notifier.
func (NoopNotifier) Notify(context.Context, models.StatusChangeEvent) {}

// RedisNotifier publishes status change events on a redis channel from a
// background worker pool.
type RedisNotifier struct {
	client       *redis.Client
	channel      string
	queue        *jobs.Queue[models.StatusChangeEvent]
	enqueueLimit time.Duration
	logger       *zap.Logger
}

// defaultEnqueueLimit bounds how long a committed request waits for room in
// the publish queue before its event is dropped.
const defaultEnqueueLimit = 100 * time.Millisecond

// NewRedisNotifier builds the notifier. Start must be called before events are delivered.
func NewRedisNotifier(client *redis.Client, cfg config.NotificationsConfig, logger *zap.Logger) *RedisNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &RedisNotifier{client: client, channel: cfg.Channel, enqueueLimit: defaultEnqueueLimit, logger: logger}
	n.queue = jobs.NewQueue("notifications", n.publish, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: 500 * time.Millisecond,
		Logger:     logger,
	})
	return n
}

// Start launches the publishing workers.
func (n *RedisNotifier) Start(ctx context.Context) {
	n.queue.Start(ctx)
}

// Stop drains the workers.
func (n *RedisNotifier) Stop() {
	n.queue.Stop()
}

// Notify queues the event. When the queue stays full past the enqueue limit,
// or ctx ends first, the event is dropped. Failures are logged and never
// reach the caller.
func (n *RedisNotifier) Notify(ctx context.Context, event models.StatusChangeEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	ctx, cancel := context.WithTimeout(ctx, n.enqueueLimit)
	defer cancel()
	if err := n.queue.Enqueue(ctx, jobs.Task[models.StatusChangeEvent]{ID: event.ID, Payload: event}); err != nil {
		n.logger.Warn("status change notification dropped", zap.String("event_id", event.ID), zap.String("kind", event.Kind), zap.Error(err))
	}
}

func (n *RedisNotifier) publish(ctx context.Context, task jobs.Task[models.StatusChangeEvent]) error {
	payload, err := json.Marshal(task.Payload)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", task.ID, err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event %s: %w", task.ID, err)
	}
	n.logger.Debug("status change published", zap.String("event_id", task.ID), zap.String("channel", n.channel))
	return nil
}
