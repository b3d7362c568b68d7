package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueDeliversTasks(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
		done = make(chan struct{}, 3)
	)
	q := NewQueue[string]("test", func(_ context.Context, task Task[string]) error {
		mu.Lock()
		seen = append(seen, task.Payload)
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	for _, tree := range []string{"autoland", "mozilla-central", "try"} {
		require.NoError(t, q.Enqueue(context.Background(), Task[string]{ID: tree, Payload: tree}))
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("task not delivered")
		}
	}
	mu.Lock()
	defer mu.Unlock()
	require.ElementsMatch(t, []string{"autoland", "mozilla-central", "try"}, seen)
}

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var attempts int32
	done := make(chan int, 1)
	q := NewQueue[int]("retry", func(_ context.Context, task Task[int]) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("publish failed")
		}
		done <- task.Attempt
		return nil
	}, QueueConfig{MaxRetries: 5, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(context.Background(), Task[int]{ID: "evt", Payload: 1}))
	select {
	case attempt := <-done:
		require.Equal(t, 2, attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("task never succeeded")
	}
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	var attempts int32
	q := NewQueue[int]("giveup", func(context.Context, Task[int]) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("always")
	}, QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(context.Background(), Task[int]{ID: "evt"}))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&attempts) == 3 }, 2*time.Second, 5*time.Millisecond)
	q.Stop()
	require.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestEnqueueRequiresRunningQueue(t *testing.T) {
	q := NewQueue[int]("idle", func(context.Context, Task[int]) error { return nil }, QueueConfig{})
	require.ErrorIs(t, q.Enqueue(context.Background(), Task[int]{}), ErrNotRunning)

	q.Start(context.Background())
	q.Stop()
	require.ErrorIs(t, q.Enqueue(context.Background(), Task[int]{}), ErrNotRunning)
}

func TestQueueEnqueueGivesUpWhenBufferStaysFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	q := NewQueue[int]("stalled", func(ctx context.Context, _ Task[int]) error {
		started <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer q.Stop()
	defer close(release)

	require.NoError(t, q.Enqueue(context.Background(), Task[int]{ID: "in-flight"}))
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the first task")
	}
	require.NoError(t, q.Enqueue(context.Background(), Task[int]{ID: "buffered"}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := q.Enqueue(ctx, Task[int]{ID: "overflow"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)
}

func TestQueueEnqueueUnblocksOnStop(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	q := NewQueue[int]("stopping", func(context.Context, Task[int]) error {
		started <- struct{}{}
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(context.Background(), Task[int]{ID: "in-flight"}))
	<-started
	require.NoError(t, q.Enqueue(context.Background(), Task[int]{ID: "buffered"}))

	result := make(chan error, 1)
	go func() {
		result <- q.Enqueue(context.Background(), Task[int]{ID: "waiting"})
	}()
	time.Sleep(20 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		q.Stop()
		close(stopped)
	}()

	select {
	case err := <-result:
		require.ErrorIs(t, err, ErrNotRunning)
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue still waiting after stop")
	}
	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return")
	}
}
