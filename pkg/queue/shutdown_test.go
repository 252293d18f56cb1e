package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/streamq/pkg/logger"
	"github.com/dmitrymomot/streamq/pkg/queue"
	"github.com/dmitrymomot/streamq/pkg/stream"
)

// blockingHandler holds every call until release is closed.
func blockingHandler(started chan<- struct{}, release <-chan struct{}) queue.Handler {
	return queue.HandlerFunc(func(context.Context, stream.Entry) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	})
}

func TestDispatcher_StopHonoursShutdownTimeout(t *testing.T) {
	t.Parallel()

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	log := stream.NewMemoryLog()
	d, err := queue.NewDispatcher(log, mailStream, blockingHandler(started, release),
		queue.WithConsumers(1),
		queue.WithBlockTimeout(20*time.Millisecond),
		queue.WithReclaimInterval(0),
		queue.WithShutdownTimeout(50*time.Millisecond),
		queue.WithDispatcherLogger(logger.Discard()))
	require.NoError(t, err)
	require.NoError(t, d.Start(context.Background()))

	_, err = log.Append(context.Background(), mailStream, mailFields("a@example.com"))
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
	}

	begin := time.Now()
	assert.ErrorIs(t, d.Stop(), queue.ErrShutdownTimeout)
	assert.Less(t, time.Since(begin), time.Second)
}

func TestDelayQueue_StopHonoursShutdownTimeout(t *testing.T) {
	t.Parallel()

	started := make(chan struct{}, 1)
	release := make(chan struct{})

	log := stream.NewMemoryLog()
	q, err := queue.NewDelayQueue(log, delayStream, blockingHandler(started, release),
		queue.WithThreshold(0),
		queue.WithPollInterval(5*time.Millisecond),
		queue.WithStopTimeout(50*time.Millisecond),
		queue.WithPollerLogger(logger.Discard()))
	require.NoError(t, err)

	_, err = log.Append(context.Background(), delayStream, stream.Fields{"task": "slow"})
	require.NoError(t, err)
	require.NoError(t, q.Start(context.Background()))

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
	}

	assert.ErrorIs(t, q.Stop(), queue.ErrShutdownTimeout)

	close(release)
	require.Eventually(t, func() bool {
		entries, err := log.ReadFrom(context.Background(), delayStream, stream.StartID, 0)
		return err == nil && len(entries) == 0
	}, time.Second, 5*time.Millisecond, "abandoned pass still completes the entry")
}

func TestStop_WithoutTimeoutWaits(t *testing.T) {
	t.Parallel()

	started := make(chan struct{}, 1)
	release := make(chan struct{})

	log := stream.NewMemoryLog()
	q, err := queue.NewDelayQueue(log, delayStream, blockingHandler(started, release),
		queue.WithThreshold(0),
		queue.WithPollInterval(5*time.Millisecond),
		queue.WithPollerLogger(logger.Discard()))
	require.NoError(t, err)

	_, err = log.Append(context.Background(), delayStream, stream.Fields{"task": "slow"})
	require.NoError(t, err)
	require.NoError(t, q.Start(context.Background()))
	<-started

	go func() {
		time.Sleep(30 * time.Millisecond)
		close(release)
	}()
	assert.NoError(t, q.Stop())
}
