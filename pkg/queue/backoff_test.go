package queue_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/streamq/pkg/queue"
	"github.com/dmitrymomot/streamq/pkg/stream"
)

func TestExponentialBackoff(t *testing.T) {
	t.Parallel()

	b := queue.ExponentialBackoff{Initial: 100 * time.Millisecond, Max: time.Second, Multiplier: 2}

	assert.Equal(t, time.Duration(0), b.Next(0))
	assert.Equal(t, 100*time.Millisecond, b.Next(1))
	assert.Equal(t, 200*time.Millisecond, b.Next(2))
	assert.Equal(t, 400*time.Millisecond, b.Next(3))
	assert.Equal(t, time.Second, b.Next(10))

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		var zero queue.ExponentialBackoff
		assert.Equal(t, 100*time.Millisecond, zero.Next(1))
		assert.Equal(t, 5*time.Second, zero.Next(50))
	})

	t.Run("jitter stays in range", func(t *testing.T) {
		t.Parallel()
		j := queue.ExponentialBackoff{Initial: time.Second, Max: time.Minute, Multiplier: 2, Jitter: 0.1}
		for range 100 {
			d := j.Next(2)
			assert.GreaterOrEqual(t, d, 1800*time.Millisecond)
			assert.LessOrEqual(t, d, 2200*time.Millisecond)
		}
	})
}

func TestFixedBackoff(t *testing.T) {
	t.Parallel()

	b := queue.FixedBackoff(50 * time.Millisecond)
	assert.Equal(t, time.Duration(0), b.Next(0))
	assert.Equal(t, 50*time.Millisecond, b.Next(1))
	assert.Equal(t, 50*time.Millisecond, b.Next(7))
}

// flakyLog fails the first n ReadNew calls.
type flakyLog struct {
	stream.Log
	failures atomic.Int32
}

func (l *flakyLog) ReadNew(ctx context.Context, s, group, consumer string, count int64, block time.Duration) ([]stream.Entry, error) {
	if l.failures.Add(-1) >= 0 {
		return nil, errors.New("connection reset")
	}
	return l.Log.ReadNew(ctx, s, group, consumer, count, block)
}

type recordingBackoff struct {
	mu       sync.Mutex
	attempts []int
}

func (r *recordingBackoff) Next(attempt int) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, attempt)
	return time.Millisecond
}

func (r *recordingBackoff) Attempts() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.attempts...)
}

func TestDispatcher_BacksOffOnReadErrors(t *testing.T) {
	t.Parallel()

	log := &flakyLog{Log: stream.NewMemoryLog()}
	log.failures.Store(3)
	backoff := &recordingBackoff{}
	h := &countingHandler{}

	d := newTestDispatcher(t, log, h, queue.WithConsumers(1), queue.WithBackoff(backoff))
	startDispatcher(t, d)

	_, err := log.Append(context.Background(), mailStream, mailFields("a@example.com"))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return h.Calls() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []int{1, 2, 3}, backoff.Attempts())
}
