package queue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/streamq/pkg/logger"
	"github.com/dmitrymomot/streamq/pkg/queue"
	"github.com/dmitrymomot/streamq/pkg/stream"
)

const mailStream = "test:queue:mail"

func newTestDispatcher(t *testing.T, log stream.Log, h queue.Handler, opts ...queue.DispatcherOption) *queue.Dispatcher {
	t.Helper()

	base := []queue.DispatcherOption{
		queue.WithConsumers(2),
		queue.WithBlockTimeout(50 * time.Millisecond),
		queue.WithIdleDelay(5 * time.Millisecond),
		queue.WithReclaimInterval(0),
		queue.WithDispatcherLogger(logger.Discard()),
	}
	d, err := queue.NewDispatcher(log, mailStream, h, append(base, opts...)...)
	require.NoError(t, err)
	return d
}

func startDispatcher(t *testing.T, d *queue.Dispatcher) {
	t.Helper()
	require.NoError(t, d.Start(context.Background()))
	t.Cleanup(func() { _ = d.Stop() })
}

type deadLetterRecorder struct {
	mu      sync.Mutex
	letters []queue.DeadLetter
}

func (r *deadLetterRecorder) OnDropped(_ context.Context, dl queue.DeadLetter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.letters = append(r.letters, dl)
	return nil
}

func (r *deadLetterRecorder) Letters() []queue.DeadLetter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]queue.DeadLetter(nil), r.letters...)
}

func TestNewDispatcher(t *testing.T) {
	t.Parallel()

	log := stream.NewMemoryLog()
	h := &countingHandler{}

	_, err := queue.NewDispatcher(nil, mailStream, h)
	assert.ErrorIs(t, err, queue.ErrLogNil)

	_, err = queue.NewDispatcher(log, mailStream, nil)
	assert.ErrorIs(t, err, queue.ErrHandlerNil)

	_, err = queue.NewDispatcher(log, "", h)
	assert.ErrorIs(t, err, queue.ErrEmptyStreamName)

	d, err := queue.NewDispatcher(log, mailStream, h)
	require.NoError(t, err)
	id, _, pid := d.InstanceInfo()
	assert.NotEmpty(t, id)
	assert.Positive(t, pid)
}

func TestDispatcher_Lifecycle(t *testing.T) {
	t.Parallel()

	d := newTestDispatcher(t, stream.NewMemoryLog(), &countingHandler{})

	assert.ErrorIs(t, d.Stop(), queue.ErrNotStarted)
	require.NoError(t, d.Start(context.Background()))
	assert.ErrorIs(t, d.Start(context.Background()), queue.ErrAlreadyStarted)
	require.NoError(t, d.Stop())
	assert.ErrorIs(t, d.Stop(), queue.ErrNotStarted)
}

func TestDispatcher_AcksOnSuccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := stream.NewMemoryLog()
	h := &countingHandler{}
	d := newTestDispatcher(t, log, h)
	startDispatcher(t, d)

	for _, to := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := log.Append(ctx, mailStream, mailFields(to))
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return h.Calls() == 3 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		info, err := d.Info(ctx)
		return err == nil && info.Pending == 0
	}, time.Second, 5*time.Millisecond)
}

func TestDispatcher_RetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := stream.NewMemoryLog()
	h := &countingHandler{failures: 2}
	sink := &deadLetterRecorder{}
	d := newTestDispatcher(t, log, h, queue.WithConsumers(1), queue.WithDeadLetters(sink))
	startDispatcher(t, d)

	id, err := log.Append(ctx, mailStream, mailFields("a@example.com"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		info, err := d.Info(ctx)
		return err == nil && h.Calls() == 3 && info.Pending == 0
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 3, h.Calls(), "acked entry must not be delivered again")
	assert.Empty(t, sink.Letters())
	for _, e := range h.Seen() {
		assert.Equal(t, id, e.ID)
		assert.Equal(t, "a@example.com", e.Fields["to"])
	}
}

func TestDispatcher_DropsAfterMaxDeliveries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	log := stream.NewMemoryLog()
	h := &countingHandler{failures: -1}
	sink := &deadLetterRecorder{}
	d := newTestDispatcher(t, log, h,
		queue.WithConsumers(1),
		queue.WithDeadLetters(sink),
		queue.WithDispatcherClock(func() time.Time { return now }))
	startDispatcher(t, d)

	id, err := log.Append(ctx, mailStream, mailFields("a@example.com"))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(sink.Letters()) == 1 }, 2*time.Second, 5*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 3, h.Calls())

	info, err := d.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Pending, "dropped entry is force-acked")

	dl := sink.Letters()[0]
	assert.Equal(t, id, dl.Entry.ID)
	assert.Equal(t, "a@example.com", dl.Entry.Fields["to"])
	assert.Equal(t, mailStream, dl.Stream)
	assert.Equal(t, queue.DefaultGroup, dl.Group)
	assert.Equal(t, "c1", dl.Consumer)
	assert.Equal(t, int64(3), dl.Deliveries)
	assert.Equal(t, errBusiness.Error(), dl.Reason)
	assert.Equal(t, now, dl.DroppedAt)
}

func TestDispatcher_MaxDeliveriesOption(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := stream.NewMemoryLog()
	h := &countingHandler{failures: -1}
	sink := &deadLetterRecorder{}
	d := newTestDispatcher(t, log, h,
		queue.WithConsumers(1),
		queue.WithMaxDeliveries(5),
		queue.WithDeadLetters(sink))
	startDispatcher(t, d)

	_, err := log.Append(ctx, mailStream, mailFields("a@example.com"))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(sink.Letters()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 5, h.Calls())
}

func TestDispatcher_DeletesMalformedEntries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := stream.NewMemoryLog()
	h := &countingHandler{}
	d := newTestDispatcher(t, log, queue.NewTaskHandler[stream.Fields](mailCodec{}, func(ctx context.Context, f stream.Fields) error {
		return h.Handle(ctx, stream.Entry{Fields: f})
	}))
	startDispatcher(t, d)

	bad := mailFields("a@example.com")
	delete(bad, "subject")
	badID, err := log.Append(ctx, mailStream, bad)
	require.NoError(t, err)
	_, err = log.Append(ctx, mailStream, mailFields("b@example.com"))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return h.Calls() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		_, err := log.Get(ctx, mailStream, badID)
		return errors.Is(err, stream.ErrEntryNotFound)
	}, time.Second, 5*time.Millisecond)

	info, err := d.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Pending)
	assert.Equal(t, int64(1), info.Length)
	assert.Equal(t, "b@example.com", h.Seen()[0].Fields["to"])
}

func TestDispatcher_RecoversPanics(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := stream.NewMemoryLog()
	sink := &deadLetterRecorder{}
	d := newTestDispatcher(t, log, queue.HandlerFunc(func(context.Context, stream.Entry) error {
		panic("boom")
	}), queue.WithConsumers(1), queue.WithDeadLetters(sink))
	startDispatcher(t, d)

	_, err := log.Append(ctx, mailStream, mailFields("a@example.com"))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(sink.Letters()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Contains(t, sink.Letters()[0].Reason, "panic in handler: boom")
}

func TestDispatcher_Retry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := stream.NewMemoryLog()
	h := &countingHandler{}
	d := newTestDispatcher(t, log, h)

	require.NoError(t, log.CreateGroup(ctx, mailStream, queue.DefaultGroup, stream.StartID))
	id, err := log.Append(ctx, mailStream, mailFields("a@example.com"))
	require.NoError(t, err)

	// Simulate a consumer that claimed the entry and crashed.
	claimed, err := log.ReadNew(ctx, mailStream, queue.DefaultGroup, "c1", 1, 0)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	require.NoError(t, d.Retry(ctx, id, "c1"))
	assert.Equal(t, 1, h.Calls())

	pending, err := log.Pending(ctx, stream.PendingQuery{Stream: mailStream, Group: queue.DefaultGroup})
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, d.Retry(ctx, id, "c1"), "entries no longer pending are ignored")
	assert.Equal(t, 1, h.Calls())
}

func TestDispatcher_RetryIgnoresOtherConsumer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	log := stream.NewMemoryLog()
	h := &countingHandler{}
	d := newTestDispatcher(t, log, h)

	require.NoError(t, log.CreateGroup(ctx, mailStream, queue.DefaultGroup, stream.StartID))
	id, err := log.Append(ctx, mailStream, mailFields("a@example.com"))
	require.NoError(t, err)
	_, err = log.ReadNew(ctx, mailStream, queue.DefaultGroup, "c1", 1, 0)
	require.NoError(t, err)

	require.NoError(t, d.Retry(ctx, id, "c2"))
	assert.Zero(t, h.Calls())
}

func TestDispatcher_ReclaimsStaleEntries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock(time.UnixMilli(1_700_000_000_000))
	log := stream.NewMemoryLog(stream.WithClock(clock.Now))
	h := &countingHandler{}
	d := newTestDispatcher(t, log, h, queue.WithReclaimMinIdle(time.Minute))

	require.NoError(t, log.CreateGroup(ctx, mailStream, queue.DefaultGroup, stream.StartID))
	_, err := log.Append(ctx, mailStream, mailFields("a@example.com"))
	require.NoError(t, err)
	_, err = log.Append(ctx, mailStream, mailFields("b@example.com"))
	require.NoError(t, err)
	_, err = log.ReadNew(ctx, mailStream, queue.DefaultGroup, "c1", 1, 0)
	require.NoError(t, err)

	clock.Advance(30 * time.Second)
	_, err = log.ReadNew(ctx, mailStream, queue.DefaultGroup, "c2", 1, 0)
	require.NoError(t, err)

	clock.Advance(40 * time.Second)
	n, err := d.Reclaim(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only the entry idle for over a minute is reclaimed")
	assert.Equal(t, 1, h.Calls())
	assert.Equal(t, "a@example.com", h.Seen()[0].Fields["to"])

	info, err := d.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.Pending)
}
