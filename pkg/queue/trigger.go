package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/streamq/pkg/logger"
	"github.com/dmitrymomot/streamq/pkg/stream"
)

// TriggerQueue handles every entry of a stream each time the wall clock hits
// its alignment, at most once per minute. Entries persist across firings
// unless WithConsumeOnFire is set.
type TriggerQueue struct {
	log     stream.Log
	stream  string
	handler Handler
	opts    pollerOptions
	lc      lifecycle

	mu        sync.Mutex
	lastFired time.Time
}

// NewTriggerQueue creates a trigger queue. The default tick is one second so
// that second zero of each minute is observed.
func NewTriggerQueue(log stream.Log, streamName string, handler Handler, opts ...PollerOption) (*TriggerQueue, error) {
	if log == nil {
		return nil, ErrLogNil
	}
	if handler == nil {
		return nil, ErrHandlerNil
	}
	if streamName == "" {
		return nil, ErrEmptyStreamName
	}

	options := defaultPollerOptions()
	for _, opt := range opts {
		opt(&options)
	}
	options.logger = options.logger.With(logger.Component("trigger_queue"), logger.Stream(streamName))

	return &TriggerQueue{
		log:     log,
		stream:  streamName,
		handler: handler,
		opts:    options,
	}, nil
}

// Start launches the tick loop.
func (q *TriggerQueue) Start(ctx context.Context) error {
	if err := q.lc.start(ctx, q.run); err != nil {
		return err
	}
	q.opts.logger.Info("queue started",
		slog.String("alignment", q.opts.alignment.String()),
		slog.Bool("consume_on_fire", q.opts.consumeOnFire))
	return nil
}

// Stop cancels the tick loop and waits for the current firing to finish.
func (q *TriggerQueue) Stop() error {
	if err := q.lc.stop(q.opts.stopTimeout); err != nil {
		return err
	}
	q.opts.logger.Info("queue stopped")
	return nil
}

// Run starts the queue and returns a function suitable for errgroup.
func (q *TriggerQueue) Run(ctx context.Context) func() error {
	return runFunc(ctx, q.Start, q.Stop)
}

// Info reports the stream length.
func (q *TriggerQueue) Info(ctx context.Context) (stream.Info, error) {
	return q.log.Info(ctx, q.stream, "")
}

// run fires on a fixed-rate ticker; time spent firing does not shift the phase.
func (q *TriggerQueue) run(ctx context.Context) {
	ticker := time.NewTicker(q.opts.interval)
	defer ticker.Stop()

	for {
		if _, err := q.Fire(ctx, q.opts.now()); err != nil && ctx.Err() == nil {
			q.opts.logger.Error("firing failed", logger.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Fire runs one tick at now. The minute containing now must match the
// alignment and now must fall less than one poll interval after its start.
// When the minute has not fired yet, every entry is handled and the number
// handled returned.
func (q *TriggerQueue) Fire(ctx context.Context, now time.Time) (int, error) {
	minute := now.Truncate(time.Minute)
	if !q.opts.alignment.Matches(minute) || now.Sub(minute) >= q.firingWindow() {
		return 0, nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if minute.Equal(q.lastFired) {
		return 0, nil
	}

	after := stream.StartID
	handled := 0
	for {
		entries, err := q.log.ReadFrom(ctx, q.stream, after, q.opts.batchSize)
		if err != nil {
			return handled, err
		}
		for _, entry := range entries {
			after = entry.ID
			if q.fire(ctx, entry) {
				handled++
			}
		}
		if int64(len(entries)) < q.opts.batchSize || ctx.Err() != nil {
			break
		}
	}

	q.lastFired = minute
	q.opts.logger.Debug("fired", slog.Time("minute", minute), slog.Int("handled", handled))
	return handled, nil
}

func (q *TriggerQueue) fire(ctx context.Context, entry stream.Entry) bool {
	log := q.opts.logger.With(logger.EntryID(entry.ID))

	hctx, cancel := handlerContext(ctx, q.opts.handlerTimeout)
	defer cancel()

	err := safeHandle(hctx, q.handler, entry)
	storeCtx := context.WithoutCancel(ctx)

	switch {
	case stream.IsMalformed(err):
		log.Error("dropping malformed entry", logger.Error(err), logger.Fields(entry.Fields))
		if delErr := q.log.Delete(storeCtx, q.stream, entry.ID); delErr != nil {
			log.Error("failed to delete malformed entry", logger.Error(delErr))
		}
		return false
	case err != nil:
		log.Warn("handler failed", logger.Error(err))
		return false
	}

	if q.opts.consumeOnFire {
		if err := q.log.Delete(storeCtx, q.stream, entry.ID); err != nil {
			log.Error("failed to delete fired entry", logger.Error(err))
		}
	}
	return true
}

func (q *TriggerQueue) firingWindow() time.Duration {
	return max(q.opts.interval, time.Second)
}
