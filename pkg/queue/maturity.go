package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/streamq/pkg/logger"
	"github.com/dmitrymomot/streamq/pkg/stream"
)

// MaturityQueue polls a stream and handles every entry older than a
// threshold. A delay queue deletes the entry afterwards; a timer queue renews
// it so that it matures again one threshold later.
type MaturityQueue struct {
	log     stream.Log
	stream  string
	handler Handler
	renew   bool
	opts    pollerOptions
	lc      lifecycle
}

// NewDelayQueue handles each entry once, threshold after it was appended.
func NewDelayQueue(log stream.Log, streamName string, handler Handler, opts ...PollerOption) (*MaturityQueue, error) {
	return newMaturityQueue(log, streamName, handler, false, opts)
}

// NewTimerQueue handles each entry every threshold, for as long as it exists.
func NewTimerQueue(log stream.Log, streamName string, handler Handler, opts ...PollerOption) (*MaturityQueue, error) {
	return newMaturityQueue(log, streamName, handler, true, opts)
}

func newMaturityQueue(log stream.Log, streamName string, handler Handler, renew bool, opts []PollerOption) (*MaturityQueue, error) {
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
	if options.threshold < 0 || (renew && options.threshold == 0) {
		return nil, ErrInvalidThreshold
	}

	component := "delay_queue"
	if renew {
		component = "timer_queue"
	}
	options.logger = options.logger.With(logger.Component(component), logger.Stream(streamName))

	return &MaturityQueue{
		log:     log,
		stream:  streamName,
		handler: handler,
		renew:   renew,
		opts:    options,
	}, nil
}

// Start launches the poll loop.
func (q *MaturityQueue) Start(ctx context.Context) error {
	if err := q.lc.start(ctx, q.run); err != nil {
		return err
	}
	q.opts.logger.Info("queue started",
		slog.Duration("threshold", q.opts.threshold),
		slog.Duration("poll_interval", q.opts.interval))
	return nil
}

// Stop cancels the poll loop and waits for the current pass to finish.
func (q *MaturityQueue) Stop() error {
	if err := q.lc.stop(q.opts.stopTimeout); err != nil {
		return err
	}
	q.opts.logger.Info("queue stopped")
	return nil
}

// Run starts the queue and returns a function suitable for errgroup.
func (q *MaturityQueue) Run(ctx context.Context) func() error {
	return runFunc(ctx, q.Start, q.Stop)
}

// Info reports the stream length.
func (q *MaturityQueue) Info(ctx context.Context) (stream.Info, error) {
	return q.log.Info(ctx, q.stream, "")
}

func (q *MaturityQueue) run(ctx context.Context) {
	for {
		if _, err := q.Poll(ctx); err != nil && ctx.Err() == nil {
			q.opts.logger.Error("poll failed", logger.Error(err))
		}
		if !sleep(ctx, q.opts.interval) {
			return
		}
	}
}

// Poll runs one scan and returns how many mature entries were handled
// successfully. Failed and malformed entries are not counted.
// The scan stops at the first immature entry: ids grow with creation time,
// so every later entry is younger still.
func (q *MaturityQueue) Poll(ctx context.Context) (int, error) {
	now := q.opts.now()
	after := stream.StartID
	handled := 0

	for {
		entries, err := q.log.ReadFrom(ctx, q.stream, after, q.opts.batchSize)
		if err != nil {
			return handled, err
		}

		for _, entry := range entries {
			after = entry.ID

			age, err := entry.Age(now)
			if err != nil {
				q.dropMalformed(ctx, entry, err)
				continue
			}
			if age < q.opts.threshold {
				return handled, nil
			}

			if q.mature(ctx, entry, age) {
				handled++
			}
		}

		if int64(len(entries)) < q.opts.batchSize || ctx.Err() != nil {
			return handled, nil
		}
	}
}

// mature runs the handler and reports whether the entry was completed,
// i.e. deleted (delay) or renewed (timer).
func (q *MaturityQueue) mature(ctx context.Context, entry stream.Entry, age time.Duration) bool {
	log := q.opts.logger.With(logger.EntryID(entry.ID), logger.Age(age))

	hctx, cancel := handlerContext(ctx, q.opts.handlerTimeout)
	defer cancel()

	err := safeHandle(hctx, q.handler, entry)
	switch {
	case stream.IsMalformed(err):
		q.dropMalformed(ctx, entry, err)
		return false
	case err != nil:
		log.Warn("handler failed, entry kept for next poll", logger.Error(err))
		return false
	}

	storeCtx := context.WithoutCancel(ctx)
	if !q.renew {
		if err := q.log.Delete(storeCtx, q.stream, entry.ID); err != nil {
			log.Error("failed to delete handled entry", logger.Error(err))
			return false
		}
		log.Debug("entry handled")
		return true
	}

	newID, err := q.log.Renew(storeCtx, q.stream, entry.ID, entry.Fields)
	if err != nil {
		log.Error("failed to renew entry", logger.Error(err))
		return false
	}
	log.Debug("entry renewed", slog.String("new_entry_id", newID))
	return true
}

func (q *MaturityQueue) dropMalformed(ctx context.Context, entry stream.Entry, cause error) {
	q.opts.logger.Error("dropping malformed entry",
		logger.EntryID(entry.ID),
		logger.Error(cause),
		logger.Fields(entry.Fields))
	if err := q.log.Delete(context.WithoutCancel(ctx), q.stream, entry.ID); err != nil {
		q.opts.logger.Error("failed to delete malformed entry", logger.EntryID(entry.ID), logger.Error(err))
	}
}
