package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/streamq/pkg/logger"
	"github.com/dmitrymomot/streamq/pkg/stream"
)

// Default dispatcher settings.
const (
	DefaultGroup         = "g1"
	DefaultConsumers     = 2
	DefaultMaxDeliveries = 3
	DefaultRetryBuffer   = 32
)

// retryIntent asks the coordinator to re-run a failed entry.
type retryIntent struct {
	id       string
	consumer string
	cause    error
}

// Dispatcher is the reliable at-least-once queue: N consumer loops share one
// consumer group and a single coordinator re-runs failed entries from the
// pending list until they succeed or exhaust the delivery budget.
type Dispatcher struct {
	log        stream.Log
	handler    Handler
	stream     string
	instanceID uuid.UUID
	opts       dispatcherOptions
	retries    chan retryIntent
	lc         lifecycle
}

// NewDispatcher creates a dispatcher for streamName.
func NewDispatcher(log stream.Log, streamName string, handler Handler, opts ...DispatcherOption) (*Dispatcher, error) {
	if log == nil {
		return nil, ErrLogNil
	}
	if handler == nil {
		return nil, ErrHandlerNil
	}
	if streamName == "" {
		return nil, ErrEmptyStreamName
	}

	options := dispatcherOptions{
		group:           DefaultGroup,
		consumers:       DefaultConsumers,
		maxDeliveries:   DefaultMaxDeliveries,
		retryBuffer:     DefaultRetryBuffer,
		block:           5 * time.Second,
		idleDelay:       100 * time.Millisecond,
		handlerTimeout:  30 * time.Second,
		reclaimInterval: 30 * time.Second,
		reclaimMinIdle:  time.Minute,
		logger:          slog.Default(),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.backoff == nil {
		options.backoff = defaultBackoff(options.idleDelay)
	}

	d := &Dispatcher{
		log:        log,
		handler:    handler,
		stream:     streamName,
		instanceID: uuid.New(),
		opts:       options,
		retries:    make(chan retryIntent, options.retryBuffer),
	}
	d.opts.logger = options.logger.With(
		logger.Component("dispatcher"),
		logger.Stream(streamName),
		logger.ConsumerGroup(options.group),
		logger.InstanceID(d.instanceID),
	)
	return d, nil
}

// Start creates the consumer group and launches the consumer loops and the
// retry coordinator.
func (d *Dispatcher) Start(ctx context.Context) error {
	if err := d.log.CreateGroup(ctx, d.stream, d.opts.group, stream.NewOnlyID); err != nil {
		return fmt.Errorf("failed to create group %q on %q: %w", d.opts.group, d.stream, err)
	}

	loops := make([]func(context.Context), 0, d.opts.consumers+1)
	for i := 1; i <= d.opts.consumers; i++ {
		consumer := "c" + strconv.Itoa(i)
		loops = append(loops, func(ctx context.Context) { d.consume(ctx, consumer) })
	}
	loops = append(loops, d.coordinate)

	if err := d.lc.start(ctx, loops...); err != nil {
		return err
	}

	d.opts.logger.Info("dispatcher started",
		slog.Int("consumers", d.opts.consumers),
		slog.Int64("max_deliveries", d.opts.maxDeliveries))
	return nil
}

// Stop cancels the loops and waits for in-flight entries to finish.
func (d *Dispatcher) Stop() error {
	d.opts.logger.Info("dispatcher stopping, waiting for active entries to complete")
	if err := d.lc.stop(d.opts.shutdownTimeout); err != nil {
		return err
	}
	d.opts.logger.Info("dispatcher stopped")
	return nil
}

// Run starts the dispatcher and returns a function suitable for errgroup.
func (d *Dispatcher) Run(ctx context.Context) func() error {
	return runFunc(ctx, d.Start, d.Stop)
}

// Info reports stream length and pending count for the dispatcher's group.
func (d *Dispatcher) Info(ctx context.Context) (stream.Info, error) {
	return d.log.Info(ctx, d.stream, d.opts.group)
}

// InstanceInfo identifies this dispatcher process.
func (d *Dispatcher) InstanceInfo() (id string, hostname string, pid int) {
	hostname, _ = os.Hostname()
	return d.instanceID.String(), hostname, os.Getpid()
}

func (d *Dispatcher) consume(ctx context.Context, consumer string) {
	log := d.opts.logger.With(logger.Consumer(consumer))
	failures := 0

	for ctx.Err() == nil {
		entries, err := d.log.ReadNew(ctx, d.stream, d.opts.group, consumer, 1, d.opts.block)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			pause := d.opts.backoff.Next(failures)
			log.Error("failed to read new entries",
				logger.Error(err),
				slog.Int("attempt", failures),
				logger.Duration(pause),
			)
			sleep(ctx, pause)
			continue
		}
		failures = 0
		if len(entries) == 0 {
			sleep(ctx, d.opts.idleDelay)
			continue
		}

		for _, entry := range entries {
			cause := d.process(ctx, consumer, entry)
			if cause == nil {
				continue
			}
			select {
			case d.retries <- retryIntent{id: entry.ID, consumer: consumer, cause: cause}:
			case <-ctx.Done():
				// Left pending; the reclaim sweep picks it up later.
				return
			}
		}
	}
}

// process runs the handler once. It returns nil when the entry reached a
// final state (acked or deleted) and the handler error when it must be retried.
func (d *Dispatcher) process(ctx context.Context, consumer string, entry stream.Entry) error {
	log := d.opts.logger.With(logger.Consumer(consumer), logger.EntryID(entry.ID))
	start := time.Now()

	hctx, cancel := handlerContext(ctx, d.opts.handlerTimeout)
	defer cancel()

	err := safeHandle(hctx, d.handler, entry)
	storeCtx := context.WithoutCancel(ctx)

	switch {
	case err == nil:
		if ackErr := d.log.Ack(storeCtx, d.stream, d.opts.group, entry.ID); ackErr != nil {
			log.Error("failed to ack entry", logger.Error(ackErr))
			return nil
		}
		log.Debug("entry processed", logger.Duration(time.Since(start)))
		return nil

	case stream.IsMalformed(err):
		log.Error("dropping malformed entry", logger.Error(err), logger.Fields(entry.Fields))
		if ackErr := d.log.Ack(storeCtx, d.stream, d.opts.group, entry.ID); ackErr != nil {
			log.Error("failed to ack malformed entry", logger.Error(ackErr))
		}
		if delErr := d.log.Delete(storeCtx, d.stream, entry.ID); delErr != nil {
			log.Error("failed to delete malformed entry", logger.Error(delErr))
		}
		return nil
	}

	log.Warn("entry failed", logger.Error(err), logger.Duration(time.Since(start)))
	return err
}

func (d *Dispatcher) coordinate(ctx context.Context) {
	var sweep <-chan time.Time
	if d.opts.reclaimInterval > 0 {
		ticker := time.NewTicker(d.opts.reclaimInterval)
		defer ticker.Stop()
		sweep = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case intent := <-d.retries:
			if err := d.retry(ctx, intent.id, intent.consumer, intent.cause); err != nil && ctx.Err() == nil {
				d.opts.logger.Error("retry failed",
					logger.EntryID(intent.id),
					logger.Consumer(intent.consumer),
					logger.Error(err))
			}
		case <-sweep:
			if _, err := d.Reclaim(ctx); err != nil && ctx.Err() == nil {
				d.opts.logger.Error("reclaim sweep failed", logger.Error(err))
			}
		}
	}
}

// Retry re-runs a pending entry held by consumer until it is acked, dropped
// after the delivery budget, or no longer pending.
func (d *Dispatcher) Retry(ctx context.Context, id, consumer string) error {
	return d.retry(ctx, id, consumer, nil)
}

func (d *Dispatcher) retry(ctx context.Context, id, consumer string, cause error) error {
	after, err := stream.PrecedingID(id)
	if err != nil {
		return err
	}

	for {
		rows, err := d.log.Pending(ctx, stream.PendingQuery{
			Stream:   d.stream,
			Group:    d.opts.group,
			Start:    id,
			End:      stream.RangeEnd,
			Count:    1,
			Consumer: consumer,
		})
		if err != nil {
			return fmt.Errorf("failed to inspect pending entry %s: %w", id, err)
		}
		if len(rows) == 0 || rows[0].ID != id {
			return nil
		}
		if rows[0].DeliveryCount >= d.opts.maxDeliveries {
			return d.drop(ctx, id, consumer, rows[0].DeliveryCount, cause)
		}

		entries, err := d.log.ReadHistory(ctx, d.stream, d.opts.group, consumer, after, 1)
		if err != nil {
			return fmt.Errorf("failed to re-read entry %s: %w", id, err)
		}
		if len(entries) == 0 || entries[0].ID != id {
			return nil
		}

		d.opts.logger.Info("retrying entry",
			logger.EntryID(id),
			logger.Consumer(consumer),
			logger.DeliveryCount(rows[0].DeliveryCount+1))

		if cause = d.process(ctx, consumer, entries[0]); cause == nil {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// drop force-acks an entry that used up its delivery budget and hands it to
// the dead-letter sink.
func (d *Dispatcher) drop(ctx context.Context, id, consumer string, deliveries int64, cause error) error {
	storeCtx := context.WithoutCancel(ctx)

	entry, err := d.log.Get(storeCtx, d.stream, id)
	if err != nil {
		if !errors.Is(err, stream.ErrEntryNotFound) {
			return fmt.Errorf("failed to load entry %s: %w", id, err)
		}
		entry = stream.Entry{ID: id, Fields: stream.Fields{}}
	}

	if err := d.log.Ack(storeCtx, d.stream, d.opts.group, id); err != nil {
		return fmt.Errorf("failed to force-ack entry %s: %w", id, err)
	}

	reason := "max deliveries exceeded"
	if cause != nil {
		reason = cause.Error()
	}

	d.opts.logger.Error("entry dropped after max deliveries",
		logger.EntryID(id),
		logger.Consumer(consumer),
		logger.DeliveryCount(deliveries),
		slog.String("reason", reason),
		logger.Fields(entry.Fields))

	if d.opts.deadLetters == nil {
		return nil
	}
	return d.opts.deadLetters.OnDropped(storeCtx, DeadLetter{
		Entry:      entry,
		Stream:     d.stream,
		Group:      d.opts.group,
		Consumer:   consumer,
		Deliveries: deliveries,
		Reason:     reason,
		DroppedAt:  d.opts.now(),
	})
}

// Reclaim sweeps pending entries idle for at least the reclaim min-idle time
// through the retry step. It returns how many entries were examined.
func (d *Dispatcher) Reclaim(ctx context.Context) (int, error) {
	rows, err := d.log.Pending(ctx, stream.PendingQuery{
		Stream:  d.stream,
		Group:   d.opts.group,
		MinIdle: d.opts.reclaimMinIdle,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to list pending entries: %w", err)
	}

	var errs []error
	for i, row := range rows {
		if ctx.Err() != nil {
			return i, errors.Join(errs...)
		}
		d.opts.logger.Info("reclaiming stale entry",
			logger.EntryID(row.ID),
			logger.Consumer(row.Consumer),
			logger.DeliveryCount(row.DeliveryCount),
			slog.Duration("idle", row.Idle))
		if err := d.Retry(ctx, row.ID, row.Consumer); err != nil {
			errs = append(errs, err)
		}
	}
	return len(rows), errors.Join(errs...)
}
