package queue

import (
	"log/slog"
	"time"
)

// DispatcherOption is a functional option for configuring a dispatcher
type DispatcherOption func(*dispatcherOptions)

type dispatcherOptions struct {
	group           string
	consumers       int
	maxDeliveries   int64
	retryBuffer     int
	block           time.Duration
	idleDelay       time.Duration
	handlerTimeout  time.Duration
	reclaimInterval time.Duration
	reclaimMinIdle  time.Duration
	deadLetters     DeadLetterSink
	backoff         Backoff
	shutdownTimeout time.Duration
	logger          *slog.Logger
	now             func() time.Time
}

// WithGroup sets the consumer group name
func WithGroup(name string) DispatcherOption {
	return func(o *dispatcherOptions) {
		if name != "" {
			o.group = name
		}
	}
}

// WithConsumers sets how many consumer loops (c1..cN) read the stream
func WithConsumers(n int) DispatcherOption {
	return func(o *dispatcherOptions) {
		if n > 0 {
			o.consumers = n
		}
	}
}

// WithMaxDeliveries sets the delivery budget after which an entry is dropped
func WithMaxDeliveries(n int64) DispatcherOption {
	return func(o *dispatcherOptions) {
		if n > 0 {
			o.maxDeliveries = n
		}
	}
}

// WithRetryBuffer sets the capacity of the retry channel
func WithRetryBuffer(n int) DispatcherOption {
	return func(o *dispatcherOptions) {
		if n > 0 {
			o.retryBuffer = n
		}
	}
}

// WithBlockTimeout sets how long a read waits for new entries
func WithBlockTimeout(d time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		if d > 0 {
			o.block = d
		}
	}
}

// WithIdleDelay sets the pause after an empty read or a store error
func WithIdleDelay(d time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		if d >= 0 {
			o.idleDelay = d
		}
	}
}

// WithHandlerTimeout bounds a single handler call
func WithHandlerTimeout(d time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		if d > 0 {
			o.handlerTimeout = d
		}
	}
}

// WithReclaimInterval sets how often stale pending entries are swept; zero disables the sweep
func WithReclaimInterval(d time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		if d >= 0 {
			o.reclaimInterval = d
		}
	}
}

// WithReclaimMinIdle sets how long an entry must sit unacked before the sweep retries it
func WithReclaimMinIdle(d time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		if d > 0 {
			o.reclaimMinIdle = d
		}
	}
}

// WithBackoff sets the pause strategy applied after consecutive read failures.
// Defaults to exponential backoff starting at the idle delay.
func WithBackoff(b Backoff) DispatcherOption {
	return func(o *dispatcherOptions) {
		if b != nil {
			o.backoff = b
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for in-flight entries.
// Zero waits until they finish.
func WithShutdownTimeout(d time.Duration) DispatcherOption {
	return func(o *dispatcherOptions) {
		if d >= 0 {
			o.shutdownTimeout = d
		}
	}
}

// WithDeadLetters sets the sink for dropped entries
func WithDeadLetters(sink DeadLetterSink) DispatcherOption {
	return func(o *dispatcherOptions) {
		o.deadLetters = sink
	}
}

// WithDispatcherLogger sets the logger for the dispatcher
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(o *dispatcherOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDispatcherClock sets the time source for dead-letter timestamps
func WithDispatcherClock(now func() time.Time) DispatcherOption {
	return func(o *dispatcherOptions) {
		if now != nil {
			o.now = now
		}
	}
}
