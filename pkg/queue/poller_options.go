package queue

import (
	"log/slog"
	"time"
)

// PollerOption configures the polling queues (delay, timer and trigger)
type PollerOption func(*pollerOptions)

type pollerOptions struct {
	interval       time.Duration
	batchSize      int64
	threshold      time.Duration
	handlerTimeout time.Duration
	stopTimeout    time.Duration
	alignment      Alignment
	consumeOnFire  bool
	logger         *slog.Logger
	now            func() time.Time
}

func defaultPollerOptions() pollerOptions {
	return pollerOptions{
		interval:       time.Second,
		batchSize:      100,
		threshold:      10 * time.Second,
		handlerTimeout: 30 * time.Second,
		alignment:      EveryMinute(),
		logger:         slog.Default(),
		now:            time.Now,
	}
}

// WithPollInterval sets how often the stream is scanned
func WithPollInterval(d time.Duration) PollerOption {
	return func(o *pollerOptions) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithBatchSize sets the page size of each range read
func WithBatchSize(n int64) PollerOption {
	return func(o *pollerOptions) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithThreshold sets the age at which an entry matures (delay and timer queues)
func WithThreshold(d time.Duration) PollerOption {
	return func(o *pollerOptions) {
		o.threshold = d
	}
}

// WithHandlerDeadline bounds a single handler call
func WithHandlerDeadline(d time.Duration) PollerOption {
	return func(o *pollerOptions) {
		if d > 0 {
			o.handlerTimeout = d
		}
	}
}

// WithStopTimeout bounds how long Stop waits for the current pass.
// Zero waits until it finishes.
func WithStopTimeout(d time.Duration) PollerOption {
	return func(o *pollerOptions) {
		if d >= 0 {
			o.stopTimeout = d
		}
	}
}

// WithAlignment sets when the trigger queue fires
func WithAlignment(a Alignment) PollerOption {
	return func(o *pollerOptions) {
		if a != nil {
			o.alignment = a
		}
	}
}

// WithConsumeOnFire makes the trigger queue delete each entry after it fired
// successfully. By default entries persist and fire on every aligned tick.
func WithConsumeOnFire() PollerOption {
	return func(o *pollerOptions) {
		o.consumeOnFire = true
	}
}

// WithPollerLogger sets the logger for the polling queue
func WithPollerLogger(logger *slog.Logger) PollerOption {
	return func(o *pollerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock sets the time source used for maturity and alignment checks
func WithClock(now func() time.Time) PollerOption {
	return func(o *pollerOptions) {
		if now != nil {
			o.now = now
		}
	}
}
