package queue

import "time"

// Config holds the configuration for every queue loop.
type Config struct {
	AppName string `env:"APP_NAME" envDefault:"streamq"`

	// Reliable dispatch
	Group           string        `env:"QUEUE_GROUP" envDefault:"g1"`
	Consumers       int           `env:"QUEUE_CONSUMERS" envDefault:"2"`
	MaxDeliveries   int64         `env:"QUEUE_MAX_DELIVERIES" envDefault:"3"`
	RetryBuffer     int           `env:"QUEUE_RETRY_BUFFER" envDefault:"32"`
	BlockTimeout    time.Duration `env:"QUEUE_BLOCK_TIMEOUT" envDefault:"5s"`
	IdleDelay       time.Duration `env:"QUEUE_IDLE_DELAY" envDefault:"100ms"`
	HandlerTimeout  time.Duration `env:"QUEUE_HANDLER_TIMEOUT" envDefault:"30s"`
	ReclaimInterval time.Duration `env:"QUEUE_RECLAIM_INTERVAL" envDefault:"30s"`
	ReclaimMinIdle  time.Duration `env:"QUEUE_RECLAIM_MIN_IDLE" envDefault:"1m"`

	// Dead letters
	DeadLetterStream bool  `env:"QUEUE_DEAD_LETTER_STREAM" envDefault:"true"`
	DeadLetterMaxLen int64 `env:"QUEUE_DEAD_LETTER_MAX_LEN" envDefault:"10000"`

	// Polling queues
	PollInterval    time.Duration `env:"QUEUE_POLL_INTERVAL" envDefault:"1s"`
	BatchSize       int64         `env:"QUEUE_BATCH_SIZE" envDefault:"100"`
	DelayThreshold  time.Duration `env:"QUEUE_DELAY_THRESHOLD" envDefault:"10000ms"`
	TimerInterval   time.Duration `env:"QUEUE_TIMER_INTERVAL" envDefault:"10000ms"`
	TriggerConsume  bool          `env:"QUEUE_TRIGGER_CONSUME" envDefault:"false"`
	ShutdownTimeout time.Duration `env:"QUEUE_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Keys returns the stream names for the configured application.
func (c Config) Keys() Keys {
	return NewKeys(c.AppName)
}

// DispatcherOptions translates the config into dispatcher options.
func (c Config) DispatcherOptions() []DispatcherOption {
	return []DispatcherOption{
		WithGroup(c.Group),
		WithConsumers(c.Consumers),
		WithMaxDeliveries(c.MaxDeliveries),
		WithRetryBuffer(c.RetryBuffer),
		WithBlockTimeout(c.BlockTimeout),
		WithIdleDelay(c.IdleDelay),
		WithHandlerTimeout(c.HandlerTimeout),
		WithReclaimInterval(c.ReclaimInterval),
		WithReclaimMinIdle(c.ReclaimMinIdle),
		WithShutdownTimeout(c.ShutdownTimeout),
	}
}

// PollerOptions translates the config into options shared by the polling queues.
func (c Config) PollerOptions() []PollerOption {
	return []PollerOption{
		WithPollInterval(c.PollInterval),
		WithBatchSize(c.BatchSize),
		WithHandlerDeadline(c.HandlerTimeout),
		WithStopTimeout(c.ShutdownTimeout),
	}
}
