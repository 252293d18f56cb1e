package queue

import "errors"

var (
	// ErrLogNil is returned when a nil stream.Log is provided
	ErrLogNil = errors.New("stream log cannot be nil")

	// ErrHandlerNil is returned when a nil handler is provided
	ErrHandlerNil = errors.New("handler cannot be nil")

	// ErrCodecNil is returned when a producer is built without a codec
	ErrCodecNil = errors.New("codec cannot be nil")

	// ErrEmptyStreamName is returned when a component is built without a stream name
	ErrEmptyStreamName = errors.New("stream name cannot be empty")

	// ErrInvalidThreshold is returned for a non-positive timer interval
	ErrInvalidThreshold = errors.New("maturity threshold must be positive")

	// ErrAlreadyStarted is returned by Start on a running component
	ErrAlreadyStarted = errors.New("already started")

	// ErrNotStarted is returned by Stop on a component that is not running
	ErrNotStarted = errors.New("not started")

	// ErrShutdownTimeout is returned by Stop when loops outlive the shutdown timeout
	ErrShutdownTimeout = errors.New("shutdown timed out waiting for active entries")

	// ErrHandlerPanic wraps a recovered handler panic
	ErrHandlerPanic = errors.New("panic in handler")

	// ErrEnqueue is returned when a payload cannot be appended to its stream
	ErrEnqueue = errors.New("failed to enqueue job")

	// ErrDeadLetter is returned when a dropped entry cannot be recorded
	ErrDeadLetter = errors.New("failed to record dead letter")

	// ErrUnknownQueue is returned by Keys.Lookup for unknown queue names
	ErrUnknownQueue = errors.New("unknown queue name")
)
