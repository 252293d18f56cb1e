package queue

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/streamq/pkg/stream"
)

type (
	// Handler processes one stream entry. Returning an error wrapping
	// stream.ErrMalformedEntry drops the entry; any other error is a
	// business failure handled by the queue's retry policy.
	Handler interface {
		Handle(ctx context.Context, entry stream.Entry) error
	}

	// HandlerFunc adapts a function to Handler.
	HandlerFunc func(ctx context.Context, entry stream.Entry) error

	// TaskHandlerFunc handles a decoded payload.
	TaskHandlerFunc[T any] func(ctx context.Context, payload T) error
)

func (f HandlerFunc) Handle(ctx context.Context, entry stream.Entry) error {
	return f(ctx, entry)
}

// NewTaskHandler decodes every entry with codec before calling fn.
// Decode failures are reported as malformed entries.
func NewTaskHandler[T any](codec stream.Codec[T], fn TaskHandlerFunc[T]) Handler {
	return &taskHandler[T]{codec: codec, fn: fn}
}

type taskHandler[T any] struct {
	codec stream.Codec[T]
	fn    TaskHandlerFunc[T]
}

func (h *taskHandler[T]) Handle(ctx context.Context, entry stream.Entry) error {
	payload, err := stream.Decode(h.codec, entry)
	if err != nil {
		return err
	}
	return h.fn(ctx, payload)
}

// safeHandle runs h and turns a panic into an ordinary business failure.
func safeHandle(ctx context.Context, h Handler, entry stream.Entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return h.Handle(ctx, entry)
}
