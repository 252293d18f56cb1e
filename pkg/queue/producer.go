package queue

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/streamq/pkg/stream"
)

// Producer appends typed payloads to a stream.
type Producer[T any] struct {
	log    stream.Log
	stream string
	codec  stream.Codec[T]
}

// NewProducer creates a producer for streamName.
func NewProducer[T any](log stream.Log, streamName string, codec stream.Codec[T]) (*Producer[T], error) {
	if log == nil {
		return nil, ErrLogNil
	}
	if codec == nil {
		return nil, ErrCodecNil
	}
	if streamName == "" {
		return nil, ErrEmptyStreamName
	}
	return &Producer[T]{log: log, stream: streamName, codec: codec}, nil
}

// Enqueue encodes v and appends it, returning the new entry id.
func (p *Producer[T]) Enqueue(ctx context.Context, v T) (string, error) {
	fields, err := p.codec.Encode(v)
	if err != nil {
		return "", fmt.Errorf("%w: encode %T: %w", ErrEnqueue, v, err)
	}

	id, err := p.log.Append(ctx, p.stream, fields)
	if err != nil {
		return "", fmt.Errorf("%w: append to %q: %w", ErrEnqueue, p.stream, err)
	}
	return id, nil
}

// EnqueueBatch appends every payload in order and returns their ids. It
// stops at the first failure.
func (p *Producer[T]) EnqueueBatch(ctx context.Context, items ...T) ([]string, error) {
	ids := make([]string, 0, len(items))
	for _, v := range items {
		id, err := p.Enqueue(ctx, v)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Stream returns the target stream name.
func (p *Producer[T]) Stream() string {
	return p.stream
}
