package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/streamq/pkg/stream"
)

// DeadLetter describes an entry dropped after exhausting its delivery budget.
type DeadLetter struct {
	Entry      stream.Entry
	Stream     string
	Group      string
	Consumer   string
	Deliveries int64
	Reason     string
	DroppedAt  time.Time
}

// DeadLetterSink receives dropped entries.
type DeadLetterSink interface {
	OnDropped(ctx context.Context, dl DeadLetter) error
}

// DeadLetterFunc adapts a function to DeadLetterSink.
type DeadLetterFunc func(ctx context.Context, dl DeadLetter) error

func (f DeadLetterFunc) OnDropped(ctx context.Context, dl DeadLetter) error {
	return f(ctx, dl)
}

// Metadata fields added to every record of a dead-letter stream.
const (
	FieldDeadSourceStream = "dlq_source_stream"
	FieldDeadSourceID     = "dlq_source_id"
	FieldDeadConsumer     = "dlq_consumer"
	FieldDeadDeliveries   = "dlq_deliveries"
	FieldDeadReason       = "dlq_reason"
	FieldDeadDroppedAt    = "dlq_dropped_at"
	FieldDeadRecordID     = "dlq_record_id"
)

// StreamDeadLetter appends dropped entries to a dead-letter stream capped at
// maxLen entries (0 keeps everything).
type StreamDeadLetter struct {
	log    stream.Log
	stream string
	maxLen int64
}

var _ DeadLetterSink = (*StreamDeadLetter)(nil)

// NewStreamDeadLetter creates a sink writing to streamName.
func NewStreamDeadLetter(log stream.Log, streamName string, maxLen int64) (*StreamDeadLetter, error) {
	if log == nil {
		return nil, ErrLogNil
	}
	if streamName == "" {
		return nil, ErrEmptyStreamName
	}
	return &StreamDeadLetter{log: log, stream: streamName, maxLen: max(maxLen, 0)}, nil
}

// OnDropped stores the dropped entry's fields plus dlq_* metadata.
func (s *StreamDeadLetter) OnDropped(ctx context.Context, dl DeadLetter) error {
	fields := dl.Entry.Fields.Clone()
	fields[FieldDeadSourceStream] = dl.Stream
	fields[FieldDeadSourceID] = dl.Entry.ID
	fields[FieldDeadConsumer] = dl.Consumer
	fields[FieldDeadDeliveries] = strconv.FormatInt(dl.Deliveries, 10)
	fields[FieldDeadReason] = dl.Reason
	fields[FieldDeadDroppedAt] = dl.DroppedAt.UTC().Format(time.RFC3339Nano)
	fields[FieldDeadRecordID] = uuid.NewString()

	if _, err := s.log.Append(ctx, s.stream, fields); err != nil {
		return errors.Join(ErrDeadLetter, err)
	}
	if s.maxLen > 0 {
		if err := s.log.Trim(ctx, s.stream, s.maxLen); err != nil {
			return fmt.Errorf("%w: trim %s: %w", ErrDeadLetter, s.stream, err)
		}
	}
	return nil
}
