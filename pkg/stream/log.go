package stream

import (
	"context"
	"time"
)

// Log is the capability surface of a durable, ordered log store.
//
// Every method may fail transiently; callers decide whether to retry.
// Implementations: RedisLog (Redis Streams) and MemoryLog (in-process).
type Log interface {
	// Append stores fields as a new entry and returns its id. Appends to
	// one stream are never reordered.
	Append(ctx context.Context, stream string, fields Fields) (string, error)

	// ReadNew claims up to count never-delivered entries for consumer,
	// adding them to the group's pending list in the same step. It blocks
	// up to block when nothing is available; block <= 0 does not block.
	// An empty result is not an error.
	ReadNew(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Entry, error)

	// ReadHistory re-reads entries pending for consumer with ids after
	// `after` (exclusive). Each returned entry's delivery count grows by one.
	ReadHistory(ctx context.Context, stream, group, consumer, after string, count int64) ([]Entry, error)

	// ReadFrom reads entries with ids after `after` (exclusive) without any
	// group bookkeeping. count <= 0 reads to the end of the stream.
	ReadFrom(ctx context.Context, stream, after string, count int64) ([]Entry, error)

	// Get returns a single entry or ErrEntryNotFound.
	Get(ctx context.Context, stream, id string) (Entry, error)

	// Pending lists pending-entry rows of a group.
	Pending(ctx context.Context, q PendingQuery) ([]PendingEntry, error)

	Ack(ctx context.Context, stream, group string, ids ...string) error
	Delete(ctx context.Context, stream string, ids ...string) error

	// Renew deletes id and appends fields again in one atomic step, giving
	// the job a fresh id and creation time.
	Renew(ctx context.Context, stream, id string, fields Fields) (string, error)

	// Trim keeps only the newest maxLen entries.
	Trim(ctx context.Context, stream string, maxLen int64) error

	// CreateGroup creates group on stream (creating the stream if needed)
	// with its cursor at start. An existing group is left untouched.
	CreateGroup(ctx context.Context, stream, group, start string) error

	// Info reports the stream length and, when group is set, its pending count.
	Info(ctx context.Context, stream, group string) (Info, error)
}

// PendingQuery selects rows of a group's pending-entry list.
type PendingQuery struct {
	Stream   string
	Group    string
	Start    string        // inclusive; defaults to RangeStart
	End      string        // inclusive; defaults to RangeEnd
	Count    int64         // defaults to DefaultPendingCount
	Consumer string        // optional: only entries held by this consumer
	MinIdle  time.Duration // optional: only entries idle at least this long
}

// DefaultPendingCount is the page size used when PendingQuery.Count is unset.
const DefaultPendingCount = 100

func (q PendingQuery) withDefaults() PendingQuery {
	if q.Start == "" {
		q.Start = RangeStart
	}
	if q.End == "" {
		q.End = RangeEnd
	}
	if q.Count <= 0 {
		q.Count = DefaultPendingCount
	}
	return q
}

// PendingEntry is one row of a pending-entry list.
type PendingEntry struct {
	ID            string
	Consumer      string
	Idle          time.Duration
	DeliveryCount int64
}

// Info summarises a stream for operational stats.
type Info struct {
	Stream  string `json:"stream"`
	Group   string `json:"group,omitempty"`
	Length  int64  `json:"length"`
	Pending int64  `json:"pending"`
}
