package stream

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLog implements Log on Redis Streams.
type RedisLog struct {
	client redis.UniversalClient
}

var _ Log = (*RedisLog)(nil)

// NewRedisLog wraps a go-redis client. The client's pool is shared by every
// caller; RedisLog holds no connection between calls.
func NewRedisLog(client redis.UniversalClient) *RedisLog {
	return &RedisLog{client: client}
}

func (l *RedisLog) Append(ctx context.Context, stream string, fields Fields) (string, error) {
	if len(fields) == 0 {
		return "", ErrEmptyFields
	}
	return l.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: fields.Pairs(),
	}).Result()
}

func (l *RedisLog) ReadNew(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Entry, error) {
	res, err := l.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    blockArg(block),
	}).Result()
	return fromStreams(res, err)
}

func (l *RedisLog) ReadHistory(ctx context.Context, stream, group, consumer, after string, count int64) ([]Entry, error) {
	res, err := l.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, after},
		Count:    count,
		Block:    -1,
	}).Result()
	return fromStreams(res, err)
}

func (l *RedisLog) ReadFrom(ctx context.Context, stream, after string, count int64) ([]Entry, error) {
	res, err := l.client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{stream, after},
		Count:   max(count, 0),
		Block:   -1,
	}).Result()
	return fromStreams(res, err)
}

func (l *RedisLog) Get(ctx context.Context, stream, id string) (Entry, error) {
	msgs, err := l.client.XRangeN(ctx, stream, id, id, 1).Result()
	if err != nil {
		return Entry{}, err
	}
	if len(msgs) == 0 {
		return Entry{}, ErrEntryNotFound
	}
	return fromMessage(msgs[0]), nil
}

// Pending runs the extended XPENDING form. The idle filter is applied to the
// returned page on the client so that servers without XPENDING IDLE work too.
// Pending passes MinIdle to XPENDING IDLE so the server filters before
// applying Count; young entries never hide older ones.
func (l *RedisLog) Pending(ctx context.Context, q PendingQuery) ([]PendingEntry, error) {
	q = q.withDefaults()
	rows, err := l.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream:   q.Stream,
		Group:    q.Group,
		Idle:     q.MinIdle,
		Start:    q.Start,
		End:      q.End,
		Count:    q.Count,
		Consumer: q.Consumer,
	}).Result()
	if err != nil {
		if isNoGroup(err) {
			return nil, errors.Join(ErrGroupNotFound, err)
		}
		return nil, err
	}

	out := make([]PendingEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, PendingEntry{
			ID:            r.ID,
			Consumer:      r.Consumer,
			Idle:          r.Idle,
			DeliveryCount: r.RetryCount,
		})
	}
	return out, nil
}

func (l *RedisLog) Ack(ctx context.Context, stream, group string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return l.client.XAck(ctx, stream, group, ids...).Err()
}

func (l *RedisLog) Delete(ctx context.Context, stream string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return l.client.XDel(ctx, stream, ids...).Err()
}

func (l *RedisLog) Renew(ctx context.Context, stream, id string, fields Fields) (string, error) {
	if len(fields) == 0 {
		return "", ErrEmptyFields
	}

	var add *redis.StringCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.XDel(ctx, stream, id)
		add = pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: stream,
			Values: fields.Pairs(),
		})
		return nil
	})
	if err != nil {
		return "", err
	}
	return add.Val(), nil
}

func (l *RedisLog) Trim(ctx context.Context, stream string, maxLen int64) error {
	return l.client.XTrimMaxLen(ctx, stream, maxLen).Err()
}

func (l *RedisLog) CreateGroup(ctx context.Context, stream, group, start string) error {
	err := l.client.XGroupCreateMkStream(ctx, stream, group, start).Err()
	if err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil
	}
	return err
}

func (l *RedisLog) Info(ctx context.Context, stream, group string) (Info, error) {
	info := Info{Stream: stream, Group: group}

	n, err := l.client.XLen(ctx, stream).Result()
	if err != nil {
		return info, err
	}
	info.Length = n

	if group == "" {
		return info, nil
	}

	summary, err := l.client.XPending(ctx, stream, group).Result()
	switch {
	case err == nil:
		info.Pending = summary.Count
	case errors.Is(err, redis.Nil), isNoGroup(err):
		// No group yet means nothing is pending.
	default:
		return info, err
	}
	return info, nil
}

// blockArg converts a block duration to go-redis semantics, where a zero
// Block means "block forever" and a negative one disables blocking.
func blockArg(block time.Duration) time.Duration {
	if block <= 0 {
		return -1
	}
	return block
}

func isNoGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "NOGROUP")
}

func fromStreams(res []redis.XStream, err error) ([]Entry, error) {
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if isNoGroup(err) {
			return nil, errors.Join(ErrGroupNotFound, err)
		}
		return nil, err
	}

	var out []Entry
	for _, s := range res {
		for _, msg := range s.Messages {
			out = append(out, fromMessage(msg))
		}
	}
	return out, nil
}

func fromMessage(msg redis.XMessage) Entry {
	fields := make(Fields, len(msg.Values))
	for k, v := range msg.Values {
		if s, ok := v.(string); ok {
			fields[k] = s
		}
	}
	return Entry{ID: msg.ID, Fields: fields}
}
