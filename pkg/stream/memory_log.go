package stream

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// MemoryLog implements Log in process memory with the same ordering, group
// and pending-entry semantics as Redis Streams. It backs tests and local runs
// without a Redis server; nothing survives a restart.
type MemoryLog struct {
	mu      sync.Mutex
	now     func() time.Time
	streams map[string]*memStream
	changed chan struct{} // closed and replaced on every append
}

type memStream struct {
	entries []memEntry // sorted by id
	lastID  ID
	groups  map[string]*memGroup
}

type memEntry struct {
	id     ID
	fields Fields
}

type memGroup struct {
	lastDelivered ID
	pending       []*memPending // sorted by id
}

type memPending struct {
	id          ID
	consumer    string
	deliveredAt time.Time
	count       int64
}

var _ Log = (*MemoryLog)(nil)

// MemoryLogOption configures a MemoryLog.
type MemoryLogOption func(*MemoryLog)

// WithClock sets the time source used for entry ids and idle times.
func WithClock(now func() time.Time) MemoryLogOption {
	return func(l *MemoryLog) {
		if now != nil {
			l.now = now
		}
	}
}

// NewMemoryLog creates an empty in-memory log.
func NewMemoryLog(opts ...MemoryLogOption) *MemoryLog {
	l := &MemoryLog{
		now:     time.Now,
		streams: make(map[string]*memStream),
		changed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *MemoryLog) Append(_ context.Context, stream string, fields Fields) (string, error) {
	if len(fields) == 0 {
		return "", ErrEmptyFields
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.appendLocked(l.stream(stream), fields).String(), nil
}

func (l *MemoryLog) ReadNew(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Entry, error) {
	var deadline <-chan time.Time
	if block > 0 {
		timer := time.NewTimer(block)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		l.mu.Lock()
		s, ok := l.streams[stream]
		if !ok || s.groups[group] == nil {
			l.mu.Unlock()
			return nil, fmt.Errorf("%w: %s on %s", ErrGroupNotFound, group, stream)
		}
		g := s.groups[group]

		var out []Entry
		for _, e := range s.entries {
			if e.id.Compare(g.lastDelivered) <= 0 {
				continue
			}
			if count > 0 && int64(len(out)) >= count {
				break
			}
			g.lastDelivered = e.id
			g.pending = append(g.pending, &memPending{
				id:          e.id,
				consumer:    consumer,
				deliveredAt: l.now(),
				count:       1,
			})
			out = append(out, Entry{ID: e.id.String(), Fields: e.fields.Clone()})
		}
		changed := l.changed
		l.mu.Unlock()

		if len(out) > 0 || deadline == nil {
			return out, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, nil
		case <-changed:
		}
	}
}

func (l *MemoryLog) ReadHistory(_ context.Context, stream, group, consumer, after string, count int64) ([]Entry, error) {
	from, err := ParseID(after)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	g, err := l.group(stream, group)
	if err != nil {
		return nil, err
	}
	s := l.streams[stream]

	var out []Entry
	for _, p := range g.pending {
		if p.consumer != consumer || p.id.Compare(from) <= 0 {
			continue
		}
		if count > 0 && int64(len(out)) >= count {
			break
		}
		p.count++
		p.deliveredAt = l.now()

		// Deleted entries stay pending and come back without fields.
		fields := Fields{}
		if i, ok := s.find(p.id); ok {
			fields = s.entries[i].fields.Clone()
		}
		out = append(out, Entry{ID: p.id.String(), Fields: fields})
	}
	return out, nil
}

func (l *MemoryLog) ReadFrom(_ context.Context, stream, after string, count int64) ([]Entry, error) {
	from, err := ParseID(after)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.streams[stream]
	if !ok {
		return nil, nil
	}

	var out []Entry
	for _, e := range s.entries {
		if e.id.Compare(from) <= 0 {
			continue
		}
		if count > 0 && int64(len(out)) >= count {
			break
		}
		out = append(out, Entry{ID: e.id.String(), Fields: e.fields.Clone()})
	}
	return out, nil
}

func (l *MemoryLog) Get(_ context.Context, stream, id string) (Entry, error) {
	parsed, err := ParseID(id)
	if err != nil {
		return Entry{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.streams[stream]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	i, ok := s.find(parsed)
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	return Entry{ID: id, Fields: s.entries[i].fields.Clone()}, nil
}

func (l *MemoryLog) Pending(_ context.Context, q PendingQuery) ([]PendingEntry, error) {
	q = q.withDefaults()
	start, err := parseBound(q.Start, ID{})
	if err != nil {
		return nil, err
	}
	end, err := parseBound(q.End, MaxID)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	g, err := l.group(q.Stream, q.Group)
	if err != nil {
		return nil, err
	}

	now := l.now()
	var out []PendingEntry
	for _, p := range g.pending {
		if p.id.Compare(start) < 0 || p.id.Compare(end) > 0 {
			continue
		}
		if q.Consumer != "" && p.consumer != q.Consumer {
			continue
		}
		idle := now.Sub(p.deliveredAt)
		if idle < q.MinIdle {
			continue
		}
		if int64(len(out)) >= q.Count {
			break
		}
		out = append(out, PendingEntry{
			ID:            p.id.String(),
			Consumer:      p.consumer,
			Idle:          idle,
			DeliveryCount: p.count,
		})
	}
	return out, nil
}

func (l *MemoryLog) Ack(_ context.Context, stream, group string, ids ...string) error {
	parsed, err := parseIDs(ids)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	g, err := l.group(stream, group)
	if err != nil {
		return err
	}
	g.pending = slices.DeleteFunc(g.pending, func(p *memPending) bool {
		return slices.Contains(parsed, p.id)
	})
	return nil
}

func (l *MemoryLog) Delete(_ context.Context, stream string, ids ...string) error {
	parsed, err := parseIDs(ids)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if s, ok := l.streams[stream]; ok {
		s.delete(parsed...)
	}
	return nil
}

func (l *MemoryLog) Renew(_ context.Context, stream, id string, fields Fields) (string, error) {
	if len(fields) == 0 {
		return "", ErrEmptyFields
	}
	parsed, err := ParseID(id)
	if err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.stream(stream)
	s.delete(parsed)
	return l.appendLocked(s, fields).String(), nil
}

func (l *MemoryLog) Trim(_ context.Context, stream string, maxLen int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.streams[stream]
	if !ok {
		return nil
	}
	if extra := int64(len(s.entries)) - max(maxLen, 0); extra > 0 {
		s.entries = slices.Delete(s.entries, 0, int(extra))
	}
	return nil
}

func (l *MemoryLog) CreateGroup(_ context.Context, stream, group, start string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.stream(stream)
	if _, exists := s.groups[group]; exists {
		return nil
	}

	var cursor ID
	switch start {
	case NewOnlyID:
		cursor = s.lastID
	default:
		parsed, err := ParseID(start)
		if err != nil {
			return err
		}
		cursor = parsed
	}
	s.groups[group] = &memGroup{lastDelivered: cursor}
	return nil
}

func (l *MemoryLog) Info(_ context.Context, stream, group string) (Info, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	info := Info{Stream: stream, Group: group}
	s, ok := l.streams[stream]
	if !ok {
		return info, nil
	}
	info.Length = int64(len(s.entries))
	if g, ok := s.groups[group]; ok {
		info.Pending = int64(len(g.pending))
	}
	return info, nil
}

// stream returns the named stream, creating it when absent. Caller holds mu.
func (l *MemoryLog) stream(name string) *memStream {
	s, ok := l.streams[name]
	if !ok {
		s = &memStream{groups: make(map[string]*memGroup)}
		l.streams[name] = s
	}
	return s
}

// group returns an existing group. Caller holds mu.
func (l *MemoryLog) group(stream, group string) (*memGroup, error) {
	if s, ok := l.streams[stream]; ok {
		if g, ok := s.groups[group]; ok {
			return g, nil
		}
	}
	return nil, fmt.Errorf("%w: %s on %s", ErrGroupNotFound, group, stream)
}

// appendLocked assigns the next id the way Redis does: the current time in
// milliseconds, or the last id's millisecond with the next sequence number
// when the clock has not moved forward. Caller holds mu.
func (l *MemoryLog) appendLocked(s *memStream, fields Fields) ID {
	ms := uint64(max(l.now().UnixMilli(), 0))
	id := ID{Ms: ms}
	if ms <= s.lastID.Ms {
		id = ID{Ms: s.lastID.Ms, Seq: s.lastID.Seq + 1}
	}
	s.lastID = id
	s.entries = append(s.entries, memEntry{id: id, fields: fields.Clone()})

	close(l.changed)
	l.changed = make(chan struct{})
	return id
}

func (s *memStream) find(id ID) (int, bool) {
	return slices.BinarySearchFunc(s.entries, id, func(e memEntry, target ID) int {
		return e.id.Compare(target)
	})
}

func (s *memStream) delete(ids ...ID) {
	s.entries = slices.DeleteFunc(s.entries, func(e memEntry) bool {
		return slices.Contains(ids, e.id)
	})
}

func parseBound(s string, open ID) (ID, error) {
	if s == RangeStart || s == RangeEnd {
		return open, nil
	}
	return ParseID(s)
}

func parseIDs(ids []string) ([]ID, error) {
	out := make([]ID, 0, len(ids))
	for _, id := range ids {
		parsed, err := ParseID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, parsed)
	}
	return out, nil
}
