package queue_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/streamq/pkg/stream"
)

// fakeClock is a manually advanced time source shared by the log and the queues.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

var errBusiness = errors.New("smtp unavailable")

// countingHandler fails the first `failures` calls, then succeeds.
// A negative failures value fails forever.
type countingHandler struct {
	calls    atomic.Int32
	failures int32
	mu       sync.Mutex
	seen     []stream.Entry
}

func (h *countingHandler) Handle(_ context.Context, e stream.Entry) error {
	n := h.calls.Add(1)
	h.mu.Lock()
	h.seen = append(h.seen, e)
	h.mu.Unlock()
	if h.failures < 0 || n <= h.failures {
		return errBusiness
	}
	return nil
}

func (h *countingHandler) Calls() int {
	return int(h.calls.Load())
}

func (h *countingHandler) Seen() []stream.Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]stream.Entry, len(h.seen))
	copy(out, h.seen)
	return out
}

// mailFields mirrors the shape of a mail job.
func mailFields(to string) stream.Fields {
	return stream.Fields{"to": to, "subject": "Welcome", "link": "https://example.com/confirm"}
}

// mailCodec requires every mail field.
type mailCodec struct{}

func (mailCodec) Encode(f stream.Fields) (stream.Fields, error) {
	return f.Clone(), nil
}

func (mailCodec) Decode(f stream.Fields) (stream.Fields, error) {
	if err := f.Require("to", "subject", "link"); err != nil {
		return nil, err
	}
	return f, nil
}
