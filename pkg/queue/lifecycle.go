package queue

import (
	"context"
	"sync"
	"time"
)

// lifecycle owns the goroutines of a running component.
type lifecycle struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (l *lifecycle) start(ctx context.Context, loops ...func(context.Context)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	for _, loop := range loops {
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			loop(runCtx)
		}()
	}
	return nil
}

// stop cancels the loops and waits for them. A positive timeout bounds the
// wait; loops still running afterwards are abandoned with ErrShutdownTimeout.
func (l *lifecycle) stop(timeout time.Duration) error {
	l.mu.Lock()
	cancel := l.cancel
	l.cancel = nil
	l.mu.Unlock()

	if cancel == nil {
		return ErrNotStarted
	}

	cancel()

	if timeout <= 0 {
		l.wg.Wait()
		return nil
	}

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-done:
		return nil
	case <-t.C:
		return ErrShutdownTimeout
	}
}

// runFunc adapts Start/Stop to an errgroup-friendly function.
func runFunc(ctx context.Context, start func(context.Context) error, stop func() error) func() error {
	return func() error {
		if err := start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return stop()
	}
}

// sleep waits for d or until ctx is done; it reports whether ctx is still alive.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// handlerContext detaches handler work from loop cancellation so that a
// shutdown lets the in-flight entry finish.
func handlerContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if timeout <= 0 {
		return context.WithCancel(detached)
	}
	return context.WithTimeout(detached, timeout)
}
