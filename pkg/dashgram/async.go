package dashgram

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Pending is the handle of an asynchronous call.
type Pending struct {
	done chan struct{}
	ok   bool
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// resolved returns a Pending that is already complete.
func resolved(ok bool, err error) *Pending {
	p := newPending()
	p.complete(ok, err)
	return p
}

func (p *Pending) complete(ok bool, err error) {
	p.ok, p.err = ok, err
	close(p.done)
}

// Done is closed once the call has completed.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the call completes or ctx is done. The result follows
// the same contract as the blocking call.
func (p *Pending) Wait(ctx context.Context) (bool, error) {
	select {
	case <-p.done:
		return p.ok, p.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// executor runs asynchronous calls for one client. At most limit calls
// hold a slot at a time; submission never blocks. Each submitted call gets
// a goroutine immediately, so waiting calls are not bounded by limit.
type executor struct {
	slots chan struct{}
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func newExecutor(limit int) *executor {
	return &executor{slots: make(chan struct{}, limit)}
}

func (e *executor) submit(logger *slog.Logger, fn func() (bool, error)) *Pending {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return resolved(false, ErrClosed)
	}
	e.wg.Add(1)
	e.mu.Unlock()

	p := newPending()
	go func() {
		defer e.wg.Done()
		e.slots <- struct{}{}
		defer func() { <-e.slots }()

		ok, err := run(logger, fn)
		p.complete(ok, err)
	}()
	return p
}

// run calls fn, turning a panic into an error.
func run(logger *slog.Logger, fn func() (bool, error)) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("tracking call panicked", "panic", r)
			ok, err = false, fmt.Errorf("dashgram: tracking call panicked: %v", r)
		}
	}()
	return fn()
}

// close rejects new work and waits for running calls.
func (e *executor) close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.wg.Wait()
}
