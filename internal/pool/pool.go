package pool

import (
	"fmt"
	"sync"

	"github.com/alitto/pond/v2"

	"github.com/dreamware/examgrader/internal/errs"
)

// Pool is a bounded task pool. A zero Pool is not usable; use New.
type Pool struct {
	inner   pond.Pool
	mu      sync.Mutex
	stopped bool
}

// New creates a Pool backed by size goroutines.
func New(size int) *Pool {
	return &Pool{inner: pond.NewPool(size)}
}

// Future is the result of one Submit call. Wait blocks until the task has
// run, returning its result or the error captured from a panic.
type Future[R any] struct {
	done   chan struct{}
	result R
	err    error
}

// Wait blocks until the task completes and returns its result.
func (f *Future[R]) Wait() (R, error) {
	<-f.done
	return f.result, f.err
}

// Submit schedules fn on p and returns a Future for its result. Submit
// returns errs.ErrShutdownRequested without running fn if p has already
// been stopped.
func Submit[R any](p *Pool, fn func() R) (*Future[R], error) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil, errs.ErrShutdownRequested
	}
	p.mu.Unlock()

	fut := &Future[R]{done: make(chan struct{})}
	p.inner.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				fut.err = fmt.Errorf("task panic: %v", r)
			}
			close(fut.done)
		}()
		fut.result = fn()
	})
	return fut, nil
}

// Stop marks the pool closed to new submissions and blocks until every
// already-submitted task has finished running.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()
	p.inner.StopAndWait()
}
