// Package workerpool runs tasks on a bounded set of goroutines and hands
// back a Future per task.
//
// A failing task never cancels its siblings: its error, or the panic it
// raised, is delivered on its own Future and nowhere else.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrClosed is returned by futures submitted after Close.
var ErrClosed = errors.New("workerpool: closed")

// Pool is a bounded worker pool. Submit blocks while every worker is busy,
// which keeps the number of in-flight tasks at the pool size.
type Pool struct {
	workers int

	mu     sync.Mutex
	g      errgroup.Group
	closed bool
	once   sync.Once
}

// New returns a pool of n workers. n <= 0 selects runtime.NumCPU().
func New(n int) *Pool {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	p := &Pool{workers: n}
	p.g.SetLimit(n)
	return p
}

// Workers returns the pool size.
func (p *Pool) Workers() int { return p.workers }

// Close stops accepting work and waits for running tasks. It is safe to call
// more than once.
func (p *Pool) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		_ = p.g.Wait()
	})
}

// PanicError carries a value recovered from a task panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// Future is the pending result of one task.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Get blocks until the task finishes and returns its result.
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.val, f.err
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

func (f *Future[T]) resolve(v T, err error) {
	f.val, f.err = v, err
	close(f.done)
}

// Submit schedules task on p. It blocks until a worker is free. If ctx is
// already done, or p is closed, the returned future fails without running
// the task.
func Submit[T any](ctx context.Context, p *Pool, task func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	var zero T

	if err := ctx.Err(); err != nil {
		f.resolve(zero, err)
		return f
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		f.resolve(zero, ErrClosed)
		return f
	}

	p.g.Go(func() error {
		v, err := run(ctx, task)
		f.resolve(v, err)
		return nil
	})
	return f
}

func run[T any](ctx context.Context, task func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v, err = zero, &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	return task(ctx)
}
