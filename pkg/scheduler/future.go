package scheduler

import "context"

// Work is one unit of work. It must return when ctx is cancelled.
type Work[T any] func(ctx context.Context) (T, error)

type Result[T any] struct {
	Data T
	Err  error
}

// Future receives the result of a Work submitted to a Scheduler.
type Future[T any] struct {
	c      chan Result[T]
	cancel context.CancelFunc
}

func newFuture[T any](cancel context.CancelFunc) *Future[T] {
	return &Future[T]{c: make(chan Result[T], 1), cancel: cancel}
}

// C delivers exactly one result.
func (f *Future[T]) C() <-chan Result[T] {
	return f.c
}

// Stop cancels the work. Work that has not started yet never runs.
func (f *Future[T]) Stop() {
	f.cancel()
}

// Wait blocks until the result arrives or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case r := <-f.c:
		return r.Data, r.Err
	case <-ctx.Done():
		var none T
		return none, ctx.Err()
	}
}

func (f *Future[T]) resolve(r Result[T]) {
	f.c <- r
	f.cancel()
}
