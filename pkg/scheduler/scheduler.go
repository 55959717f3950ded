package scheduler

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type workRequest[T any] struct {
	fn     Work[T]
	ctx    context.Context
	future *Future[T]
}

func (r workRequest[T]) run() {
	if err := r.ctx.Err(); err != nil {
		r.future.resolve(Result[T]{Err: err})
		return
	}

	var result Result[T]
	func() {
		defer func() {
			if p := recover(); p != nil {
				zap.S().Named("scheduler").Errorw("worker panicked", "panic", p)
				result = Result[T]{Err: fmt.Errorf("worker panicked: %v", p)}
			}
		}()
		v, err := r.fn(r.ctx)
		result = Result[T]{Data: v, Err: err}
	}()
	r.future.resolve(result)
}

// Scheduler runs work on a fixed number of workers, in submission order.
type Scheduler[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []workRequest[T]
	closed bool

	wg         sync.WaitGroup
	mainCtx    context.Context
	mainCancel context.CancelFunc
}

func NewScheduler[T any](nbWorkers int) *Scheduler[T] {
	if nbWorkers < 1 {
		nbWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler[T]{
		mainCtx:    ctx,
		mainCancel: cancel,
	}
	s.cond = sync.NewCond(&s.mu)

	s.wg.Add(nbWorkers)
	for range nbWorkers {
		go s.worker()
	}
	return s
}

// AddWork queues w. After Close the returned future resolves with context.Canceled.
func (s *Scheduler[T]) AddWork(w Work[T]) *Future[T] {
	ctx, cancel := context.WithCancel(s.mainCtx)
	f := newFuture[T](cancel)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		f.resolve(Result[T]{Err: context.Canceled})
		return f
	}
	s.queue = append(s.queue, workRequest[T]{fn: w, ctx: ctx, future: f})
	s.cond.Signal()
	return f
}

// Close cancels queued and running work and waits for the workers to return.
func (s *Scheduler[T]) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		for _, r := range s.queue {
			r.future.resolve(Result[T]{Err: context.Canceled})
		}
		s.queue = nil
		s.cond.Broadcast()
	}
	s.mu.Unlock()

	s.mainCancel()
	s.wg.Wait()
}

func (s *Scheduler[T]) worker() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		r := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		r.run()
	}
}
