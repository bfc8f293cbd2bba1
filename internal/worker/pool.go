// Package worker runs background jobs on a fixed number of goroutines.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Job is a unit of work submitted to the Pool.
type Job func(ctx context.Context) error

var (
	// ErrPoolClosed is returned when submitting after Close.
	ErrPoolClosed = errors.New("worker pool closed")
	// ErrQueueFull is returned by TrySubmit when no queue slot is free.
	ErrQueueFull = errors.New("worker queue full")
)

// Pool runs jobs using a fixed number of goroutines fed by a bounded queue.
type Pool struct {
	jobs    chan Job
	done    chan struct{}
	wg      sync.WaitGroup
	workers int
	onError func(error)

	// set by Shutdown; queued jobs are dropped instead of run
	discard atomic.Bool
	dropped atomic.Int64

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	startOnce sync.Once
}

// Option configures a Pool.
type Option func(*Pool)

// WithErrorHandler receives every error returned (or panic raised) by a job.
func WithErrorHandler(fn func(error)) Option {
	return func(p *Pool) { p.onError = fn }
}

// NewPool creates a pool with the given number of workers and queue capacity.
func NewPool(workers, queue int, opts ...Option) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queue <= 0 {
		queue = workers * 2
	}
	p := &Pool{
		jobs:    make(chan Job, queue),
		done:    make(chan struct{}),
		workers: workers,
		onError: func(error) {},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the workers. They run until ctx is done or the pool is closed.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				for {
					select {
					case <-ctx.Done():
						return
					case job, ok := <-p.jobs:
						if !ok {
							return
						}
						if p.discard.Load() {
							p.dropped.Add(1)
							continue
						}
						if err := p.run(ctx, job); err != nil {
							p.onError(err)
						}
					}
				}
			}()
		}
	})
}

func (p *Pool) run(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job(ctx)
}

// Submit enqueues job, blocking while the queue is full.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.jobs <- job:
		return nil
	case <-p.done:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySubmit enqueues job without blocking and returns ErrQueueFull when
// the queue has no room.
func (p *Pool) TrySubmit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Queued returns the number of jobs waiting for a worker.
func (p *Pool) Queued() int {
	return len(p.jobs)
}

// Close stops accepting jobs, lets workers finish what is queued and waits for them.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
		p.mu.Lock()
		p.closed = true
		close(p.jobs)
		p.mu.Unlock()
	})
	p.wg.Wait()
}

// Shutdown stops accepting jobs, drops everything still queued and waits for
// the jobs already running. It returns the number of dropped jobs.
func (p *Pool) Shutdown() int {
	p.discard.Store(true)
	p.Close()
	return int(p.dropped.Load())
}
