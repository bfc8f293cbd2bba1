package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsJobs(t *testing.T) {
	p := NewPool(4, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	var ran int32
	jobs := 100
	for i := 0; i < jobs; i++ {
		err := p.Submit(ctx, func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		})
		if err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}
	p.Close()

	if got := atomic.LoadInt32(&ran); int(got) != jobs {
		t.Fatalf("expected %d jobs executed, got %d", jobs, got)
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	p := NewPool(2, 16)
	ctx := context.Background()
	p.Start(ctx)

	var active, peak int32
	for i := 0; i < 10; i++ {
		if err := p.Submit(ctx, func(ctx context.Context) error {
			n := atomic.AddInt32(&active, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			return nil
		}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	p.Close()

	if peak > 2 {
		t.Fatalf("peak concurrency %d exceeds 2 workers", peak)
	}
}

func TestTrySubmitQueueFull(t *testing.T) {
	// no workers started, so the queue only fills
	p := NewPool(1, 2)
	noop := func(ctx context.Context) error { return nil }

	for i := 0; i < 2; i++ {
		if err := p.TrySubmit(noop); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	if err := p.TrySubmit(noop); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if p.Queued() != 2 {
		t.Fatalf("queued = %d, want 2", p.Queued())
	}
}

func TestSubmitAfterClose(t *testing.T) {
	p := NewPool(1, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	p.Close()

	noop := func(ctx context.Context) error { return nil }
	if err := p.Submit(ctx, noop); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("Submit: expected ErrPoolClosed, got %v", err)
	}
	if err := p.TrySubmit(noop); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("TrySubmit: expected ErrPoolClosed, got %v", err)
	}
}

func TestCloseUnblocksSubmit(t *testing.T) {
	p := NewPool(1, 1)
	noop := func(ctx context.Context) error { return nil }
	if err := p.Submit(context.Background(), noop); err != nil {
		t.Fatalf("setup submit failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- p.Submit(context.Background(), noop)
	}()
	time.Sleep(10 * time.Millisecond)

	// the blocked submitter must give up before Close can take the lock
	go p.Close()

	select {
	case err := <-done:
		if !errors.Is(err, ErrPoolClosed) {
			t.Fatalf("expected ErrPoolClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked Submit did not return after Close")
	}
}

func TestSubmitHonoursContext(t *testing.T) {
	p := NewPool(1, 1)
	noop := func(ctx context.Context) error { return nil }
	_ = p.TrySubmit(noop)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := p.Submit(ctx, noop); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestErrorHandlerReceivesErrorsAndPanics(t *testing.T) {
	var (
		mu   sync.Mutex
		errs []error
	)
	p := NewPool(1, 4, WithErrorHandler(func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}))
	ctx := context.Background()
	p.Start(ctx)

	boom := errors.New("boom")
	_ = p.Submit(ctx, func(ctx context.Context) error { return boom })
	_ = p.Submit(ctx, func(ctx context.Context) error { panic("bad job") })
	_ = p.Submit(ctx, func(ctx context.Context) error { return nil })
	p.Close()

	mu.Lock()
	defer mu.Unlock()
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(errs), errs)
	}
	if !errors.Is(errs[0], boom) {
		t.Errorf("first error = %v", errs[0])
	}
}

func TestContextCancellationStopsWorkers(t *testing.T) {
	p := NewPool(2, 16)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		p.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after context cancellation")
	}
}

func TestShutdownDropsQueuedJobs(t *testing.T) {
	p := NewPool(1, 8)
	p.Start(context.Background())

	started := make(chan struct{})
	release := make(chan struct{})
	var finished, queuedRan int32
	if err := p.TrySubmit(func(ctx context.Context) error {
		close(started)
		<-release
		atomic.AddInt32(&finished, 1)
		return nil
	}); err != nil {
		t.Fatalf("submit running job: %v", err)
	}
	<-started

	for i := 0; i < 3; i++ {
		if err := p.TrySubmit(func(ctx context.Context) error {
			atomic.AddInt32(&queuedRan, 1)
			return nil
		}); err != nil {
			t.Fatalf("submit queued job: %v", err)
		}
	}

	result := make(chan int, 1)
	go func() { result <- p.Shutdown() }()

	deadline := time.After(time.Second)
	for !p.discard.Load() {
		select {
		case <-deadline:
			t.Fatal("shutdown never started")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	close(release)

	select {
	case dropped := <-result:
		if dropped != 3 {
			t.Errorf("dropped %d jobs, want 3", dropped)
		}
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not return")
	}
	if atomic.LoadInt32(&finished) != 1 {
		t.Error("running job was not allowed to finish")
	}
	if got := atomic.LoadInt32(&queuedRan); got != 0 {
		t.Errorf("%d queued jobs ran after shutdown", got)
	}
	if err := p.TrySubmit(func(ctx context.Context) error { return nil }); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("submit after shutdown: err = %v", err)
	}
}
