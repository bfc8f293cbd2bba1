package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mgpai22/lingo/internal/logging"
	"github.com/mgpai22/lingo/internal/model"
	"github.com/mgpai22/lingo/internal/store"
	"github.com/mgpai22/lingo/internal/worker"
)

// ErrInFlight is returned when a video is already queued or running.
var ErrInFlight = errors.New("video already queued")

// Runner processes one video.
type Runner interface {
	Run(ctx context.Context, videoID int64) Result
}

// Dispatcher hands video runs to a worker pool and returns immediately.
// The same video is never queued twice at once.
type Dispatcher struct {
	pool   *worker.Pool
	runner Runner
	logger *logging.Logger

	mu       sync.Mutex
	inflight map[int64]struct{}
}

func NewDispatcher(pool *worker.Pool, runner Runner, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Dispatcher{
		pool:     pool,
		runner:   runner,
		logger:   logger,
		inflight: make(map[int64]struct{}),
	}
}

// Submit accepts videoID for background processing. It fails with
// ErrInFlight for a duplicate and worker.ErrQueueFull when the pool is
// saturated, letting the caller retry later.
func (d *Dispatcher) Submit(videoID int64) error {
	d.mu.Lock()
	if _, ok := d.inflight[videoID]; ok {
		d.mu.Unlock()
		return ErrInFlight
	}
	d.inflight[videoID] = struct{}{}
	d.mu.Unlock()

	err := d.pool.TrySubmit(func(ctx context.Context) error {
		defer d.release(videoID)
		res := d.runner.Run(ctx, videoID)
		if !res.Success {
			return fmt.Errorf("video %d: %s", videoID, res.Message)
		}
		d.logger.Infow("Video processed", "video_id", videoID, "message", res.Message)
		return nil
	})
	if err != nil {
		d.release(videoID)
		return err
	}
	d.logger.Debugw("Video accepted", "video_id", videoID, "queued", d.pool.Queued())
	return nil
}

func (d *Dispatcher) release(videoID int64) {
	d.mu.Lock()
	delete(d.inflight, videoID)
	d.mu.Unlock()
}

// InFlight returns the ids currently queued or running, sorted.
func (d *Dispatcher) InFlight() []int64 {
	d.mu.Lock()
	ids := make([]int64, 0, len(d.inflight))
	for id := range d.inflight {
		ids = append(ids, id)
	}
	d.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// PendingLister lists videos waiting to be processed.
type PendingLister interface {
	ListVideos(ctx context.Context, filter store.ListFilter) ([]model.Video, error)
}

// Poller periodically submits pending videos to a Dispatcher.
type Poller struct {
	videos     PendingLister
	dispatcher *Dispatcher
	interval   time.Duration
	batch      int
	logger     *logging.Logger
}

func NewPoller(videos PendingLister, dispatcher *Dispatcher, interval time.Duration, batch int, logger *logging.Logger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if batch <= 0 {
		batch = 16
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Poller{
		videos:     videos,
		dispatcher: dispatcher,
		interval:   interval,
		batch:      batch,
		logger:     logger,
	}
}

// Run polls until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	for {
		if _, err := p.Poll(ctx); err != nil {
			if errors.Is(err, worker.ErrPoolClosed) {
				return nil
			}
			if ctx.Err() == nil {
				p.logger.Errorw("Failed to poll pending videos", "error", err)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(p.interval):
		}
	}
}

// Poll submits one batch of pending videos and returns how many were accepted.
// A full queue ends the batch early; the rest are picked up on a later poll.
func (p *Poller) Poll(ctx context.Context) (int, error) {
	videos, err := p.videos.ListVideos(ctx, store.ListFilter{Status: model.StatusPending, Limit: p.batch})
	if err != nil {
		return 0, err
	}

	accepted := 0
	for _, v := range videos {
		err := p.dispatcher.Submit(v.ID)
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, ErrInFlight):
			continue
		case errors.Is(err, worker.ErrQueueFull):
			p.logger.Debugw("Worker queue full, deferring", "video_id", v.ID)
			return accepted, nil
		default:
			return accepted, err
		}
	}
	if accepted > 0 {
		p.logger.Infow("Pending videos submitted", "accepted", accepted, "found", len(videos))
	}
	return accepted, nil
}
