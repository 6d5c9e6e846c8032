// Package dispatch runs provider and sentiment calls on a bounded, dynamically
// scaled worker pool.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	obs "github.com/fairyhunter13/ai-ethics-evaluator/internal/adapter/observability"
)

var (
	// ErrQueueFull is returned by Submit when the bounded queue has no room.
	ErrQueueFull = errors.New("dispatch queue full")
	// ErrPoolClosed is returned by Submit after Close.
	ErrPoolClosed = errors.New("dispatch pool closed")
)

// Options configures a Pool. Zero values fall back to CPU-derived defaults.
type Options struct {
	MinWorkers    int
	MaxWorkers    int
	QueueCapacity int
	// IdleTimeout retires a surplus worker that has waited this long for work.
	IdleTimeout time.Duration
}

type job struct {
	id   string
	kind string
	ctx  context.Context
	run  func(ctx context.Context)
}

// Pool is a bounded worker pool. Workers above MinWorkers are spawned when
// the queue has a backlog and retire when idle.
type Pool struct {
	minWorkers  int
	maxWorkers  int
	idleTimeout time.Duration

	queue chan job

	mu            sync.RWMutex
	activeWorkers int
	nextWorkerID  int
	closed        bool

	wg sync.WaitGroup
}

// NewPool builds a pool and starts its minimum workers.
func NewPool(opts Options) *Pool {
	if opts.MinWorkers <= 0 {
		opts.MinWorkers = runtime.NumCPU()
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = 2 * runtime.NumCPU()
	}
	if opts.MaxWorkers < opts.MinWorkers {
		opts.MaxWorkers = opts.MinWorkers
	}
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = 500
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 30 * time.Second
	}
	p := &Pool{
		minWorkers:  opts.MinWorkers,
		maxWorkers:  opts.MaxWorkers,
		idleTimeout: opts.IdleTimeout,
		queue:       make(chan job, opts.QueueCapacity),
	}
	p.mu.Lock()
	for i := 0; i < p.minWorkers; i++ {
		p.spawnLocked()
	}
	p.mu.Unlock()
	slog.Info("dispatch pool started",
		slog.Int("min_workers", p.minWorkers),
		slog.Int("max_workers", p.maxWorkers),
		slog.Int("queue_capacity", opts.QueueCapacity))
	return p
}

// Size returns the worker bounds.
func (p *Pool) Size() (minWorkers, maxWorkers int) { return p.minWorkers, p.maxWorkers }

// ActiveWorkers returns the number of running workers.
func (p *Pool) ActiveWorkers() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.activeWorkers
}

// QueueDepth returns the number of queued, not yet started tasks.
func (p *Pool) QueueDepth() int { return len(p.queue) }

func (p *Pool) enqueue(j job) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPoolClosed
	}
	select {
	case p.queue <- j:
	default:
		p.mu.RUnlock()
		return ErrQueueFull
	}
	p.mu.RUnlock()
	p.scaleUp()
	return nil
}

// scaleUp adds workers while the queue has a backlog and capacity remains.
func (p *Pool) scaleUp() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	queueLen := len(p.queue)
	added := 0
	for queueLen > added && p.activeWorkers < p.maxWorkers {
		p.spawnLocked()
		added++
	}
	if added > 0 {
		slog.Debug("scaled up workers", slog.Int("added", added), slog.Int("queue_length", queueLen), slog.Int("total_active", p.activeWorkers))
	}
	obs.SetPoolState(len(p.queue), p.activeWorkers)
}

func (p *Pool) spawnLocked() {
	p.activeWorkers++
	p.nextWorkerID++
	p.wg.Add(1)
	go p.worker(p.nextWorkerID)
}

// retire removes the calling worker when it is surplus and the queue is empty.
func (p *Pool) retire() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.activeWorkers > p.minWorkers && len(p.queue) == 0 {
		p.activeWorkers--
		obs.SetPoolState(len(p.queue), p.activeWorkers)
		return true
	}
	return false
}

func (p *Pool) worker(workerID int) {
	defer p.wg.Done()
	idle := time.NewTimer(p.idleTimeout)
	defer idle.Stop()
	jobCount := 0
	for {
		select {
		case j, ok := <-p.queue:
			if !ok {
				p.mu.Lock()
				p.activeWorkers--
				p.mu.Unlock()
				slog.Debug("worker exiting on close", slog.Int("worker_id", workerID), slog.Int("jobs_processed", jobCount))
				return
			}
			jobCount++
			p.execute(workerID, j)
			if p.retire() {
				slog.Debug("worker scaling down due to excess capacity", slog.Int("worker_id", workerID), slog.Int("jobs_processed", jobCount))
				return
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(p.idleTimeout)
		case <-idle.C:
			if p.retire() {
				slog.Debug("idle worker retired", slog.Int("worker_id", workerID), slog.Int("jobs_processed", jobCount))
				return
			}
			idle.Reset(p.idleTimeout)
		}
	}
}

func (p *Pool) execute(workerID int, j job) {
	obs.SetPoolState(len(p.queue), p.ActiveWorkers())
	defer func() {
		if r := recover(); r != nil {
			slog.Error("dispatch task panicked",
				slog.Int("worker_id", workerID),
				slog.String("task_id", j.id),
				slog.String("kind", j.kind),
				slog.Any("panic", r))
		}
	}()
	j.run(j.ctx)
}

// Close stops accepting tasks, lets workers drain the queue and waits for them.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	p.wg.Wait()
	obs.SetPoolState(0, 0)
	slog.Info("dispatch pool closed")
}

// Submit schedules fn on the pool and returns a future for its result.
func Submit[T any](ctx context.Context, p *Pool, kind string, fn func(ctx context.Context) (T, error)) (*Future[T], error) {
	f := newFuture[T](uuid.NewString(), kind)
	j := job{
		id:   f.ID,
		kind: kind,
		ctx:  ctx,
		run:  func(ctx context.Context) { runTask(ctx, f, fn) },
	}
	if err := p.enqueue(j); err != nil {
		obs.RecordTask(kind, "rejected")
		return nil, fmt.Errorf("op=dispatch.Submit: %w", err)
	}
	return f, nil
}

// SubmitOrRun is Submit with a caller-runs policy: when the queue is full fn
// runs on the calling goroutine and the returned future is already done.
func SubmitOrRun[T any](ctx context.Context, p *Pool, kind string, fn func(ctx context.Context) (T, error)) (*Future[T], error) {
	f, err := Submit(ctx, p, kind, fn)
	if !errors.Is(err, ErrQueueFull) {
		return f, err
	}
	slog.Debug("dispatch queue full; running task inline", slog.String("kind", kind))
	f = newFuture[T](uuid.NewString(), kind)
	runTask(ctx, f, fn)
	return f, nil
}

func runTask[T any](ctx context.Context, f *Future[T], fn func(ctx context.Context) (T, error)) {
	var (
		v   T
		err error
	)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("op=dispatch.%s: task panicked: %v", f.Kind, r)
		}
		f.complete(v, err)
	}()
	if err = ctx.Err(); err != nil {
		return
	}
	v, err = fn(ctx)
}

// Go is Submit for tasks without a result value.
func Go(ctx context.Context, p *Pool, kind string, fn func(ctx context.Context) error) (*Future[struct{}], error) {
	return Submit(ctx, p, kind, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
}
