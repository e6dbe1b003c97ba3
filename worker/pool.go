package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/kbukum/whisper-srt/logger"
)

var (
	// ErrQueueFull is returned by Submit when the backlog has no room.
	ErrQueueFull = errors.New("worker queue is full")
	// ErrPoolStopped is returned by Submit after Stop.
	ErrPoolStopped = errors.New("worker pool is stopped")
)

// Job is one unit of background work.
type Job struct {
	// ID identifies the job in logs, usually the task id.
	ID string
	// Run does the work. Its context is cancelled on JobTimeout and on
	// forced shutdown.
	Run func(ctx context.Context) error
	// Fail is called with the cause when Run panics. It is optional.
	Fail func(err error)
}

// PanicError wraps a recovered panic.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("job panicked: %v", e.Value)
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	Workers   int `json:"workers"`
	Busy      int `json:"busy"`
	Queued    int `json:"queued"`
	QueueSize int `json:"queue_size"`
}

// Observer receives pool events. Embed NopObserver to implement a subset.
type Observer interface {
	JobQueued(depth int)
	JobStarted(id string, waited time.Duration)
	JobFinished(id string, took time.Duration, err error)
	JobRejected(id string)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) JobQueued(int)                            {}
func (NopObserver) JobStarted(string, time.Duration)         {}
func (NopObserver) JobFinished(string, time.Duration, error) {}
func (NopObserver) JobRejected(string)                       {}

type queued struct {
	job      Job
	enqueued time.Time
}

// Pool is a fixed set of workers reading from a bounded queue.
type Pool struct {
	cfg      Config
	log      *logger.Logger
	observer Observer

	queue chan queued
	wg    sync.WaitGroup

	// baseCtx is cancelled when Stop gives up waiting.
	baseCtx context.Context
	cancel  context.CancelFunc

	mu      sync.RWMutex
	started bool
	stopped bool
	busy    int
}

// New creates a pool. Workers start with Start.
func New(cfg Config, log *logger.Logger, observer Observer) *Pool {
	cfg.ApplyDefaults()
	if observer == nil {
		observer = NopObserver{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		cfg:      cfg,
		log:      log.WithComponent("worker"),
		observer: observer,
		queue:    make(chan queued, cfg.QueueSize),
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.loop()
	}
	p.log.Info("Worker pool started", logger.Fields("workers", p.cfg.Workers, "queue_size", p.cfg.QueueSize))
}

// Submit enqueues job without blocking.
func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		p.observer.JobRejected(job.ID)
		return ErrPoolStopped
	}

	select {
	case p.queue <- queued{job: job, enqueued: time.Now()}:
		p.observer.JobQueued(len(p.queue))
		return nil
	default:
		p.observer.JobRejected(job.ID)
		p.log.Warn("Job rejected, queue full", logger.Fields(logger.FieldTaskID, job.ID, "queued", len(p.queue)))
		return ErrQueueFull
	}
}

// Stop refuses new jobs and waits for queued and running jobs to finish.
// When ctx expires first, running jobs are cancelled and Stop returns
// ctx.Err() once the workers exit.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	started := p.started
	close(p.queue)
	p.mu.Unlock()

	if !started {
		// Nothing will ever read the backlog.
		p.cancel()
		return nil
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.log.Info("Worker pool drained")
		return nil
	case <-ctx.Done():
		p.log.Warn("Worker pool drain timed out, cancelling running jobs")
		p.cancel()
		<-done
		return ctx.Err()
	}
}

// Stats returns the current load.
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Stats{
		Workers:   p.cfg.Workers,
		Busy:      p.busy,
		Queued:    len(p.queue),
		QueueSize: p.cfg.QueueSize,
	}
}

func (p *Pool) loop() {
	defer p.wg.Done()
	for q := range p.queue {
		p.setBusy(1)
		p.run(q)
		p.setBusy(-1)
	}
}

func (p *Pool) setBusy(delta int) {
	p.mu.Lock()
	p.busy += delta
	p.mu.Unlock()
}

func (p *Pool) run(q queued) {
	started := time.Now()
	p.observer.JobStarted(q.job.ID, started.Sub(q.enqueued))

	ctx := p.baseCtx
	var cancel context.CancelFunc
	if p.cfg.JobTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, p.cfg.JobTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	err := p.safeRun(ctx, q.job)
	p.observer.JobFinished(q.job.ID, time.Since(started), err)
}

func (p *Pool) safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		perr := &PanicError{Value: r, Stack: debug.Stack()}
		p.log.Error("Job panicked", logger.Fields(logger.FieldTaskID, job.ID, "panic", fmt.Sprint(r), "stack", string(perr.Stack)))
		if job.Fail != nil {
			job.Fail(perr)
		}
		err = perr
	}()
	return job.Run(ctx)
}
