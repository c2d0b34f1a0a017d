// Package worker runs queued prediction jobs on a pool of goroutines.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/incomelens/internal/domain/model"
	"github.com/okian/incomelens/pkg/logger"
	"github.com/okian/incomelens/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = model.Job

// Predictor produces a result for one input. It must not fail.
type Predictor interface {
	Predict(ctx context.Context, in model.PredictionInput) model.UnifiedPredictionResult
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs and replies with their results.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)
	// Shutdown stops the worker without draining the queue.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing jobs.
type InMemoryWorker struct {
	queue     Queue
	predictor Predictor
	name      string
	tracker   *tracker

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, predictor Predictor, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		predictor: predictor,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Nop(),
		tracker:   &tracker{},
	}

	for _, opt := range opts {
		opt(w)
	}

	w.logger = w.logger.Named(w.name)

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.processJob(ctx, job)
		}
	}
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob runs one prediction and delivers it on the job's reply channel.
// Jobs whose submitter has gone away are skipped.
func (w *InMemoryWorker) processJob(runCtx context.Context, job Job) { //nolint:gocritic // hugeParam: Job must be passed by value for channel semantics
	ctx := job.Ctx
	if ctx == nil {
		ctx = runCtx
	}

	if err := ctx.Err(); err != nil {
		metrics.RecordErrorByComponent("worker", "job_cancelled")
		w.logger.Debug(ctx, "skipping cancelled job", logger.String("jobID", job.ID))
		return
	}

	w.tracker.begin()
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
		w.tracker.end()
	}()

	res := w.predictor.Predict(ctx, job.Input)

	if job.Reply == nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "no_reply_channel")
		w.logger.Error(ctx, "job has no reply channel", logger.String("jobID", job.ID))
		return
	}

	// Reply channels are buffered for the whole batch, so this never blocks.
	job.Reply <- model.JobResult{ID: job.ID, Index: job.Index, Result: res}
}

// tracker counts busy workers across a pool.
type tracker struct {
	total     int64
	active    atomic.Int64
	processed atomic.Int64
}

func (t *tracker) begin() {
	active := t.active.Add(1)
	metrics.UpdateWorkerActiveCount(int(active))
	if t.total > 0 {
		metrics.UpdateWorkerIdleCount(int(t.total - active))
	}
}

func (t *tracker) end() {
	active := t.active.Add(-1)
	t.processed.Add(1)
	metrics.UpdateWorkerActiveCount(int(active))
	if t.total > 0 {
		metrics.UpdateWorkerIdleCount(int(t.total - active))
	}
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	tracker *tracker
	started atomic.Bool

	logger logger.Logger
}

// NewPool creates a new worker pool. A non-positive workerCount defaults to
// twice the number of CPUs.
func NewPool(workerCount int, queue Queue, predictor Predictor, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		tracker: &tracker{total: int64(workerCount)},
		logger:  logger.Nop(),
	}

	for _, opt := range opts {
		opt(pool)
	}

	for i := 0; i < workerCount; i++ {
		w := NewInMemoryWorker(
			queue,
			predictor,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(pool.logger),
		)
		w.tracker = pool.tracker
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerIdleCount(workerCount)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Active returns the number of workers currently running a job.
func (p *Pool) Active() int { return int(p.tracker.active.Load()) }

// Processed returns the number of jobs completed since start.
func (p *Pool) Processed() int64 { return p.tracker.processed.Load() }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	if !p.started.Load() {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
		}
	}

	return nil
}
