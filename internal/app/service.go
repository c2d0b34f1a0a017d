// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/incomelens/internal/adapters/dataset"
	jobqueue "github.com/okian/incomelens/internal/adapters/mq/queue"
	workerpool "github.com/okian/incomelens/internal/adapters/mq/worker"
	"github.com/okian/incomelens/internal/domain/model"
	"github.com/okian/incomelens/pkg/logger"
	"github.com/okian/incomelens/pkg/metrics"
)

const stopTimeout = 30 * time.Second

// Sentinel errors returned by the service.
var (
	ErrBackpressure       = model.ErrBackpressure
	ErrNotStarted         = errors.New("service not started")
	ErrDatasetUnavailable = model.ErrDatasetUnavailable
	ErrEmptyBatch         = errors.New("batch has no inputs")
)

// Predictor is the orchestrator as seen by the service.
type Predictor interface {
	Predict(ctx context.Context, in model.PredictionInput) model.UnifiedPredictionResult
	Estimate(in model.PredictionInput) model.SalaryEstimate
}

// Service implements the API dependencies for the income predictor.
type Service struct {
	mu sync.RWMutex

	// Core components
	predictor  Predictor
	queue      *jobqueue.InMemoryQueue
	workerPool *workerpool.Pool
	summary    *dataset.Summary

	// Configuration
	workerCount  int
	queueSize    int
	datasetPath  string
	cleanDataset bool

	// State
	started   bool
	startedAt time.Time
	cancel    context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of batch worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the batch job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDatasetPath sets the CSV summarized at start. Empty disables it.
func WithDatasetPath(path string) Option {
	return func(s *Service) {
		s.datasetPath = path
	}
}

// WithDatasetCleaning runs the cleaner before analysis.
func WithDatasetCleaning(clean bool) Option {
	return func(s *Service) {
		s.cleanDataset = clean
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service around a predictor.
func New(predictor Predictor, opts ...Option) *Service {
	s := &Service{
		predictor:   predictor,
		workerCount: runtime.NumCPU() * 2,
		queueSize:   1024,
		logger:      logger.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads the dataset and starts the batch worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting income prediction service...")

	s.loadDataset(ctx)

	// Workers outlive the start call; Stop cancels them after draining.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.queue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.queue, s.predictor,
		workerpool.WithPoolLogger(s.logger.Named("worker")),
	)
	s.workerPool.Start(runCtx)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "income prediction service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Any("datasetLoaded", s.summary != nil),
	)

	return nil
}

// loadDataset summarizes the configured CSV. Failures leave the summary
// unavailable without failing start.
func (s *Service) loadDataset(ctx context.Context) {
	if s.datasetPath == "" {
		metrics.UpdateDataset(false, 0)
		return
	}

	table, err := dataset.LoadFile(s.datasetPath)
	if err != nil {
		metrics.UpdateDataset(false, 0)
		metrics.RecordErrorByComponent("dataset", "load_failed")
		s.logger.Warn(ctx, "dataset not loaded",
			logger.String("path", s.datasetPath),
			logger.Error(err),
		)
		return
	}

	if s.cleanDataset {
		table = dataset.Clean(table)
	}

	summary := dataset.Analyze(table)
	s.summary = &summary
	metrics.UpdateDataset(true, summary.TotalRows)
	s.logger.Info(ctx, "dataset loaded",
		logger.String("path", s.datasetPath),
		logger.Int("rows", summary.TotalRows),
		logger.Int("columns", len(summary.Columns)),
	)
}

// Stop closes the queue, waits for queued jobs to finish and stops the workers.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping income prediction service...")

	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "worker pool shutdown failed", logger.Error(err))
	}
	s.cancel()

	s.started = false
	s.logger.Info(ctx, "income prediction service stopped")
}

// Predict runs one prediction. It never fails.
func (s *Service) Predict(ctx context.Context, in model.PredictionInput) model.UnifiedPredictionResult {
	return s.predictor.Predict(ctx, in)
}

// Estimate runs the heuristic estimator only.
func (s *Service) Estimate(_ context.Context, in model.PredictionInput) model.SalaryEstimate {
	return s.predictor.Estimate(in)
}

// PredictBatch runs every input on the worker pool and returns the results
// in input order. A batch that does not fit in the queue is rejected with
// ErrBackpressure and the jobs already accepted are cancelled.
func (s *Service) PredictBatch(ctx context.Context, inputs []model.PredictionInput) ([]model.UnifiedPredictionResult, error) {
	s.mu.RLock()
	started, queue := s.started, s.queue
	s.mu.RUnlock()

	if !started {
		return nil, ErrNotStarted
	}
	if len(inputs) == 0 {
		return nil, ErrEmptyBatch
	}

	metrics.RecordBatch(len(inputs))

	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered for the whole batch so workers never block on a reply.
	reply := make(chan model.JobResult, len(inputs))

	for i, in := range inputs {
		job := model.Job{
			ID:    uuid.NewString(),
			Index: i,
			Input: in,
			Ctx:   batchCtx,
			Reply: reply,
		}
		if err := queue.Enqueue(batchCtx, job); err != nil {
			switch {
			case errors.Is(err, jobqueue.ErrFull):
				s.logger.Warn(ctx, "batch rejected",
					logger.Int("size", len(inputs)),
					logger.Int("accepted", i),
				)
				return nil, fmt.Errorf("%w: accepted %d of %d", ErrBackpressure, i, len(inputs))
			case errors.Is(err, jobqueue.ErrClosed):
				return nil, ErrNotStarted
			default:
				return nil, err
			}
		}
	}

	results := make([]model.UnifiedPredictionResult, len(inputs))
	for range inputs {
		select {
		case r := <-reply:
			results[r.Index] = r.Result
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return results, nil
}

// DatasetSummary returns the statistics of the dataset loaded at start.
func (s *Service) DatasetSummary(_ context.Context) (dataset.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.summary == nil {
		return dataset.Summary{}, ErrDatasetUnavailable
	}
	return *s.summary, nil
}

// Charts returns the static reference chart series.
func (s *Service) Charts(_ context.Context) dataset.Charts {
	return dataset.ReferenceCharts()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"datasetLoaded": s.summary != nil,
	}

	if s.summary != nil {
		stats["datasetRows"] = s.summary.TotalRows
	}

	if s.started {
		queueLen := s.queue.Len()

		stats["queueLength"] = queueLen
		stats["activeWorkers"] = s.workerPool.Active()
		stats["processedJobs"] = s.workerPool.Processed()
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateWorkerCount(s.workerPool.Size())
	}

	return stats
}
