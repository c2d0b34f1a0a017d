// Package prediction orchestrates the external prediction service and the
// heuristic estimator into a single result that never fails.
package prediction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/incomelens/internal/domain/ensemble"
	"github.com/okian/incomelens/internal/domain/model"
	"github.com/okian/incomelens/internal/domain/salary"
	"github.com/okian/incomelens/pkg/logger"
	"github.com/okian/incomelens/pkg/metrics"
)

// Fallback result constants.
const (
	FallbackConfidence  = 70
	FallbackExplanation = "Using basic prediction model (ML service unavailable)"
	fallbackThreshold   = 50000
)

var errPanic = errors.New("prediction panicked")

// ServiceClient is the external prediction service as seen by the orchestrator.
type ServiceClient interface {
	// Health returns nil only when the service reported healthy.
	Health(ctx context.Context) error
	// Predict returns the normalized per-model probabilities for the features.
	Predict(ctx context.Context, features model.Features) (*model.ServiceResponse, error)
}

// Estimator produces the heuristic salary estimate.
type Estimator interface {
	Estimate(in model.PredictionInput) model.SalaryEstimate
}

// Option applies a configuration option to the Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger used for degradation events.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// WithEstimator replaces the default estimator.
func WithEstimator(e Estimator) Option {
	return func(o *Orchestrator) {
		if e != nil {
			o.estimator = e
		}
	}
}

// Orchestrator holds no per-call state; Predict is safe for concurrent use.
type Orchestrator struct {
	client    ServiceClient
	estimator Estimator
	log       logger.Logger
}

// NewOrchestrator creates an orchestrator. A nil client means every
// prediction takes the fallback path.
func NewOrchestrator(client ServiceClient, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:    client,
		estimator: salary.NewEstimator(),
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Estimate runs the heuristic estimator alone.
func (o *Orchestrator) Estimate(in model.PredictionInput) model.SalaryEstimate {
	metrics.RecordEstimate()
	return o.estimator.Estimate(withDefaultRegion(in))
}

// Predict probes the service, requests predictions and merges them with the
// heuristic estimate. Any failure yields the fallback result.
func (o *Orchestrator) Predict(ctx context.Context, in model.PredictionInput) model.UnifiedPredictionResult {
	start := time.Now()
	defer func() {
		metrics.RecordPredictionLatency(float64(time.Since(start).Milliseconds()))
	}()

	res, err := o.predictWithService(ctx, in)
	if err == nil {
		metrics.RecordPrediction(metrics.PathML)
		return res
	}

	reason := fallbackReason(err)
	o.log.Warn(ctx, "prediction service failed, using heuristic estimate",
		logger.String("reason", reason),
		logger.Error(err),
	)
	metrics.RecordFallback(reason)
	metrics.RecordPrediction(metrics.PathFallback)

	return o.fallback(in)
}

func (o *Orchestrator) predictWithService(ctx context.Context, in model.PredictionInput) (res model.UnifiedPredictionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errPanic, r)
		}
	}()

	if o.client == nil {
		return res, model.ErrServiceUnavailable
	}

	if err := o.client.Health(ctx); err != nil {
		return res, err
	}

	resp, err := o.client.Predict(ctx, in.Features())
	if err != nil {
		return res, err
	}
	if resp == nil {
		return res, model.ErrMalformedResponse
	}

	outcome, err := ensemble.Aggregate(resp.Predictions, resp.FeatureImportance)
	if err != nil {
		return res, fmt.Errorf("%w: %w", model.ErrMalformedResponse, err)
	}

	return model.UnifiedPredictionResult{
		Classification:    outcome.Classification,
		IncomeBracket:     outcome.Classification.Bracket(),
		ConfidencePercent: outcome.ConfidencePercent,
		Explanation:       ensemble.Explain(outcome),
		SalaryEstimate:    o.Estimate(in),
		ModelSignals:      append([]model.ModelSignal(nil), resp.Predictions...),
		FeatureImportance: append(model.FeatureImportance{}, resp.FeatureImportance...),
		Plots:             resp.Plots,
	}, nil
}

func (o *Orchestrator) fallback(in model.PredictionInput) model.UnifiedPredictionResult {
	est := o.Estimate(in)

	class := model.StandardIncome
	if est.TotalSalary > fallbackThreshold {
		class = model.HighIncome
	}

	return model.UnifiedPredictionResult{
		Classification:    class,
		IncomeBracket:     class.Bracket(),
		ConfidencePercent: FallbackConfidence,
		Explanation:       FallbackExplanation,
		SalaryEstimate:    est,
	}
}

func withDefaultRegion(in model.PredictionInput) model.PredictionInput {
	if in.Region == "" {
		in.Region = salary.DefaultRegionKey
	}
	return in
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, errPanic):
		return metrics.ReasonPanic
	case errors.Is(err, model.ErrServiceUnavailable):
		return metrics.ReasonUnavailable
	case errors.Is(err, model.ErrRequestFailed):
		return metrics.ReasonRequestFailed
	case errors.Is(err, model.ErrMalformedResponse):
		return metrics.ReasonMalformed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.ReasonCanceled
	default:
		return metrics.ReasonUnknown
	}
}
