package service

import (
	"fmt"

	"github.com/okian/incomelens/internal/adapters/mlservice"
	"github.com/okian/incomelens/internal/config"
	"github.com/okian/incomelens/internal/domain/prediction"
	"github.com/okian/incomelens/internal/domain/salary"
	"github.com/okian/incomelens/pkg/logger"
)

// NewFromConfig builds the prediction stack described by cfg: the
// prediction service client, the estimator tables and the orchestrator.
func NewFromConfig(cfg *config.Config, log logger.Logger) (*Service, error) {
	if log == nil {
		log = logger.Nop()
	}

	client, err := mlservice.New(cfg.MLBaseURL,
		mlservice.WithHealthTimeout(cfg.HealthTimeout()),
		mlservice.WithPredictTimeout(cfg.PredictTimeout()),
		mlservice.WithMaxRetries(cfg.MLMaxRetries),
		mlservice.WithRateLimit(cfg.MLRequestsPerSecond, cfg.MLBurst),
		mlservice.WithLogger(log.Named("mlservice")),
	)
	if err != nil {
		return nil, fmt.Errorf("prediction service client: %w", err)
	}

	estimator := salary.NewEstimator(
		salary.WithOccupationSalaries(cfg.OccupationSalaries),
		salary.WithEducationMultipliers(cfg.EducationMultipliers),
		salary.WithRegionMultipliers(cfg.RegionMultipliers),
		salary.WithCurrency(cfg.CurrencyLocale, cfg.CurrencySymbol),
	)

	orchestrator := prediction.NewOrchestrator(client,
		prediction.WithEstimator(estimator),
		prediction.WithLogger(log.Named("prediction")),
	)

	return New(orchestrator,
		WithLogger(log.Named("service")),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDatasetPath(cfg.DatasetPath),
		WithDatasetCleaning(true),
	), nil
}
