// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/incomelens/internal/adapters/dataset"
	"github.com/okian/incomelens/internal/domain/model"
	"github.com/okian/incomelens/pkg/logger"
)

// Request limits.
const (
	defaultMaxBatchSize = 100
	maxBodyBytes        = 1 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Predict never fails; degraded results carry the fallback explanation.
	Predict(ctx context.Context, in model.PredictionInput) model.UnifiedPredictionResult
	Estimate(ctx context.Context, in model.PredictionInput) model.SalaryEstimate
	PredictBatch(ctx context.Context, inputs []model.PredictionInput) ([]model.UnifiedPredictionResult, error)

	DatasetSummary(ctx context.Context) (dataset.Summary, error)
	Charts(ctx context.Context) dataset.Charts
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	predictionHandler *PredictionHandler
	datasetHandler    *DatasetHandler
}

// Option applies a configuration option to the Server.
type Option func(*settings)

type settings struct {
	maxBatchSize int
	logger       logger.Logger
}

// WithMaxBatchSize caps the number of inputs accepted by /predict/batch.
func WithMaxBatchSize(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxBatchSize = n
		}
	}
}

// WithLogger sets the logger used by the handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := settings{maxBatchSize: defaultMaxBatchSize, logger: logger.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		predictionHandler: NewPredictionHandler(deps, cfg.maxBatchSize, cfg.logger),
		datasetHandler:    NewDatasetHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", route("healthz", s.healthHandler.HandleHealth))
	mux.Handle("/metrics", MetricsHandler())
	mux.HandleFunc("/stats", route("stats", s.statsHandler.HandleStats))
	mux.HandleFunc("/predict", route("predict", s.predictionHandler.HandlePredict))
	mux.HandleFunc("/predict/batch", route("predict_batch", s.predictionHandler.HandlePredictBatch))
	mux.HandleFunc("/estimate", route("estimate", s.predictionHandler.HandleEstimate))
	mux.HandleFunc("/dataset/summary", route("dataset_summary", s.datasetHandler.HandleSummary))
	mux.HandleFunc("/dataset/charts", route("dataset_charts", s.datasetHandler.HandleCharts))
}

func route(endpoint string, h http.HandlerFunc) http.HandlerFunc {
	return RequestIDMiddleware(MetricsMiddleware(h, endpoint))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// readBody reads a bounded request body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, err
	}
	return body, nil
}
