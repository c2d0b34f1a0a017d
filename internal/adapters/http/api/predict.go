package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/incomelens/internal/domain/model"
	"github.com/okian/incomelens/pkg/logger"
)

// PredictionDependencies defines the interface for prediction operations.
type PredictionDependencies interface {
	Predict(ctx context.Context, in model.PredictionInput) model.UnifiedPredictionResult
	Estimate(ctx context.Context, in model.PredictionInput) model.SalaryEstimate
	PredictBatch(ctx context.Context, inputs []model.PredictionInput) ([]model.UnifiedPredictionResult, error)
}

// PredictionHandler handles prediction and estimate requests.
type PredictionHandler struct {
	deps         PredictionDependencies
	maxBatchSize int
	logger       logger.Logger
}

// NewPredictionHandler creates a new prediction handler.
func NewPredictionHandler(deps PredictionDependencies, maxBatchSize int, l logger.Logger) *PredictionHandler {
	if maxBatchSize < 1 {
		maxBatchSize = defaultMaxBatchSize
	}
	if l == nil {
		l = logger.Nop()
	}
	return &PredictionHandler{deps: deps, maxBatchSize: maxBatchSize, logger: l}
}

type batchRequest struct {
	Inputs []model.PredictionInput `json:"inputs"`
}

type batchResponse struct {
	Results []model.UnifiedPredictionResult `json:"results"`
}

// HandlePredict handles POST /predict requests.
func (h *PredictionHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	in, ok := h.decodeInput(w, r, op)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Predict(r.Context(), in))
}

// HandleEstimate handles POST /estimate requests.
func (h *PredictionHandler) HandleEstimate(w http.ResponseWriter, r *http.Request) {
	const op = "api.estimate"
	in, ok := h.decodeInput(w, r, op)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Estimate(r.Context(), in))
}

// HandlePredictBatch handles POST /predict/batch requests.
func (h *PredictionHandler) HandlePredictBatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict_batch"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	var req batchRequest
	if err := decodeValid(batchSchema, body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(req.Inputs) > h.maxBatchSize {
		err := fmt.Errorf("batch of %d exceeds limit %d", len(req.Inputs), h.maxBatchSize)
		writeError(w, http.StatusBadRequest, "limit_exceeded", WrapKind(op, ErrBadRequest, err))
		return
	}

	results, err := h.deps.PredictBatch(r.Context(), req.Inputs)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, batchResponse{Results: results})
	case errors.Is(err, model.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn(r.Context(), "batch abandoned by client", logger.Error(err))
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		h.logger.Error(r.Context(), "batch prediction failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

func (h *PredictionHandler) decodeInput(w http.ResponseWriter, r *http.Request, op string) (model.PredictionInput, bool) {
	var in model.PredictionInput
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return in, false
	}
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return in, false
	}
	if err := decodeValid(inputSchema, body, &in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return in, false
	}
	return in, true
}
