package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/incomelens/internal/adapters/dataset"
	"github.com/okian/incomelens/internal/domain/model"
)

// DatasetDependencies defines the interface for dataset reads.
type DatasetDependencies interface {
	DatasetSummary(ctx context.Context) (dataset.Summary, error)
	Charts(ctx context.Context) dataset.Charts
}

// DatasetHandler serves dataset statistics and reference charts.
type DatasetHandler struct {
	deps DatasetDependencies
}

// NewDatasetHandler creates a new dataset handler.
func NewDatasetHandler(deps DatasetDependencies) *DatasetHandler {
	return &DatasetHandler{deps: deps}
}

// HandleSummary handles GET /dataset/summary requests.
func (h *DatasetHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.dataset_summary"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	summary, err := h.deps.DatasetSummary(r.Context())
	if err != nil {
		if errors.Is(err, model.ErrDatasetUnavailable) {
			writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// HandleCharts handles GET /dataset/charts requests.
func (h *DatasetHandler) HandleCharts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Charts(r.Context()))
}
