// Package ensemble combines per-model probabilities into a single verdict.
package ensemble

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/okian/incomelens/internal/domain/model"
)

const (
	decisionBoundary = 0.5
	confidenceScale  = 200
	topFeatureCount  = 2
)

// ErrNoSignals is returned when there is nothing to aggregate.
var ErrNoSignals = errors.New("ensemble: no model signals")

// Outcome is the aggregated verdict of all model signals.
type Outcome struct {
	AvgProbability    float64
	Classification    model.Classification
	ConfidencePercent int
	TopModel          string
	TopFeatures       []string
}

// Aggregate averages the signals, classifies against the 0.5 boundary and
// selects the most decisive model and the two heaviest features.
func Aggregate(signals []model.ModelSignal, importance model.FeatureImportance) (Outcome, error) {
	if len(signals) == 0 {
		return Outcome{}, ErrNoSignals
	}

	var sum float64
	for _, s := range signals {
		sum += s.Probability
	}
	avg := sum / float64(len(signals))

	class := model.StandardIncome
	if avg > decisionBoundary {
		class = model.HighIncome
	}

	return Outcome{
		AvgProbability:    avg,
		Classification:    class,
		ConfidencePercent: confidence(avg),
		TopModel:          topModel(signals),
		TopFeatures:       topFeatures(importance, topFeatureCount),
	}, nil
}

// Explain renders the fixed explanation sentence for an outcome.
func Explain(o Outcome) string {
	label := "Standard"
	if o.Classification == model.HighIncome {
		label = "High"
	}
	return fmt.Sprintf("%s income predicted with %d%% confidence. %s model shows strongest prediction. Key factors: %s.",
		label, o.ConfidencePercent, o.TopModel, strings.Join(o.TopFeatures, ", "))
}

// confidence maps the distance from the boundary onto 0-100, rounding halves up.
func confidence(avg float64) int {
	return int(math.Floor(math.Abs(avg-decisionBoundary)*confidenceScale + 0.5))
}

// topModel keeps the first signal unless a later one is strictly more decisive.
func topModel(signals []model.ModelSignal) string {
	best := signals[0]
	for _, s := range signals[1:] {
		if math.Abs(s.Probability-decisionBoundary) > math.Abs(best.Probability-decisionBoundary) {
			best = s
		}
	}
	return best.Model
}

func topFeatures(importance model.FeatureImportance, n int) []string {
	ranked := make(model.FeatureImportance, len(importance))
	copy(ranked, importance)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Weight > ranked[j].Weight
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	names := make([]string, 0, len(ranked))
	for _, fw := range ranked {
		names = append(names, fw.Name)
	}
	return names
}
