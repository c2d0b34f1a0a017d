// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// PredictionInput is the demographic and economic profile submitted for a prediction.
// Range constraints (age 16-90, hours 1-99) are enforced by the caller.
type PredictionInput struct {
	Age               int      `json:"age" yaml:"age"`
	Education         string   `json:"education" yaml:"education"`
	Occupation        string   `json:"occupation" yaml:"occupation"`
	HoursPerWeek      int      `json:"hoursPerWeek" yaml:"hoursPerWeek"`
	Region            string   `json:"region" yaml:"region"`
	ExpectedMinSalary *float64 `json:"expectedMinSalary,omitempty" yaml:"expectedMinSalary,omitempty"`
	ExpectedMaxSalary *float64 `json:"expectedMaxSalary,omitempty" yaml:"expectedMaxSalary,omitempty"`
}

// ExpectedRange reports the declared salary expectations. Both bounds must be
// present and non-zero to count as supplied.
func (in PredictionInput) ExpectedRange() (lo, hi float64, ok bool) {
	if in.ExpectedMinSalary == nil || in.ExpectedMaxSalary == nil {
		return 0, 0, false
	}
	lo, hi = *in.ExpectedMinSalary, *in.ExpectedMaxSalary
	if lo == 0 || hi == 0 {
		return 0, 0, false
	}
	return lo, hi, true
}

// Features returns the subset of the input sent to the prediction service.
func (in PredictionInput) Features() Features {
	return Features{
		Age:          in.Age,
		Education:    in.Education,
		Occupation:   in.Occupation,
		HoursPerWeek: in.HoursPerWeek,
		Region:       in.Region,
	}
}

// Features is the request body of the prediction service's /predict endpoint.
type Features struct {
	Age          int    `json:"age"`
	Education    string `json:"education"`
	Occupation   string `json:"occupation"`
	HoursPerWeek int    `json:"hoursPerWeek"`
	Region       string `json:"region"`
}

// SalaryRange is the ±10% band around an estimated salary.
type SalaryRange struct {
	Min int64 `json:"min" yaml:"min"`
	Max int64 `json:"max" yaml:"max"`
}

// Factors holds the multiplier applied for each input dimension.
type Factors struct {
	Education  float64 `json:"education" yaml:"education"`
	Occupation float64 `json:"occupation" yaml:"occupation"`
	Experience float64 `json:"experience" yaml:"experience"`
	Hours      float64 `json:"hours" yaml:"hours"`
	Region     float64 `json:"region" yaml:"region"`
}

// SalaryEstimate is the deterministic heuristic estimate for an input.
type SalaryEstimate struct {
	BaseSalary  float64     `json:"baseSalary" yaml:"baseSalary"`
	TotalSalary int64       `json:"totalSalary" yaml:"totalSalary"`
	SalaryRange SalaryRange `json:"salaryRange" yaml:"salaryRange"`
	Factors     Factors     `json:"factors" yaml:"factors"`
	Breakdown   []string    `json:"breakdown" yaml:"breakdown"`
}

// ModelSignal is one external model's probability of high income.
type ModelSignal struct {
	Model       string  `json:"model" yaml:"model"`
	Probability float64 `json:"probability" yaml:"probability"`
}

// FeatureWeight is a single feature importance entry.
type FeatureWeight struct {
	Name   string  `json:"name" yaml:"name"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// FeatureImportance keeps feature weights in the order the service reported them.
// It encodes to JSON as an object.
type FeatureImportance []FeatureWeight

// MarshalJSON encodes the entries as a JSON object preserving order.
func (fi FeatureImportance) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fw := range fi {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(fw.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatFloat(fw.Weight, 'g', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Weight returns the weight recorded for name.
func (fi FeatureImportance) Weight(name string) (float64, bool) {
	for _, fw := range fi {
		if fw.Name == name {
			return fw.Weight, true
		}
	}
	return 0, false
}

// Classification is the income class of a prediction.
type Classification string

// Supported classifications.
const (
	HighIncome     Classification = "highIncome"
	StandardIncome Classification = "standardIncome"
)

// Bracket returns the census-style label for the class.
func (c Classification) Bracket() string {
	if c == HighIncome {
		return ">50K"
	}
	return "<=50K"
}

// UnifiedPredictionResult is the final output handed to the presentation layer.
// ModelSignals and FeatureImportance are nil when the heuristic fallback was used.
type UnifiedPredictionResult struct {
	Classification    Classification    `json:"classification" yaml:"classification"`
	IncomeBracket     string            `json:"incomeBracket" yaml:"incomeBracket"`
	ConfidencePercent int               `json:"confidencePercent" yaml:"confidencePercent"`
	Explanation       string            `json:"explanation" yaml:"explanation"`
	SalaryEstimate    SalaryEstimate    `json:"salaryEstimate" yaml:"salaryEstimate"`
	ModelSignals      []ModelSignal     `json:"modelSignals,omitempty" yaml:"modelSignals,omitempty"`
	FeatureImportance FeatureImportance `json:"featureImportance,omitempty" yaml:"featureImportance,omitempty"`
	Plots             json.RawMessage   `json:"plots,omitempty" yaml:"-"`
}

// ServiceResponse is the normalized body of a successful /predict call.
type ServiceResponse struct {
	Predictions       []ModelSignal
	FeatureImportance FeatureImportance
	Plots             json.RawMessage
}
