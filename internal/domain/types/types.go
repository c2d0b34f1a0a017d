// Package types contains common descriptive-data shapes used across the application
package types

// ChartDataPoint is one bar or slice of a reference chart.
type ChartDataPoint struct {
	Name       string   `json:"name" yaml:"name"`
	Value      float64  `json:"value,omitempty" yaml:"value,omitempty"`
	Percentage *float64 `json:"percentage,omitempty" yaml:"percentage,omitempty"`
	HighIncome *float64 `json:"highIncome,omitempty" yaml:"highIncome,omitempty"`
	LowIncome  *float64 `json:"lowIncome,omitempty" yaml:"lowIncome,omitempty"`
}

// NumericStats summarizes a numeric column
type NumericStats struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
	Avg float64 `json:"avg" yaml:"avg"`
}

// HeadlineStats are the headline figures shown next to the charts.
type HeadlineStats struct {
	DatasetSize   int      `json:"datasetSize" yaml:"datasetSize"`
	ModelAccuracy int      `json:"modelAccuracy" yaml:"modelAccuracy"`
	KeyFeatures   []string `json:"keyFeatures" yaml:"keyFeatures"`
}

// Share builds a point splitting a group into high and low income percentages.
func Share(name string, high, low float64) ChartDataPoint {
	return ChartDataPoint{Name: name, HighIncome: &high, LowIncome: &low}
}

// Count builds a point carrying a single value.
func Count(name string, value float64) ChartDataPoint {
	return ChartDataPoint{Name: name, Value: value}
}

// WithPercentage returns a copy of p with its percentage set.
func (p ChartDataPoint) WithPercentage(pct float64) ChartDataPoint {
	p.Percentage = &pct
	return p
}
