package dataset

import "github.com/okian/incomelens/internal/domain/types"

// Charts are the reference series shown next to predictions.
type Charts struct {
	EducationIncome []types.ChartDataPoint `json:"educationIncome" yaml:"educationIncome"`
	AgeDistribution []types.ChartDataPoint `json:"ageDistribution" yaml:"ageDistribution"`
	GenderPayGap    []types.ChartDataPoint `json:"genderPayGap" yaml:"genderPayGap"`
	Stats           types.HeadlineStats    `json:"stats" yaml:"stats"`
}

// ReferenceCharts returns a fresh copy of the static chart data.
func ReferenceCharts() Charts {
	return Charts{
		EducationIncome: []types.ChartDataPoint{
			types.Share("Doctorate", 75, 25).WithPercentage(75),
			types.Share("Masters", 58, 42).WithPercentage(58),
			types.Share("Bachelors", 42, 58).WithPercentage(42),
			types.Share("Some-college", 23, 77).WithPercentage(23),
			types.Share("HS-grad", 18, 82).WithPercentage(18),
		},
		AgeDistribution: []types.ChartDataPoint{
			types.Count("16-25", 3420),
			types.Count("26-35", 8945),
			types.Count("36-45", 9812),
			types.Count("46-55", 6734),
			types.Count("56-65", 2890),
			types.Count("66+", 760),
		},
		GenderPayGap: []types.ChartDataPoint{
			types.Share("Male", 31, 69),
			types.Share("Female", 11, 89),
		},
		Stats: types.HeadlineStats{
			DatasetSize:   32561,
			ModelAccuracy: 85,
			KeyFeatures:   []string{"Education", "Hours/Week", "Age", "Occupation"},
		},
	}
}
