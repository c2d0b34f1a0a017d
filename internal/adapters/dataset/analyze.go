package dataset

import (
	"math"

	"github.com/okian/incomelens/internal/domain/types"
)

// Summary holds descriptive statistics of a table.
type Summary struct {
	TotalRows      int                           `json:"totalRows" yaml:"totalRows"`
	Columns        []string                      `json:"columns" yaml:"columns"`
	MissingValues  map[string]int                `json:"missingValues" yaml:"missingValues"`
	UniqueCounts   map[string]int                `json:"uniqueCounts" yaml:"uniqueCounts"`
	UniqueValues   map[string][]string           `json:"uniqueValues" yaml:"uniqueValues"`
	NumericalStats map[string]types.NumericStats `json:"numericalStats" yaml:"numericalStats"`
}

// Analyze computes missing counts, distinct values and numeric stats per column.
// A column has numeric stats when at least one of its cells is numeric. The
// average divides by the total row count, so non-numeric cells weigh as zero.
func Analyze(t *Table) Summary {
	s := Summary{
		TotalRows:      len(t.Rows),
		Columns:        append([]string(nil), t.Columns...),
		MissingValues:  make(map[string]int, len(t.Columns)),
		UniqueCounts:   make(map[string]int, len(t.Columns)),
		UniqueValues:   make(map[string][]string, len(t.Columns)),
		NumericalStats: make(map[string]types.NumericStats),
	}

	for j, col := range t.Columns {
		seen := make(map[string]struct{})
		unique := []string{}
		missing := 0
		numeric := false
		minV, maxV, sum := math.Inf(1), math.Inf(-1), 0.0

		for _, row := range t.Rows {
			v := row[j]
			if v.Missing {
				missing++
				continue
			}
			key := v.String()
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				unique = append(unique, key)
			}
			if v.IsNum {
				numeric = true
				minV = math.Min(minV, v.Num)
				maxV = math.Max(maxV, v.Num)
				sum += v.Num
			}
		}

		s.MissingValues[col] = missing
		s.UniqueValues[col] = unique
		s.UniqueCounts[col] = len(unique)
		if numeric {
			s.NumericalStats[col] = types.NumericStats{
				Min: minV,
				Max: maxV,
				Avg: sum / float64(len(t.Rows)),
			}
		}
	}

	return s
}
