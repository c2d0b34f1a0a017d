// Package salary implements the deterministic heuristic salary estimator used
// alongside (and instead of) the external prediction service.
package salary

import (
	"fmt"
	"math"
	"strconv"

	"github.com/okian/incomelens/internal/domain/model"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Default currency presentation.
const (
	defaultLocale         = "en-IN"
	defaultCurrencySymbol = "₹"
)

// Option applies a configuration option to the Estimator.
type Option func(*Estimator)

// WithOccupationSalaries overrides or extends the occupation base salary table.
func WithOccupationSalaries(salaries map[string]float64) Option {
	return func(e *Estimator) {
		mergePositive(e.occupations, salaries)
	}
}

// WithEducationMultipliers overrides or extends the education multiplier table.
func WithEducationMultipliers(multipliers map[string]float64) Option {
	return func(e *Estimator) {
		mergePositive(e.education, multipliers)
	}
}

// WithRegionMultipliers overrides or extends the region multiplier table.
func WithRegionMultipliers(multipliers map[string]float64) Option {
	return func(e *Estimator) {
		mergePositive(e.regions, multipliers)
	}
}

// WithCurrency sets the locale used for grouping digits and the currency symbol.
// An unparseable locale keeps the current one.
func WithCurrency(locale, symbol string) Option {
	return func(e *Estimator) {
		if tag, err := language.Parse(locale); err == nil {
			e.printer = message.NewPrinter(tag)
		}
		if symbol != "" {
			e.symbol = symbol
		}
	}
}

func mergePositive(dst, src map[string]float64) {
	for k, v := range src {
		if v > 0 {
			dst[k] = v
		}
	}
}

// Estimator computes salary estimates from immutable lookup tables.
// It holds no mutable state after construction and is safe for concurrent use.
type Estimator struct {
	occupations map[string]float64
	education   map[string]float64
	regions     map[string]float64

	printer *message.Printer
	symbol  string
}

// NewEstimator creates an estimator with the default tables and any overrides.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{
		occupations: defaultOccupationSalaries(),
		education:   defaultEducationMultipliers(),
		regions:     defaultRegionMultipliers(),
		printer:     message.NewPrinter(language.MustParse(defaultLocale)),
		symbol:      defaultCurrencySymbol,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Estimate maps an input to a salary estimate. It is total and deterministic.
func (e *Estimator) Estimate(in model.PredictionInput) model.SalaryEstimate {
	base := lookup(e.occupations, in.Occupation, OtherKey)
	eduMul := lookup(e.education, in.Education, OtherKey)
	expMul := experienceMultiplier(in.Age)
	hoursMul := hoursMultiplier(in.HoursPerWeek)
	regionMul := lookup(e.regions, in.Region, DefaultRegionKey)

	salary := base * eduMul * expMul * hoursMul * regionMul

	if lo, hi, ok := in.ExpectedRange(); ok {
		salary = e.rescale(salary, lo, hi)
	}

	total := roundHalfUp(salary)

	return model.SalaryEstimate{
		BaseSalary:  base,
		TotalSalary: total,
		SalaryRange: model.SalaryRange{
			Min: roundHalfUp(float64(total) * rangeLowFactor),
			Max: roundHalfUp(float64(total) * rangeHighFactor),
		},
		Factors: model.Factors{
			Education:  eduMul,
			Occupation: 1.0,
			Experience: expMul,
			Hours:      hoursMul,
			Region:     regionMul,
		},
		Breakdown: []string{
			fmt.Sprintf("Base salary for %s: %s", in.Occupation, e.formatCurrency(base)),
			fmt.Sprintf("Education (%s): %s adjustment", in.Education, formatAdjustment(eduMul)),
			fmt.Sprintf("Experience (Age %d): %s adjustment", in.Age, formatAdjustment(expMul)),
			fmt.Sprintf("Hours (%dhr/week): %s adjustment", in.HoursPerWeek, formatAdjustment(hoursMul)),
			fmt.Sprintf("Region (%s): %s adjustment", in.Region, formatAdjustment(regionMul)),
		},
	}
}

// rescale maps the compound salary onto the declared range using its position
// between the Other and Exec-managerial base salaries. The score is not clamped,
// so extreme profiles may land outside [lo, hi].
func (e *Estimator) rescale(salary, lo, hi float64) float64 {
	floor := e.occupations[OtherKey]
	span := e.occupations[ExecManagerialKey] - floor
	if span == 0 {
		return lo
	}
	score := (salary - floor) / span
	return lo + score*(hi-lo)
}

func (e *Estimator) formatCurrency(amount float64) string {
	return e.symbol + e.printer.Sprintf("%d", roundHalfUp(amount))
}

func formatAdjustment(multiplier float64) string {
	return strconv.FormatInt(int64(math.Round((multiplier-1)*100)), 10) + "%"
}

// roundHalfUp rounds to the nearest integer with halves going toward +Inf.
func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}
