package cli

import (
	"fmt"
	"strings"

	"github.com/okian/incomelens/internal/domain/model"
)

// Accepted input ranges.
const (
	minAge   = 16
	maxAge   = 90
	minHours = 1
	maxHours = 99
)

// validateInput enforces the ranges the HTTP API checks with its schema.
func validateInput(in model.PredictionInput) error {
	switch {
	case in.Age < minAge || in.Age > maxAge:
		return fmt.Errorf("%w: age %d outside %d-%d", errInvalidInput, in.Age, minAge, maxAge)
	case in.HoursPerWeek < minHours || in.HoursPerWeek > maxHours:
		return fmt.Errorf("%w: hours %d outside %d-%d", errInvalidInput, in.HoursPerWeek, minHours, maxHours)
	case strings.TrimSpace(in.Education) == "":
		return fmt.Errorf("%w: education is required", errInvalidInput)
	case strings.TrimSpace(in.Occupation) == "":
		return fmt.Errorf("%w: occupation is required", errInvalidInput)
	case in.ExpectedMinSalary != nil && *in.ExpectedMinSalary < 0,
		in.ExpectedMaxSalary != nil && *in.ExpectedMaxSalary < 0:
		return fmt.Errorf("%w: salaries must not be negative", errInvalidInput)
	}
	return nil
}
