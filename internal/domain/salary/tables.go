package salary

// Keys that every lookup table must carry.
const (
	OtherKey          = "Other"
	ExecManagerialKey = "Exec-managerial"
	DefaultRegionKey  = "Urban-Med"
)

// Experience bands by age. Each band is half-open [low, high).
const (
	entryMultiplier  = 0.8 // < 25
	earlyMultiplier  = 0.9 // 25-34
	midMultiplier    = 1.0 // 35-44
	peakMultiplier   = 1.1 // 45-54
	lateMultiplier   = 1.0 // 55-64
	seniorMultiplier = 0.9 // 65+
)

// Weekly hours bands.
const (
	partTimeMultiplier = 0.6 // < 35
	fullTimeMultiplier = 1.0 // 35-45 inclusive
	overTimeMultiplier = 1.2 // > 45

	fullTimeMinHours = 35
	fullTimeMaxHours = 45
)

// Salary range spread around the total.
const (
	rangeLowFactor  = 0.9
	rangeHighFactor = 1.1
)

func defaultOccupationSalaries() map[string]float64 {
	return map[string]float64{
		"Exec-managerial": 85000,
		"Prof-specialty":  75000,
		"Tech-support":    65000,
		"Sales":           55000,
		"Craft-repair":    45000,
		OtherKey:          40000,
	}
}

func defaultEducationMultipliers() map[string]float64 {
	return map[string]float64{
		"Doctorate":    1.8,
		"Masters":      1.6,
		"Bachelors":    1.4,
		"Some-college": 1.2,
		"HS-grad":      1.0,
		OtherKey:       0.9,
	}
}

// Cost of living adjustments.
func defaultRegionMultipliers() map[string]float64 {
	return map[string]float64{
		"Urban-High": 1.3,
		"Urban-Med":  1.1,
		"Urban-Low":  1.0,
		"Suburban":   0.95,
		"Rural":      0.85,
	}
}

func experienceMultiplier(age int) float64 {
	switch {
	case age < 25:
		return entryMultiplier
	case age < 35:
		return earlyMultiplier
	case age < 45:
		return midMultiplier
	case age < 55:
		return peakMultiplier
	case age < 65:
		return lateMultiplier
	default:
		return seniorMultiplier
	}
}

func hoursMultiplier(hours int) float64 {
	switch {
	case hours < fullTimeMinHours:
		return partTimeMultiplier
	case hours <= fullTimeMaxHours:
		return fullTimeMultiplier
	default:
		return overTimeMultiplier
	}
}

// lookup returns table[key] or table[fallback]. A zero entry counts as absent.
func lookup(table map[string]float64, key, fallback string) float64 {
	if v, ok := table[key]; ok && v != 0 {
		return v
	}
	return table[fallback]
}
