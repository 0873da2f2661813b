package persona

import (
	"math"
	"math/rand/v2"

	"github.com/sells-group/constituent-twin/internal/model"
)

// Perturbation bounds applied to every income.
const (
	IncomeJitterMin = 0.75
	IncomeJitterMax = 1.25
)

var educationMultipliers = map[string]float64{
	model.EduGraduate:           1.5,
	model.EduBachelors:          1.2,
	model.EduSomeCollege:        0.9,
	model.EduHighSchool:         0.7,
	model.EduLessThanHighSchool: 0.5,
}

// EducationMultiplier returns the income multiplier for an education level.
func EducationMultiplier(level string) float64 {
	if m, ok := educationMultipliers[level]; ok {
		return m
	}
	return educationMultipliers[model.EduHighSchool]
}

// AgeMultiplier returns the income multiplier for an age.
func AgeMultiplier(age int) float64 {
	switch {
	case age < 25:
		return 0.7
	case age < 35:
		return 0.9
	case age < 45:
		return 1.1
	case age < 55:
		return 1.2
	case age < 65:
		return 1.1
	default:
		return 0.8
	}
}

// IncomeBand returns the range an income may fall in for the given median,
// education and age, before rounding.
func IncomeBand(medianIncome int, level string, age int) (lo, hi float64) {
	base := float64(max(medianIncome, 0)) * EducationMultiplier(level) * AgeMultiplier(age)
	return base * IncomeJitterMin, base * IncomeJitterMax
}

func sampleIncome(rng *rand.Rand, medianIncome int, level string, age int) int {
	lo, hi := IncomeBand(medianIncome, level, age)
	return int(math.Round(lo + rng.Float64()*(hi-lo)))
}
