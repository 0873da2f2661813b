package persona

import (
	"math/rand/v2"

	"github.com/sells-group/constituent-twin/internal/model"
)

// HighIncomeThreshold is the median income at or above which the upper half
// of each occupation tier becomes the more likely pick.
const HighIncomeThreshold = 90000

const (
	upperShareHighIncome = 0.65
	upperShareOtherwise  = 0.35
)

// occupationTier holds the two candidate lists for one education level.
type occupationTier struct {
	Upper []string
	Lower []string
}

// Catalog is the single occupation catalog, keyed by education level.
var Catalog = map[string]occupationTier{
	model.EduGraduate: {
		Upper: []string{"Physician", "Professor", "Attorney", "Research Scientist"},
		Lower: []string{"Pharmacist", "Clinical Psychologist", "School Principal", "Policy Analyst"},
	},
	model.EduBachelors: {
		Upper: []string{"Software Engineer", "Financial Analyst", "Civil Engineer", "Accountant"},
		Lower: []string{"Teacher", "Registered Nurse", "Social Worker", "Marketing Coordinator"},
	},
	model.EduSomeCollege: {
		Upper: []string{"Electrician", "Dental Hygienist", "Computer Support Specialist", "Police Officer"},
		Lower: []string{"Medical Assistant", "Office Manager", "Retail Supervisor", "Paralegal"},
	},
	model.EduHighSchool: {
		Upper: []string{"Plumber", "Truck Driver", "Machinist", "Sales Representative"},
		Lower: []string{"Cashier", "Warehouse Associate", "Home Health Aide", "Administrative Clerk"},
	},
	model.EduLessThanHighSchool: {
		Upper: []string{"Construction Worker", "Line Cook", "Landscaper"},
		Lower: []string{"Laborer", "Janitor", "Dishwasher", "Farmworker"},
	},
}

// Occupations returns every label listed for an education level.
func Occupations(level string) []string {
	tier, ok := Catalog[level]
	if !ok {
		tier = Catalog[model.EduHighSchool]
	}
	out := make([]string, 0, len(tier.Upper)+len(tier.Lower))
	out = append(out, tier.Upper...)
	return append(out, tier.Lower...)
}

func sampleOccupation(rng *rand.Rand, level string, medianIncome int) string {
	tier, ok := Catalog[level]
	if !ok {
		tier = Catalog[model.EduHighSchool]
	}

	upperShare := upperShareOtherwise
	if medianIncome >= HighIncomeThreshold {
		upperShare = upperShareHighIncome
	}

	list := tier.Lower
	if rng.Float64() < upperShare {
		list = tier.Upper
	}
	return list[rng.IntN(len(list))]
}
