package census

import (
	"hash/fnv"
	"math/rand/v2"
	"time"

	"github.com/sells-group/constituent-twin/internal/model"
)

// FallbackDistrictPopulation is the population of the generic district literal.
const FallbackDistrictPopulation = 750000

// FallbackDistrict returns the fixed profile of a generic ~750,000-person
// congressional district.
func FallbackDistrict(regionID, reason string, now time.Time) *model.DemographicProfile {
	return &model.DemographicProfile{
		RegionID:     regionID,
		Population:   FallbackDistrictPopulation,
		MedianIncome: 65000,
		MedianAge:    38.5,
		AgeGroups: map[string]int{
			model.Age18to24: 68000,
			model.Age25to34: 102000,
			model.Age35to44: 95000,
			model.Age45to54: 91000,
			model.Age55to64: 93000,
			model.Age65to74: 72000,
			model.Age75Plus: 45000,
		},
		RaceEthnicity: map[string]int{
			model.RaceWhite:    60,
			model.RaceBlack:    13,
			model.RaceHispanic: 18,
			model.RaceAsian:    6,
			model.RaceOther:    3,
		},
		EducationLevels: map[string]int{
			model.EduLessThanHighSchool: 11,
			model.EduHighSchool:         27,
			model.EduSomeCollege:        29,
			model.EduBachelors:          20,
			model.EduGraduate:           13,
		},
		OccupationCategories: map[string]int{
			model.OccManagement:   38,
			model.OccService:      17,
			model.OccSalesOffice:  21,
			model.OccConstruction: 9,
			model.OccProduction:   15,
		},
		HomeownershipRate: model.Float(64),
		PovertyRate:       model.Float(12),
		CollegeRate:       model.Float(33),
		IncomeDistribution: map[string]int{
			"under25k":  18,
			"25k-50k":   20,
			"50k-75k":   17,
			"75k-100k":  13,
			"100k-150k": 16,
			"150kPlus":  16,
		},
		Source:         model.SourceFallbackDistrict,
		FallbackReason: reason,
		FetchedAt:      now,
	}
}

// FallbackZIP returns a plausible randomized profile for a ZIP. The values
// depend only on seed and regionID, so repeated calls agree.
func FallbackZIP(regionID string, seed uint64, reason string, now time.Time) *model.DemographicProfile {
	h := fnv.New64a()
	_, _ = h.Write([]byte(regionID))
	rng := rand.New(rand.NewPCG(seed, h.Sum64()))

	between := func(lo, hi int) int { return lo + rng.IntN(hi-lo+1) }

	white := between(35, 70)
	black := between(4, 20)
	hispanic := between(8, 30)
	asian := between(2, 12)
	other := max(100-white-black-hispanic-asian, 1)

	bachelors := between(12, 30)
	graduate := between(5, 18)
	lessThanHS := between(5, 15)
	someCollege := between(20, 32)
	highSchool := max(100-bachelors-graduate-lessThanHS-someCollege, 10)

	return &model.DemographicProfile{
		RegionID:     regionID,
		Population:   between(8000, 60000),
		MedianIncome: between(40, 120) * 1000,
		MedianAge:    float64(between(300, 450)) / 10,
		RaceEthnicity: map[string]int{
			model.RaceWhite:    white,
			model.RaceBlack:    black,
			model.RaceHispanic: hispanic,
			model.RaceAsian:    asian,
			model.RaceOther:    other,
		},
		EducationLevels: map[string]int{
			model.EduLessThanHighSchool: lessThanHS,
			model.EduHighSchool:         highSchool,
			model.EduSomeCollege:        someCollege,
			model.EduBachelors:          bachelors,
			model.EduGraduate:           graduate,
		},
		OccupationCategories: map[string]int{
			model.OccManagement:   between(25, 45),
			model.OccService:      between(12, 22),
			model.OccSalesOffice:  between(15, 25),
			model.OccConstruction: between(5, 12),
			model.OccProduction:   between(8, 18),
		},
		HomeownershipRate: model.Float(float64(between(40, 80))),
		PovertyRate:       model.Float(float64(between(5, 20))),
		CollegeRate:       model.Float(float64(bachelors + graduate)),
		Source:            model.SourceFallbackZIP,
		FallbackReason:    reason,
		FetchedAt:         now,
	}
}
