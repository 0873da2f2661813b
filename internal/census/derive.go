package census

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/constituent-twin/internal/model"
)

// DefaultMinMedianIncome is the floor applied to median household income.
const DefaultMinMedianIncome = 30000

// Education tiers below a bachelor's degree and all occupation categories
// are not derived from the response. These illustrative constants stand in
// for them, so education and occupation percentages are estimates only.
var (
	fixedLowerEducation = map[string]int{
		model.EduLessThanHighSchool: 11,
		model.EduHighSchool:         27,
		model.EduSomeCollege:        29,
	}
	fixedOccupations = map[string]int{
		model.OccManagement:   38,
		model.OccService:      17,
		model.OccSalesOffice:  21,
		model.OccConstruction: 9,
		model.OccProduction:   15,
	}
)

// Derive converts raw counts into a profile. It fails with ErrUpstream when
// the population is zero or a required distribution comes out empty.
func Derive(regionID string, c *Counts, minIncome int, source model.ProfileSource, now time.Time) (*model.DemographicProfile, error) {
	if c == nil || c.Population <= 0 {
		return nil, eris.Wrap(ErrUpstream, "zero population")
	}
	pop := c.Population

	other := max(pop-(c.White+c.Black+c.Hispanic+c.Asian), 0)
	race := map[string]int{
		model.RaceWhite:    pct(c.White, pop),
		model.RaceBlack:    pct(c.Black, pop),
		model.RaceHispanic: pct(c.Hispanic, pop),
		model.RaceAsian:    pct(c.Asian, pop),
		model.RaceOther:    pct(other, pop),
	}

	// Degree holders split 60/40 between bachelors and graduate.
	degreeShare := pct(c.Degrees(), pop)
	bachelors := degreeShare * 60 / 100
	graduate := degreeShare * 40 / 100

	edu := map[string]int{
		model.EduBachelors: bachelors,
		model.EduGraduate:  graduate,
	}
	for k, v := range fixedLowerEducation {
		edu[k] = v
	}

	occ := make(map[string]int, len(fixedOccupations))
	for k, v := range fixedOccupations {
		occ[k] = v
	}

	p := &model.DemographicProfile{
		RegionID:             regionID,
		Population:           pop,
		MedianIncome:         max(c.MedianIncome, minIncome),
		MedianAge:            c.MedianAge,
		RaceEthnicity:        race,
		EducationLevels:      edu,
		OccupationCategories: occ,
		CollegeRate:          model.Float(float64(bachelors + graduate)),
		Source:               source,
		FetchedAt:            now,
	}
	if !p.Valid() {
		return nil, eris.Wrap(ErrUpstream, "derived profile has an empty distribution")
	}
	return p, nil
}

// pct is floor(n / total * 100), clamped at zero.
func pct(n, total int) int {
	if total <= 0 || n <= 0 {
		return 0
	}
	return n * 100 / total
}
