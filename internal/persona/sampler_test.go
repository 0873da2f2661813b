package persona

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/constituent-twin/internal/model"
)

func testProfile() *model.DemographicProfile {
	return &model.DemographicProfile{
		RegionID:     "CA-12",
		Population:   700000,
		MedianIncome: 98000,
		RaceEthnicity: map[string]int{
			model.RaceWhite: 57, model.RaceBlack: 11, model.RaceHispanic: 21, model.RaceAsian: 7, model.RaceOther: 4,
		},
		EducationLevels:      map[string]int{model.EduBachelors: 20, model.EduGraduate: 13},
		OccupationCategories: map[string]int{model.OccManagement: 38},
	}
}

func TestSample_ExactCount(t *testing.T) {
	s := NewSampler(1)
	for _, n := range []int{1, 2, 5, 17, 100} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			got := s.Sample(testProfile(), n)
			require.Len(t, got, n)
			for i, p := range got {
				assert.Equal(t, model.PersonaID(i+1), p.ID)
				assert.Equal(t, fmt.Sprintf("Constituent #%d", i+1), p.DisplayName)
				assert.Equal(t, model.ImpactPending, p.PolicyImpactNote)
				assert.Equal(t, model.PersonaSourceSampler, p.Source)
				assert.NotEmpty(t, p.Narrative)
			}
		})
	}
}

func TestSample_NonPositiveCount(t *testing.T) {
	s := NewSampler(1)
	assert.Empty(t, s.Sample(testProfile(), 0))
	assert.Empty(t, s.Sample(testProfile(), -3))
}

func TestSample_NilAndEmptyProfile(t *testing.T) {
	s := NewSampler(1)
	assert.NotPanics(t, func() {
		got := s.Sample(nil, 3)
		require.Len(t, got, 3)
		for _, p := range got {
			assert.Equal(t, "Other", p.RaceEthnicityLabel)
			assert.Equal(t, 0, p.AnnualIncome)
		}
	})
}

func TestSample_Invariants(t *testing.T) {
	s := NewSampler(99)
	profile := testProfile()
	for _, p := range s.Sample(profile, 2000) {
		assert.GreaterOrEqual(t, p.Age, MinAge)
		assert.LessOrEqual(t, p.Age, MaxAge)
		assert.Contains(t, model.EducationLevels, p.EducationLevel)
		assert.Contains(t, Occupations(p.EducationLevel), p.OccupationLabel)
		assert.Contains(t, RaceLabels(), p.RaceEthnicityLabel)

		lo, hi := IncomeBand(profile.MedianIncome, p.EducationLevel, p.Age)
		assert.GreaterOrEqual(t, float64(p.AnnualIncome), lo-0.5, "income below band for %+v", p)
		assert.LessOrEqual(t, float64(p.AnnualIncome), hi+0.5, "income above band for %+v", p)

		assert.Positive(t, EducationWeights(p.Age)[p.EducationLevel],
			"education %s impossible at age %d", p.EducationLevel, p.Age)
	}
}

func TestSample_FallbackAgeFrequency(t *testing.T) {
	s := NewSampler(2024)
	const trials = 10000

	counts := map[string]int{}
	for _, p := range s.Sample(testProfile(), trials) {
		counts[bracketOf(p.Age)]++
	}

	for label, weight := range FallbackAgeWeights {
		got := float64(counts[label]) * 100 / trials
		assert.InDelta(t, float64(weight), got, 3, "bracket %s", label)
	}
}

func TestSample_UsesProfileAgeGroups(t *testing.T) {
	p := testProfile()
	p.AgeGroups = map[string]int{model.Age65to74: 10}
	for _, persona := range NewSampler(3).Sample(p, 200) {
		assert.GreaterOrEqual(t, persona.Age, 65)
		assert.LessOrEqual(t, persona.Age, 74)
	}
}

func TestSample_SeededReproducible(t *testing.T) {
	a := NewSampler(77).Sample(testProfile(), 20)
	b := NewSampler(77).Sample(testProfile(), 20)
	assert.Equal(t, a, b)

	c := NewSampler(78).Sample(testProfile(), 20)
	assert.NotEqual(t, a, c)
}

func TestSample_ConcurrentUse(t *testing.T) {
	s := NewSampler(5)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Len(t, s.Sample(testProfile(), 50), 50)
		}()
	}
	wg.Wait()
}

func bracketOf(age int) string {
	for _, label := range model.AgeBrackets {
		lo, hi, _ := ParseBracket(label)
		if age >= lo && age <= hi {
			return label
		}
	}
	return ""
}

func TestParseBracket(t *testing.T) {
	tests := []struct {
		label  string
		lo, hi int
		ok     bool
	}{
		{"18-24", 18, 24, true},
		{"75+", 75, 85, true},
		{"90+", 90, 90, true},
		{"30-20", 0, 0, false},
		{"seniors", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			lo, hi, ok := ParseBracket(tt.label)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.lo, lo)
			assert.Equal(t, tt.hi, hi)
		})
	}
}

func TestSampleAge_MalformedLabel(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for range 50 {
		assert.Equal(t, DefaultAge, sampleAge(rng, map[string]int{"seniors": 5}))
	}
	for range 50 {
		assert.Equal(t, MaxAge, sampleAge(rng, map[string]int{"90+": 5}))
	}
	for range 50 {
		assert.Equal(t, MinAge, sampleAge(rng, map[string]int{"0-10": 5}))
	}
}

func TestSampleRace(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	assert.Equal(t, "Other", sampleRace(rng, nil))
	assert.Equal(t, "Other", sampleRace(rng, map[string]int{model.RaceWhite: 0, model.RaceBlack: -4}))
	assert.Equal(t, "Asian", sampleRace(rng, map[string]int{model.RaceAsian: 3}))
	// Unknown keys carry no weight.
	assert.Equal(t, "Other", sampleRace(rng, map[string]int{"martian": 50}))
	assert.Equal(t, "Other", RaceLabel("martian"))
}

func TestSampleEducation_ByAge(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for range 500 {
		edu := sampleEducation(rng, 19)
		assert.Contains(t, []string{model.EduHighSchool, model.EduSomeCollege}, edu)

		edu = sampleEducation(rng, 22)
		assert.NotEqual(t, model.EduGraduate, edu)
		assert.NotEqual(t, model.EduLessThanHighSchool, edu)

		edu = sampleEducation(rng, 30)
		assert.NotEqual(t, model.EduLessThanHighSchool, edu)
	}
	for _, w := range []map[string]int{eduUnder20, edu20to24, edu25to34, edu35Plus} {
		assert.Equal(t, 100, model.Total(w))
	}
}

func TestSampleOccupation_IncomeBias(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	tier := Catalog[model.EduBachelors]
	const trials = 5000

	upperShare := func(median int) float64 {
		upper := 0
		for range trials {
			if slices.Contains(tier.Upper, sampleOccupation(rng, model.EduBachelors, median)) {
				upper++
			}
		}
		return float64(upper) / trials
	}

	assert.InDelta(t, 0.65, upperShare(HighIncomeThreshold), 0.03)
	assert.InDelta(t, 0.35, upperShare(HighIncomeThreshold-1), 0.03)
	assert.Contains(t, Occupations("unknown"), sampleOccupation(rng, "unknown", 0))
}

func TestIncomeMultipliers(t *testing.T) {
	assert.Equal(t, 1.5, EducationMultiplier(model.EduGraduate))
	assert.Equal(t, 0.5, EducationMultiplier(model.EduLessThanHighSchool))
	assert.Equal(t, 0.7, EducationMultiplier("unknown"))

	ages := map[int]float64{18: 0.7, 24: 0.7, 25: 0.9, 34: 0.9, 35: 1.1, 45: 1.2, 54: 1.2, 55: 1.1, 64: 1.1, 65: 0.8, 85: 0.8}
	for age, want := range ages {
		assert.Equal(t, want, AgeMultiplier(age), "age %d", age)
	}

	lo, hi := IncomeBand(100000, model.EduGraduate, 40)
	assert.InDelta(t, 123750, lo, 0.01)
	assert.InDelta(t, 206250, hi, 0.01)
}

func TestWeightedChoice(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	_, ok := weightedChoice(rng, nil, nil)
	assert.False(t, ok)

	counts := map[string]int{}
	for range 10000 {
		k, ok := weightedChoice(rng, []string{"a", "b"}, map[string]int{"a": 1, "b": 3, "c": 0})
		require.True(t, ok)
		counts[k]++
	}
	assert.Zero(t, counts["c"])
	assert.InDelta(t, 0.75, float64(counts["b"])/10000, 0.03)
	assert.Equal(t, []string{"b", "a", "x", "y"}, orderedKeys([]string{"b", "a", "z"}, map[string]int{"y": 1, "a": 1, "x": 1, "b": 1}))
}
