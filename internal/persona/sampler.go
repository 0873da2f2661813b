// Package persona draws synthetic constituents from a demographic profile.
//
// Each attribute is sampled independently per persona, with coherence rules
// linking them: education depends on age, occupation on education and the
// region's income, and income on median income, education and age.
package persona

import (
	"math/rand/v2"
	"sync"

	"github.com/sells-group/constituent-twin/internal/model"
)

// Sampler produces personas from a profile. It is safe for concurrent use;
// calls are serialized on the underlying random source so a seeded Sampler
// is reproducible.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler creates a Sampler seeded with seed.
func NewSampler(seed uint64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Sample returns exactly count personas, or none when count < 1. It never
// fails: missing or malformed profile fields fall back to fixed defaults.
func (s *Sampler) Sample(p *model.DemographicProfile, count int) []model.Persona {
	if count < 1 {
		return []model.Persona{}
	}
	if p == nil {
		p = &model.DemographicProfile{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Persona, count)
	for i := range out {
		out[i] = s.one(p, i+1)
	}
	return out
}

func (s *Sampler) one(p *model.DemographicProfile, n int) model.Persona {
	age := sampleAge(s.rng, p.AgeGroups)
	race := sampleRace(s.rng, p.RaceEthnicity)
	edu := sampleEducation(s.rng, age)
	occ := sampleOccupation(s.rng, edu, p.MedianIncome)
	income := sampleIncome(s.rng, p.MedianIncome, edu, age)

	persona := model.Persona{
		ID:                 model.PersonaID(n),
		DisplayName:        model.PersonaDisplayName(n),
		Age:                age,
		RaceEthnicityLabel: race,
		EducationLevel:     edu,
		OccupationLabel:    occ,
		AnnualIncome:       income,
		PolicyImpactNote:   model.ImpactPending,
		Source:             model.PersonaSourceSampler,
	}
	persona.Narrative = narrate(s.rng, persona)
	return persona
}
