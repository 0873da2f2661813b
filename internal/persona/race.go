package persona

import (
	"math/rand/v2"

	"github.com/sells-group/constituent-twin/internal/model"
)

var raceLabels = map[string]string{
	model.RaceWhite:    "White",
	model.RaceBlack:    "Black",
	model.RaceHispanic: "Hispanic",
	model.RaceAsian:    "Asian",
	model.RaceOther:    "Other",
}

// RaceLabel returns the display label for a race/ethnicity key.
func RaceLabel(key string) string {
	if l, ok := raceLabels[key]; ok {
		return l
	}
	return raceLabels[model.RaceOther]
}

// RaceLabels lists every display label in canonical order.
func RaceLabels() []string {
	out := make([]string, len(model.RaceCategories))
	for i, k := range model.RaceCategories {
		out[i] = raceLabels[k]
	}
	return out
}

func sampleRace(rng *rand.Rand, weights map[string]int) string {
	known := make(map[string]int, len(model.RaceCategories))
	for _, k := range model.RaceCategories {
		if v, ok := weights[k]; ok {
			known[k] = v
		}
	}
	key, ok := weightedChoice(rng, model.RaceCategories, known)
	if !ok {
		return raceLabels[model.RaceOther]
	}
	return raceLabels[key]
}
