package persona

import (
	"math/rand/v2"
	"regexp"
	"strconv"

	"github.com/sells-group/constituent-twin/internal/model"
)

const (
	// MinAge and MaxAge bound every sampled age.
	MinAge = 18
	MaxAge = 85

	// DefaultAge is used when a bracket label cannot be parsed.
	DefaultAge = 35
)

// FallbackAgeWeights apply when a profile carries no usable age groups.
var FallbackAgeWeights = map[string]int{
	model.Age18to24: 12,
	model.Age25to34: 18,
	model.Age35to44: 16,
	model.Age45to54: 15,
	model.Age55to64: 14,
	model.Age65to74: 12,
	model.Age75Plus: 13,
}

var (
	rangeLabel = regexp.MustCompile(`^(\d+)-(\d+)$`)
	plusLabel  = regexp.MustCompile(`^(\d+)\+$`)
)

// ParseBracket parses "N-M" or "N+" labels. Open-ended brackets end at MaxAge.
func ParseBracket(label string) (lo, hi int, ok bool) {
	if m := rangeLabel.FindStringSubmatch(label); m != nil {
		lo, _ = strconv.Atoi(m[1])
		hi, _ = strconv.Atoi(m[2])
		if lo > hi {
			return 0, 0, false
		}
		return lo, hi, true
	}
	if m := plusLabel.FindStringSubmatch(label); m != nil {
		lo, _ = strconv.Atoi(m[1])
		return lo, max(lo, MaxAge), true
	}
	return 0, 0, false
}

func sampleAge(rng *rand.Rand, groups map[string]int) int {
	label, ok := weightedChoice(rng, model.AgeBrackets, groups)
	if !ok {
		label, _ = weightedChoice(rng, model.AgeBrackets, FallbackAgeWeights)
	}

	age := DefaultAge
	if lo, hi, ok := ParseBracket(label); ok {
		age = uniformInt(rng, lo, hi)
	}
	return min(max(age, MinAge), MaxAge)
}
