package persona

import (
	"math/rand/v2"
	"slices"
)

// weightedChoice picks a key with probability proportional to its weight.
// Keys listed in order come first in that order, followed by any other keys
// of weights sorted, so results are reproducible for a seeded source.
// Negative weights count as zero. ok is false when the total is zero.
func weightedChoice(rng *rand.Rand, order []string, weights map[string]int) (string, bool) {
	keys := orderedKeys(order, weights)

	total := 0
	for _, k := range keys {
		total += max(weights[k], 0)
	}
	if total <= 0 {
		return "", false
	}

	r := rng.IntN(total)
	for _, k := range keys {
		w := max(weights[k], 0)
		if r < w {
			return k, true
		}
		r -= w
	}
	return keys[len(keys)-1], true
}

func orderedKeys(order []string, weights map[string]int) []string {
	keys := make([]string, 0, len(weights))
	seen := make(map[string]bool, len(order))
	for _, k := range order {
		if _, ok := weights[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var extra []string
	for k := range weights {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	return append(keys, extra...)
}

// uniformInt returns an integer in [lo, hi].
func uniformInt(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.IntN(hi-lo+1)
}
