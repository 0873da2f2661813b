package generator

import (
	"fmt"
	"strings"

	"github.com/sells-group/constituent-twin/internal/model"
)

const systemPrompt = `You generate synthetic constituent personas for legislative policy analysis.
Personas must be statistically plausible for the region described and must never
use real names. Respond with a single JSON array and nothing else: no prose, no
markdown fences. Each element must match the JSON Schema you are given exactly.`

// buildPrompt renders the user message for a generation request.
func buildPrompt(p *model.DemographicProfile, count int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Region: %s\n", p.RegionID)
	fmt.Fprintf(&b, "Population: %d\n", p.Population)
	fmt.Fprintf(&b, "Median household income: $%d\n", p.MedianIncome)
	if p.MedianAge > 0 {
		fmt.Fprintf(&b, "Median age: %.1f\n", p.MedianAge)
	}

	writeWeights(&b, "Age groups (counts)", model.AgeBrackets, p.AgeGroups)
	writeWeights(&b, "Race/ethnicity (%)", model.RaceCategories, p.RaceEthnicity)
	writeWeights(&b, "Education (%)", model.EducationLevels, p.EducationLevels)
	writeWeights(&b, "Occupation (%)", model.OccupationCategories, p.OccupationCategories)

	writeRate(&b, "Homeownership rate", p.HomeownershipRate)
	writeRate(&b, "Poverty rate", p.PovertyRate)
	writeRate(&b, "College rate", p.CollegeRate)

	fmt.Fprintf(&b, "\nGenerate exactly %d personas drawn from this population.\n", count)
	b.WriteString("Ages must be between 18 and 85. Incomes should be consistent with education, age and the regional median.\n")
	b.WriteString("The narrative is two or three sentences of third-person biography.\n")
	fmt.Fprintf(&b, "\nJSON Schema for each array element:\n%s\n", PersonaSchema())

	return b.String()
}

func writeWeights(b *strings.Builder, title string, order []string, m map[string]int) {
	if model.Total(m) <= 0 {
		return
	}
	parts := make([]string, 0, len(order))
	for _, k := range order {
		if v, ok := m[k]; ok {
			parts = append(parts, fmt.Sprintf("%s=%d", k, v))
		}
	}
	fmt.Fprintf(b, "%s: %s\n", title, strings.Join(parts, ", "))
}

func writeRate(b *strings.Builder, title string, v *float64) {
	if v == nil {
		return
	}
	fmt.Fprintf(b, "%s: %.1f%%\n", title, *v)
}
