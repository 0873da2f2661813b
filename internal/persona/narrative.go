package persona

import (
	"math/rand/v2"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/constituent-twin/internal/model"
)

// Templates take, by index: display name, age, race label, education phrase,
// occupation with article, annual income, age decade.
var narrativeTemplates = []string{
	"%[1]s is %[2]d, identifies as %[3]s and works as %[5]s. The household earns about $%[6]d a year, and %[1]s %[4]s.",
	"At %[2]d, %[1]s %[4]s and makes roughly $%[6]d annually working as %[5]s in the district.",
	"%[1]s, %[2]d, identifies as %[3]s and has built a life here working as %[5]s. Their household brings in around $%[6]d a year.",
	"Working as %[5]s, %[1]s earns close to $%[6]d a year. The %[2]d-year-old %[4]s and watches local policy closely.",
	"%[1]s is %[5]s in their %[7]s who %[4]s. They report an annual income near $%[6]d.",
	"%[1]s, %[2]d years old and of %[3]s heritage, %[4]s and supports the household on about $%[6]d a year as %[5]s.",
}

func narrate(rng *rand.Rand, p model.Persona) string {
	tmpl := narrativeTemplates[rng.IntN(len(narrativeTemplates))]
	return Narrative(tmpl, p)
}

// Narrative renders one template for p, with thousands separators in the
// income.
func Narrative(tmpl string, p model.Persona) string {
	printer := message.NewPrinter(language.English)
	lower := cases.Lower(language.English)
	return printer.Sprintf(tmpl,
		p.DisplayName,
		p.Age,
		p.RaceEthnicityLabel,
		EducationPhrase(p.EducationLevel),
		withArticle(lower.String(p.OccupationLabel)),
		p.AnnualIncome,
		decade(p.Age),
	)
}

func withArticle(s string) string {
	if s == "" {
		return "a worker"
	}
	if strings.ContainsRune("aeiou", rune(s[0])) {
		return "an " + s
	}
	return "a " + s
}

func decade(age int) string {
	switch {
	case age < 20:
		return "late teens"
	case age >= 80:
		return "eighties"
	}
	return [...]string{"twenties", "thirties", "forties", "fifties", "sixties", "seventies"}[age/10-2]
}

// NarrativeTemplateCount reports how many narrative templates exist.
func NarrativeTemplateCount() int { return len(narrativeTemplates) }
