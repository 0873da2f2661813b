package persona

import (
	"math/rand/v2"

	"github.com/sells-group/constituent-twin/internal/model"
)

// Education is drawn from fixed age-conditioned tables rather than the
// profile's educationLevels, which are themselves partly estimated.
var (
	eduUnder20 = map[string]int{
		model.EduHighSchool:  80,
		model.EduSomeCollege: 20,
	}
	edu20to24 = map[string]int{
		model.EduHighSchool:  20,
		model.EduSomeCollege: 50,
		model.EduBachelors:   30,
	}
	edu25to34 = map[string]int{
		model.EduHighSchool:  15,
		model.EduSomeCollege: 25,
		model.EduBachelors:   40,
		model.EduGraduate:    20,
	}
	edu35Plus = map[string]int{
		model.EduLessThanHighSchool: 10,
		model.EduHighSchool:         30,
		model.EduSomeCollege:        25,
		model.EduBachelors:          25,
		model.EduGraduate:           10,
	}
)

// EducationWeights returns the education distribution for an age.
func EducationWeights(age int) map[string]int {
	switch {
	case age < 20:
		return eduUnder20
	case age < 25:
		return edu20to24
	case age < 35:
		return edu25to34
	default:
		return edu35Plus
	}
}

func sampleEducation(rng *rand.Rand, age int) string {
	level, _ := weightedChoice(rng, model.EducationLevels, EducationWeights(age))
	return level
}

var educationPhrases = map[string]string{
	model.EduLessThanHighSchool: "left school before finishing high school",
	model.EduHighSchool:         "has a high school diploma",
	model.EduSomeCollege:        "completed some college",
	model.EduBachelors:          "holds a bachelor's degree",
	model.EduGraduate:           "holds a graduate degree",
}

// EducationPhrase describes an education level as a verb phrase.
func EducationPhrase(level string) string {
	if p, ok := educationPhrases[level]; ok {
		return p
	}
	return "has a high school diploma"
}
