package generator

import (
	"encoding/json"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"

	"github.com/sells-group/constituent-twin/internal/model"
)

// wirePersona is the shape an LLM must return for each persona. Identity
// fields are assigned locally, so they are not part of the contract.
type wirePersona struct {
	Age                int    `json:"age" jsonschema:"required,minimum=18,maximum=85" validate:"min=18,max=85"`
	RaceEthnicityLabel string `json:"raceEthnicityLabel" jsonschema:"required,enum=White,enum=Black,enum=Hispanic,enum=Asian,enum=Other" validate:"required,oneof=White Black Hispanic Asian Other"`
	EducationLevel     string `json:"educationLevel" jsonschema:"required,enum=lessThanHighSchool,enum=highSchool,enum=someCollege,enum=bachelors,enum=graduate" validate:"required,oneof=lessThanHighSchool highSchool someCollege bachelors graduate"`
	OccupationLabel    string `json:"occupationLabel" jsonschema:"required,minLength=1,maxLength=80" validate:"required,max=80"`
	AnnualIncome       int    `json:"annualIncome" jsonschema:"required,minimum=1000,maximum=2000000" validate:"min=1000,max=2000000"`
	Narrative          string `json:"narrative" jsonschema:"required,minLength=20,maxLength=1200" validate:"required,min=20,max=1200"`
}

func (w wirePersona) toModel() model.Persona {
	return model.Persona{
		Age:                w.Age,
		RaceEthnicityLabel: w.RaceEthnicityLabel,
		EducationLevel:     w.EducationLevel,
		OccupationLabel:    w.OccupationLabel,
		AnnualIncome:       w.AnnualIncome,
		Narrative:          w.Narrative,
	}
}

var validate = validator.New()

var (
	schemaOnce sync.Once
	schemaJSON string
)

// PersonaSchema returns the JSON Schema for one persona element, as embedded
// in the generation prompt.
func PersonaSchema() string {
	schemaOnce.Do(func() {
		reflector := jsonschema.Reflector{
			AllowAdditionalProperties:  false,
			DoNotReference:             true,
			RequiredFromJSONSchemaTags: true,
		}
		schema := reflector.Reflect(&wirePersona{})
		schema.Version = ""
		b, err := json.Marshal(schema)
		if err != nil {
			panic(err)
		}
		schemaJSON = string(b)
	})
	return schemaJSON
}
