//go:build !integration

package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/constituent-twin/internal/model"
)

func TestCheckFormat(t *testing.T) {
	assert.NoError(t, checkFormat("table"))
	assert.NoError(t, checkFormat("json"))
	assert.Error(t, checkFormat("csv"))
}

func TestFormatProfile(t *testing.T) {
	p := &model.DemographicProfile{
		RegionID:             "CA-12",
		Population:           760000,
		MedianIncome:         91000,
		MedianAge:            38.4,
		AgeGroups:            map[string]int{model.Age18to24: 12, model.Age75Plus: 6},
		RaceEthnicity:        map[string]int{model.RaceWhite: 57, model.RaceBlack: 11, "pacific": 1},
		EducationLevels:      map[string]int{model.EduBachelors: 40},
		OccupationCategories: map[string]int{model.OccManagement: 45},
		Source:               model.SourceFallbackDistrict,
		FallbackReason:       "census upstream: status 503",
		ZIPCodes:             []string{"94102", "94103"},
	}

	var buf bytes.Buffer
	formatProfile(&buf, p)
	out := buf.String()

	assert.Contains(t, out, "CA-12")
	assert.Contains(t, out, "fallback_district")
	assert.Contains(t, out, "status 503")
	assert.Contains(t, out, "$91000")
	assert.Contains(t, out, "38.4")
	assert.Contains(t, out, "94102, 94103")
	assert.Contains(t, out, "CATEGORY")
	assert.Contains(t, out, "pacific")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("white")), bytes.Index(buf.Bytes(), []byte("pacific")))
}

func TestFormatPersonas(t *testing.T) {
	b := &model.PersonaBatch{
		RegionID: "94110",
		Personas: []model.Persona{{
			ID:                 "constituent-1",
			DisplayName:        "Constituent #1",
			Age:                34,
			RaceEthnicityLabel: "Hispanic",
			EducationLevel:     model.EduBachelors,
			OccupationLabel:    "Registered Nurse",
			AnnualIncome:       88000,
			Narrative:          "Works night shifts at the county hospital.",
		}},
		Source:        model.PersonaSourceSampler,
		ProfileSource: model.SourceCensus,
		GeneratedAt:   time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC),
		Cached:        true,
	}

	var buf bytes.Buffer
	formatPersonas(&buf, b)
	out := buf.String()

	assert.Contains(t, out, "1 personas for 94110 from sampler, profile census (cached)")
	assert.Contains(t, out, "OCCUPATION")
	assert.Contains(t, out, "Registered Nurse")
	assert.Contains(t, out, "$88000")
	assert.Contains(t, out, "Constituent #1: Works night shifts")
}

func TestFormatSummary(t *testing.T) {
	var buf bytes.Buffer
	formatSummary(&buf, &model.PolicySummary{
		ContentHash: "abc123",
		Title:       "Clean Transit Act",
		Summary:     "Funds electric buses.",
		KeyPoints:   []string{"$2B over five years"},
		WordCount:   120,
		Source:      "extractive",
	})
	out := buf.String()

	assert.Contains(t, out, "Clean Transit Act\n")
	assert.Contains(t, out, "(120 words, extractive, abc123)")
	assert.Contains(t, out, "  - $2B over five years")
}

func TestFormatStats(t *testing.T) {
	var buf bytes.Buffer
	formatStats(&buf, map[string]int{"summary": 2, "personas": 5})
	out := buf.String()

	assert.Contains(t, out, "KIND")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("personas")), bytes.Index(buf.Bytes(), []byte("summary")))
	assert.Regexp(t, `total\s+7`, out)
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]int{"count": 3}))

	var got map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 3, got["count"])
	assert.Contains(t, buf.String(), "\n  ")
}
