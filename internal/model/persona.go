package model

import (
	"fmt"
	"time"
)

// ImpactPending is the policyImpactNote value before an impact analysis runs.
const ImpactPending = "To be determined"

// PersonaSourceSampler marks personas drawn by the statistical sampler.
const PersonaSourceSampler = "sampler"

// PersonaSourceLLM returns the source tag for personas authored by provider.
func PersonaSourceLLM(provider string) string { return "llm:" + provider }

// Persona is one synthetic constituent.
type Persona struct {
	ID                 string `json:"id"`
	DisplayName        string `json:"displayName"`
	Age                int    `json:"age"`
	RaceEthnicityLabel string `json:"raceEthnicityLabel"`
	EducationLevel     string `json:"educationLevel"`
	OccupationLabel    string `json:"occupationLabel"`
	AnnualIncome       int    `json:"annualIncome"`
	Narrative          string `json:"narrative"`
	PolicyImpactNote   string `json:"policyImpactNote"`
	Source             string `json:"source"`
}

// PersonaID returns the batch-local id for the n-th persona (1-based).
func PersonaID(n int) string { return fmt.Sprintf("constituent-%d", n) }

// PersonaDisplayName returns the anonymized display name for the n-th persona.
func PersonaDisplayName(n int) string { return fmt.Sprintf("Constituent #%d", n) }

// Relabel overwrites identity fields so ids are sequential within a batch.
func Relabel(personas []Persona) {
	for i := range personas {
		personas[i].ID = PersonaID(i + 1)
		personas[i].DisplayName = PersonaDisplayName(i + 1)
		personas[i].PolicyImpactNote = ImpactPending
	}
}

// PersonaBatch is one generation of personas for a region.
type PersonaBatch struct {
	RegionID      string        `json:"regionId"`
	Personas      []Persona     `json:"personas"`
	Source        string        `json:"source"`
	ProfileSource ProfileSource `json:"profileSource"`
	GeneratedAt   time.Time     `json:"generatedAt"`
	Cached        bool          `json:"cached"`
}

// PolicySummary is a condensed view of an uploaded policy document.
type PolicySummary struct {
	ContentHash string   `json:"contentHash"`
	Title       string   `json:"title"`
	Summary     string   `json:"summary"`
	KeyPoints   []string `json:"keyPoints"`
	WordCount   int      `json:"wordCount"`
	Source      string   `json:"source"`
}

// ChatTurn is one message in a persona conversation.
type ChatTurn struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,max=8000"`
}

// ChatReply is a persona's answer.
type ChatReply struct {
	PersonaID string `json:"personaId"`
	Content   string `json:"content"`
	Source    string `json:"source"`
}
