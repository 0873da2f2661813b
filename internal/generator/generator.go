// Package generator produces persona batches with an LLM and falls back to
// the statistical sampler when no provider returns a valid response.
package generator

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/constituent-twin/internal/llm"
	"github.com/sells-group/constituent-twin/internal/model"
	"github.com/sells-group/constituent-twin/internal/monitoring"
	"github.com/sells-group/constituent-twin/internal/persona"
)

// DefaultMaxTokens bounds the completion size for one batch.
const DefaultMaxTokens = 4096

// Result is one generated batch and how it was produced.
type Result struct {
	Personas []model.Persona
	// Source is "sampler" or "llm:<provider>".
	Source   string
	Provider string
	// Attempts counts LLM calls made, retries included.
	Attempts int
	// FallbackReason is set when the sampler was used after LLM failure.
	FallbackReason string
}

// Generator orchestrates LLM generation with sampler fallback.
type Generator struct {
	chain       *llm.Chain
	sampler     *persona.Sampler
	maxTokens   int64
	temperature *float64
	log         *zap.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithMaxTokens sets the completion token budget.
func WithMaxTokens(n int64) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithTemperature sets the sampling temperature sent to providers.
func WithTemperature(t float64) Option {
	return func(g *Generator) { g.temperature = &t }
}

// New creates a Generator. A nil or empty chain means offline mode: every
// batch comes from the sampler.
func New(chain *llm.Chain, sampler *persona.Sampler, opts ...Option) *Generator {
	g := &Generator{
		chain:     chain,
		sampler:   sampler,
		maxTokens: DefaultMaxTokens,
		log:       zap.L().With(zap.String("component", "generator")),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate returns exactly count personas for count >= 1. It never fails:
// provider errors and schema violations fall back to the sampler.
func (g *Generator) Generate(ctx context.Context, p *model.DemographicProfile, count int) *Result {
	if count < 1 || p == nil || g.chain.Empty() {
		return g.fallback(p, count, "")
	}

	req := llm.Request{
		Operation:   "personas",
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: "user", Content: buildPrompt(p, count)}},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	}

	var personas []model.Persona
	out, err := g.chain.Run(ctx, req, func(text string) error {
		parsed, err := parsePersonas(text, count)
		if err != nil {
			return err
		}
		personas = parsed
		return nil
	})
	if err != nil {
		g.log.Warn("llm generation failed, using sampler",
			zap.String("region", p.RegionID),
			zap.Int("count", count),
			zap.Int("attempts", out.Attempts),
			zap.Error(err),
		)
		res := g.fallback(p, count, err.Error())
		res.Attempts = out.Attempts
		return res
	}

	source := model.PersonaSourceLLM(out.Provider)
	model.Relabel(personas)
	for i := range personas {
		personas[i].Source = source
	}
	monitoring.ObserveGeneration(source)

	return &Result{
		Personas: personas,
		Source:   source,
		Provider: out.Provider,
		Attempts: out.Attempts,
	}
}

func (g *Generator) fallback(p *model.DemographicProfile, count int, reason string) *Result {
	monitoring.ObserveGeneration(model.PersonaSourceSampler)
	return &Result{
		Personas:       g.sampler.Sample(p, count),
		Source:         model.PersonaSourceSampler,
		FallbackReason: reason,
	}
}
