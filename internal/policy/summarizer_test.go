package policy

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/constituent-twin/internal/llm"
	"github.com/sells-group/constituent-twin/internal/resilience"
)

const sampleBill = `# Clean Transit Act

The bill funds electric buses in mid-sized cities. It sets aside $2 billion over five years! Cities apply through their state DOT. Grants require a 20% local match. Rural routes get priority scoring.

- Funds electric bus purchases
- Requires a local match
3. Prioritizes rural routes
`

type stubProvider struct {
	text  string
	err   error
	calls int
	last  llm.Request
}

func (s *stubProvider) Name() string { return "anthropic" }

func (s *stubProvider) Complete(_ context.Context, req llm.Request) (string, error) {
	s.calls++
	s.last = req
	return s.text, s.err
}

func chainOf(p llm.Provider) *llm.Chain {
	return llm.NewChain([]llm.Provider{p}, llm.ChainOptions{
		Retry: resilience.RateLimitRetryConfig(1, time.Millisecond, time.Millisecond),
	})
}

func TestSummarize_LLM(t *testing.T) {
	p := &stubProvider{text: "Sure! {\"title\":\"Clean Transit Act\",\"summary\":\"Funds electric buses.\",\"keyPoints\":[\"$2B\",\"20% match\"]}"}

	got := NewSummarizer(chainOf(p)).Summarize(context.Background(), sampleBill)
	assert.Equal(t, "Clean Transit Act", got.Title)
	assert.Equal(t, "Funds electric buses.", got.Summary)
	assert.Equal(t, []string{"$2B", "20% match"}, got.KeyPoints)
	assert.Equal(t, "llm:anthropic", got.Source)
	assert.Equal(t, ContentHash(sampleBill), got.ContentHash)
	assert.Positive(t, got.WordCount)
	assert.Equal(t, "summary", p.last.Operation)
}

func TestSummarize_InvalidLLMResponseFallsBack(t *testing.T) {
	p := &stubProvider{text: `{"title":"","summary":"x"}`}

	got := NewSummarizer(chainOf(p)).Summarize(context.Background(), sampleBill)
	assert.Equal(t, SourceExtractive, got.Source)
	assert.Equal(t, "Clean Transit Act", got.Title)
}

func TestSummarize_ProviderErrorFallsBack(t *testing.T) {
	p := &stubProvider{err: errors.New("connection refused")}

	got := NewSummarizer(chainOf(p)).Summarize(context.Background(), sampleBill)
	assert.Equal(t, SourceExtractive, got.Source)
	assert.Equal(t, 1, p.calls)
}

func TestSummarize_Offline(t *testing.T) {
	got := NewSummarizer(nil).Summarize(context.Background(), sampleBill)
	assert.Equal(t, SourceExtractive, got.Source)
	assert.Equal(t, "Clean Transit Act", got.Title)
	assert.Equal(t,
		"The bill funds electric buses in mid-sized cities. It sets aside $2 billion over five years! Cities apply through their state DOT.",
		got.Summary)
	assert.Equal(t, []string{"Funds electric bus purchases", "Requires a local match", "Prioritizes rural routes"}, got.KeyPoints)
}

func TestSummarize_Blank(t *testing.T) {
	p := &stubProvider{}
	got := NewSummarizer(chainOf(p)).Summarize(context.Background(), "  \n ")
	assert.Empty(t, got.Summary)
	assert.Zero(t, got.WordCount)
	assert.NotNil(t, got.KeyPoints)
	assert.Zero(t, p.calls)
}

func TestSummarize_TruncatesInput(t *testing.T) {
	p := &stubProvider{text: `{"title":"t","summary":"s"}`}
	long := strings.Repeat("word ", MaxInputChars)

	got := NewSummarizer(chainOf(p)).Summarize(context.Background(), long)
	require.Equal(t, "llm:anthropic", got.Source)
	assert.Len(t, p.last.Messages[0].Content, MaxInputChars)
	assert.NotNil(t, got.KeyPoints)
}

func TestContentHash(t *testing.T) {
	h := ContentHash("abc")
	assert.Len(t, h, 16)
	assert.Equal(t, h, ContentHash("  abc\n"))
	assert.NotEqual(t, h, ContentHash("abd"))
}

func TestSentences(t *testing.T) {
	assert.Equal(t, []string{"One.", "Two?", "Three!", "Four"}, Sentences("One. Two? Three! Four"))
	assert.Equal(t, []string{"Pay $2.50 per ride."}, Sentences("Pay $2.50 per ride."))
	assert.Empty(t, Sentences("   "))
}

func TestExtract_TitleOnly(t *testing.T) {
	title, summary, points := Extract("Just a title")
	assert.Equal(t, "Just a title", title)
	assert.Equal(t, "Just a title", summary)
	assert.Empty(t, points)
}
