// Package policy condenses uploaded policy documents into short summaries
// used to brief personas.
package policy

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/constituent-twin/internal/llm"
	"github.com/sells-group/constituent-twin/internal/model"
)

const (
	// SourceExtractive marks summaries built without an LLM.
	SourceExtractive = "extractive"

	// MaxInputChars caps the document text sent to a provider.
	MaxInputChars = 48000

	maxTitleLen      = 120
	maxKeyPoints     = 5
	summarySentences = 3
)

const systemPrompt = `You summarize legislative policy documents for constituent outreach.
Respond with one JSON object and nothing else, shaped as
{"title": string, "summary": string, "keyPoints": [string]}.
The summary is at most five plain-language sentences. keyPoints has at most five entries.`

type llmSummary struct {
	Title     string   `json:"title" validate:"required,max=200"`
	Summary   string   `json:"summary" validate:"required,max=4000"`
	KeyPoints []string `json:"keyPoints" validate:"max=10,dive,required,max=500"`
}

var validate = validator.New()

// Summarizer produces PolicySummary values.
type Summarizer struct {
	chain *llm.Chain
	log   *zap.Logger
}

// NewSummarizer creates a Summarizer. A nil or empty chain produces
// extractive summaries only.
func NewSummarizer(chain *llm.Chain) *Summarizer {
	return &Summarizer{
		chain: chain,
		log:   zap.L().With(zap.String("component", "policy")),
	}
}

// ContentHash returns a stable short hash of the document text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])[:16]
}

// Summarize condenses text. It falls back to an extractive summary when no
// provider returns a valid response. Blank text yields an empty summary.
func (s *Summarizer) Summarize(ctx context.Context, text string) *model.PolicySummary {
	text = strings.TrimSpace(text)
	base := &model.PolicySummary{
		ContentHash: ContentHash(text),
		WordCount:   len(strings.Fields(text)),
		KeyPoints:   []string{},
	}
	if text == "" {
		base.Source = SourceExtractive
		return base
	}

	if !s.chain.Empty() {
		var parsed llmSummary
		out, err := s.chain.Run(ctx, llm.Request{
			Operation: "summary",
			System:    systemPrompt,
			Messages:  []llm.Message{{Role: "user", Content: truncate(text, MaxInputChars)}},
			MaxTokens: 1024,
		}, func(resp string) error {
			return decodeSummary(resp, &parsed)
		})
		if err == nil {
			base.Title = parsed.Title
			base.Summary = parsed.Summary
			if parsed.KeyPoints != nil {
				base.KeyPoints = parsed.KeyPoints
			}
			base.Source = model.PersonaSourceLLM(out.Provider)
			return base
		}
		s.log.Warn("llm summary failed, using extractive summary",
			zap.String("content_hash", base.ContentHash),
			zap.Error(err),
		)
	}

	title, summary, points := Extract(text)
	base.Title = title
	base.Summary = summary
	base.KeyPoints = points
	base.Source = SourceExtractive
	return base
}

func decodeSummary(resp string, into *llmSummary) error {
	start := strings.IndexByte(resp, '{')
	end := strings.LastIndexByte(resp, '}')
	if start < 0 || end <= start {
		return eris.New("policy: no JSON object in response")
	}
	var v llmSummary
	if err := json.Unmarshal([]byte(resp[start:end+1]), &v); err != nil {
		return eris.Wrap(err, "policy: decode summary")
	}
	if err := validate.Struct(v); err != nil {
		return eris.Wrap(err, "policy: invalid summary")
	}
	*into = v
	return nil
}

// Extract builds a summary without an LLM: the first non-empty line is the
// title, the first three sentences of the body are the summary, and bullet
// or numbered lines become key points.
func Extract(text string) (title, summary string, keyPoints []string) {
	keyPoints = []string{}
	lines := strings.Split(strings.TrimSpace(text), "\n")

	var body []string
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if title == "" {
			title = truncate(strings.TrimLeft(line, "# "), maxTitleLen)
			continue
		}
		if point, ok := bullet(line); ok {
			if len(keyPoints) < maxKeyPoints {
				keyPoints = append(keyPoints, point)
			}
			continue
		}
		body = append(body, line)
	}

	sentences := Sentences(strings.Join(body, " "))
	if len(sentences) == 0 {
		sentences = Sentences(title)
	}
	if len(sentences) > summarySentences {
		sentences = sentences[:summarySentences]
	}
	return title, strings.Join(sentences, " "), keyPoints
}

// Sentences splits text at '.', '!' or '?' followed by whitespace or the end
// of the text.
func Sentences(text string) []string {
	var out []string
	runes := []rune(text)
	start := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func bullet(line string) (string, bool) {
	for _, p := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, p) {
			return strings.TrimSpace(line[len(p):]), true
		}
	}
	// "1. " or "12) "
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i+1 < len(line) && (line[i] == '.' || line[i] == ')') && line[i+1] == ' ' {
		return strings.TrimSpace(line[i+2:]), true
	}
	return "", false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
