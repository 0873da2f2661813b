// Package chat lets a user converse with a persona about a policy.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/constituent-twin/internal/llm"
	"github.com/sells-group/constituent-twin/internal/model"
	"github.com/sells-group/constituent-twin/internal/persona"
)

const (
	// SourceTemplate marks replies produced without an LLM.
	SourceTemplate = "template"

	// HistoryTurns is how many prior turns are sent to the provider.
	HistoryTurns = 10

	maxReplyTokens = 600
)

// ErrInvalidRequest is returned for malformed chat requests.
var ErrInvalidRequest = eris.New("chat: invalid request")

// Request is one user message to a persona.
type Request struct {
	Persona       model.Persona        `json:"persona"`
	PolicySummary *model.PolicySummary `json:"policySummary,omitempty"`
	History       []model.ChatTurn     `json:"history" validate:"max=100,dive"`
	Message       string               `json:"message" validate:"required,max=8000"`
}

var validate = validator.New()

// Validate checks the request shape.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Persona.ID) == "" {
		return eris.Wrap(ErrInvalidRequest, "persona id is required")
	}
	if err := validate.Struct(r); err != nil {
		return eris.Wrapf(ErrInvalidRequest, "%v", err)
	}
	return nil
}

// Responder answers chat messages in a persona's voice.
type Responder struct {
	chain *llm.Chain
	log   *zap.Logger
}

// NewResponder creates a Responder. A nil or empty chain answers from
// templates only.
func NewResponder(chain *llm.Chain) *Responder {
	return &Responder{
		chain: chain,
		log:   zap.L().With(zap.String("component", "chat")),
	}
}

// Reply returns the persona's answer. Only request validation fails;
// provider failures produce a templated reply.
func (r *Responder) Reply(ctx context.Context, req Request) (*model.ChatReply, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	reply := &model.ChatReply{PersonaID: req.Persona.ID}

	if !r.chain.Empty() {
		var text string
		out, err := r.chain.Run(ctx, llm.Request{
			Operation:   "chat",
			System:      SystemPrompt(req.Persona, req.PolicySummary),
			Messages:    conversation(req.History, req.Message),
			MaxTokens:   maxReplyTokens,
			CacheSystem: true,
		}, func(resp string) error {
			text = strings.TrimSpace(resp)
			if text == "" {
				return eris.New("chat: empty reply")
			}
			return nil
		})
		if err == nil {
			reply.Content = text
			reply.Source = model.PersonaSourceLLM(out.Provider)
			return reply, nil
		}
		r.log.Warn("llm chat failed, using template reply",
			zap.String("persona_id", req.Persona.ID),
			zap.Error(err),
		)
	}

	reply.Content = templateReply(req.Persona, req.PolicySummary, len(req.History))
	reply.Source = SourceTemplate
	return reply, nil
}

// SystemPrompt renders the persona and policy context.
func SystemPrompt(p model.Persona, policy *model.PolicySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a constituent taking part in a policy listening session.\n", p.DisplayName)
	fmt.Fprintf(&b, "Age: %d. Race/ethnicity: %s. Education: %s. Occupation: %s. Household income: $%d a year.\n",
		p.Age, p.RaceEthnicityLabel, p.EducationLevel, p.OccupationLabel, p.AnnualIncome)
	if p.Narrative != "" {
		fmt.Fprintf(&b, "Background: %s\n", p.Narrative)
	}
	if policy != nil && policy.Summary != "" {
		fmt.Fprintf(&b, "\nThe policy under discussion is %q.\n%s\n", policy.Title, policy.Summary)
		for _, kp := range policy.KeyPoints {
			fmt.Fprintf(&b, "- %s\n", kp)
		}
	}
	b.WriteString("\nStay in character. Answer in the first person in under 150 words, grounded in your ")
	b.WriteString("circumstances. Do not claim to be an AI and do not invent a real name.")
	return b.String()
}

// conversation keeps the last HistoryTurns turns and appends the new message.
// Providers require the first message to come from the user.
func conversation(history []model.ChatTurn, message string) []llm.Message {
	if len(history) > HistoryTurns {
		history = history[len(history)-HistoryTurns:]
	}
	for len(history) > 0 && history[0].Role != "user" {
		history = history[1:]
	}
	msgs := make([]llm.Message, 0, len(history)+1)
	for _, t := range history {
		msgs = append(msgs, llm.Message{Role: t.Role, Content: t.Content})
	}
	return append(msgs, llm.Message{Role: "user", Content: message})
}

var replyTemplates = []string{
	"Speaking as %[1]s who %[2]s, my first question is how %[3]s changes what I pay each month. On about $%[4]d a year, that is what I feel first.",
	"I'd want to see how %[3]s plays out for people like me. I work as %[1]s, and anything that touches my hours or my paycheck matters.",
	"Honestly, I need more detail on %[3]s before I decide. I've worked as %[1]s for years and I've seen promises like this before.",
	"If %[3]s helps my neighbors without raising my costs, I could get behind it. Working as %[1]s, I notice quickly when things get tighter.",
}

func templateReply(p model.Persona, policy *model.PolicySummary, turn int) string {
	topic := "this policy"
	if policy != nil && policy.Title != "" {
		topic = policy.Title
	}
	occupation := strings.ToLower(p.OccupationLabel)
	if occupation == "" {
		occupation = "someone in this district"
	} else {
		occupation = article(occupation) + " " + occupation
	}
	tmpl := replyTemplates[turn%len(replyTemplates)]
	return fmt.Sprintf(tmpl, occupation, persona.EducationPhrase(p.EducationLevel), topic, p.AnnualIncome)
}

func article(word string) string {
	if word != "" && strings.ContainsRune("aeiou", rune(word[0])) {
		return "an"
	}
	return "a"
}
