package llm

import (
	"context"

	"github.com/sells-group/constituent-twin/pkg/groq"
)

type groqProvider struct {
	client groq.Client
	model  string
}

// NewGroq adapts a Groq client to Provider.
func NewGroq(client groq.Client, model string) Provider {
	return &groqProvider{client: client, model: model}
}

func (p *groqProvider) Name() string { return ProviderGroq }

func (p *groqProvider) Complete(ctx context.Context, req Request) (string, error) {
	msgs := make([]groq.Message, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, groq.Message{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, groq.Message{Role: m.Role, Content: m.Content})
	}

	resp, err := p.client.CreateChatCompletion(ctx, groq.ChatRequest{
		Model:       p.model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages:    msgs,
	})
	if err != nil {
		return "", classify(err, groq.StatusCode(err))
	}
	resp.Usage.LogUsage(p.model, req.Operation)
	return resp.Content, nil
}
