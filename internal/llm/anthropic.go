package llm

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/constituent-twin/internal/resilience"
	"github.com/sells-group/constituent-twin/pkg/anthropic"
)

type anthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropic adapts an Anthropic client to Provider.
func NewAnthropic(client anthropic.Client, model string) Provider {
	return &anthropicProvider{client: client, model: model}
}

func (p *anthropicProvider) Name() string { return ProviderAnthropic }

func (p *anthropicProvider) Complete(ctx context.Context, req Request) (string, error) {
	msgs := make([]anthropic.Message, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = anthropic.Message{Role: m.Role, Content: m.Content}
	}

	areq := anthropic.MessageRequest{
		Model:       p.model,
		MaxTokens:   req.MaxTokens,
		Messages:    msgs,
		Temperature: req.Temperature,
	}
	if req.System != "" {
		if req.CacheSystem {
			areq.System = anthropic.BuildCachedSystemBlocks(req.System, "5m")
		} else {
			areq.System = []anthropic.SystemBlock{{Text: req.System}}
		}
	}

	resp, err := p.client.CreateMessage(ctx, areq)
	if err != nil {
		return "", classify(err, anthropic.StatusCode(err))
	}
	resp.Usage.LogCost(p.model, req.Operation)
	if resp.Truncated() {
		zap.L().Warn("anthropic response hit the token limit",
			zap.String("operation", req.Operation),
			zap.Int64("max_tokens", req.MaxTokens),
		)
	}
	return resp.Text(), nil
}

// classify attaches the HTTP status to err so retry policies can see it.
func classify(err error, status int) error {
	if status == 0 {
		return err
	}
	return resilience.ClassifyStatus(err, status)
}
