// Package llm adapts the Anthropic and Groq clients to one Provider
// interface and runs requests across an ordered provider chain.
package llm

import (
	"context"
)

// Provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderGroq      = "groq"
)

// Message is one conversational turn. Role is "user" or "assistant".
type Message struct {
	Role    string
	Content string
}

// Request is a provider-neutral completion request.
type Request struct {
	// Operation labels logs and metrics ("personas", "summary", "chat").
	Operation   string
	System      string
	Messages    []Message
	MaxTokens   int64
	Temperature *float64
	// CacheSystem asks providers that support prompt caching to cache the
	// system prompt.
	CacheSystem bool
}

// Provider completes a request and returns the response text. Errors from
// HTTP responses carry their status (see resilience.StatusCode).
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}
