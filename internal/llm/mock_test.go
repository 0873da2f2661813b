package llm

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/constituent-twin/pkg/anthropic"
	"github.com/sells-group/constituent-twin/pkg/groq"
)

// --- Provider Mock ---

type mockProvider struct {
	mock.Mock
	name string
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Complete(ctx context.Context, req Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// --- Anthropic Mock ---

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// --- Groq Mock ---

type mockGroqClient struct {
	mock.Mock
}

func (m *mockGroqClient) CreateChatCompletion(ctx context.Context, req groq.ChatRequest) (*groq.ChatResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*groq.ChatResponse), args.Error(1)
}
