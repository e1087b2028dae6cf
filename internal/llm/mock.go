package llm

import (
	"context"
	"sync"

	"shellmind/internal/types"
)

// MockClient is a scripted LLMClient for tests. Responses are consumed
// in order; when the script runs out the zero response is returned.
type MockClient struct {
	mu sync.Mutex

	// CompleteResponses feed Complete/CompleteWithSystem in order.
	CompleteResponses []string
	CompleteErr       error

	// ChatResponses feed ChatWithTools in order.
	ChatResponses []*LLMToolResponse
	ChatErr       error

	// Recorded calls for assertions.
	CompleteCalls []string
	ChatCalls     []ChatCall

	completeIdx int
	chatIdx     int
}

// ChatCall records one ChatWithTools invocation.
type ChatCall struct {
	SystemPrompt string
	History      []types.Message
	Tools        []ToolDefinition
}

func (m *MockClient) Complete(ctx context.Context, prompt string) (string, error) {
	return m.CompleteWithSystem(ctx, "", prompt)
}

func (m *MockClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CompleteCalls = append(m.CompleteCalls, userPrompt)
	if m.CompleteErr != nil {
		return "", m.CompleteErr
	}
	if m.completeIdx < len(m.CompleteResponses) {
		resp := m.CompleteResponses[m.completeIdx]
		m.completeIdx++
		return resp, nil
	}
	return "", nil
}

func (m *MockClient) ChatWithTools(ctx context.Context, systemPrompt string, history []types.Message, tools []ToolDefinition) (*LLMToolResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recorded := make([]types.Message, len(history))
	copy(recorded, history)
	m.ChatCalls = append(m.ChatCalls, ChatCall{
		SystemPrompt: systemPrompt,
		History:      recorded,
		Tools:        tools,
	})

	if m.ChatErr != nil {
		return nil, m.ChatErr
	}
	if m.chatIdx < len(m.ChatResponses) {
		resp := m.ChatResponses[m.chatIdx]
		m.chatIdx++
		return resp, nil
	}
	return &LLMToolResponse{}, nil
}
