package llm

import (
	"context"
	"sync"
)

// MockClient is a scriptable Client for testing.
type MockClient struct {
	mu        sync.Mutex
	responses []string
	last      string
	err       error
	calls     []CompletionRequest

	// CompleteFunc can be set for custom behavior; it takes precedence
	// over queued responses.
	CompleteFunc func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// NewMockClient creates a new mock client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// QueueResponse appends a canned response; each call consumes one.
// The last response is repeated once the queue is exhausted.
func (m *MockClient) QueueResponse(content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, content)
}

// SetError makes every call fail with err.
func (m *MockClient) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// CallCount returns the number of Complete invocations.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastRequest returns the most recent request, or nil.
func (m *MockClient) LastRequest() *CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	req := m.calls[len(m.calls)-1]
	return &req
}

// Complete implements the Client interface.
func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if m.CompleteFunc != nil {
		m.mu.Lock()
		m.calls = append(m.calls, req)
		m.mu.Unlock()
		return m.CompleteFunc(ctx, req)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, req)
	if m.err != nil {
		return nil, m.err
	}

	content := m.last
	if len(m.responses) > 0 {
		content = m.responses[0]
		m.responses = m.responses[1:]
		m.last = content
	}

	return &CompletionResponse{
		Content: content,
		Model:   "mock",
		Usage:   Usage{InputTokens: len(req.Prompt) / 4, OutputTokens: len(content) / 4},
	}, nil
}
