package llm

import (
	"context"
	"encoding/json"
	"sync"
)

const mockModel = "mock"

// emptyCombinations is what the mock answers once its script runs out, so the
// mock backend can stand in for a real one when running offline.
var emptyCombinations = json.RawMessage(`{"combinations":[]}`)

// MockResponse is one scripted reply.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider replays scripted replies in order and records every request.
type MockProvider struct {
	mu     sync.Mutex
	script []MockResponse
	strict bool

	Calls []Request
}

// NewMockProvider returns a provider that replays responses and then fails
// with ErrProviderUnavailable.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{script: responses, strict: true}
}

// NewOfflineProvider returns a provider that answers every request with an
// empty combination list.
func NewOfflineProvider() *MockProvider {
	return &MockProvider{}
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)

	if len(m.script) == 0 {
		if m.strict {
			return nil, &ErrProviderUnavailable{}
		}
		return &Response{Content: emptyCombinations, Model: mockModel, StopReason: "end"}, nil
	}

	next := m.script[0]
	m.script = m.script[1:]
	if next.Err != nil {
		return nil, next.Err
	}
	return &Response{Content: next.Content, Usage: next.Usage, Model: mockModel, StopReason: "end"}, nil
}

func (m *MockProvider) ModelID() string { return mockModel }

// AddResponse appends a reply to the script.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	m.script = append(m.script, resp)
	m.mu.Unlock()
}

// CallCount reports how many requests were made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
