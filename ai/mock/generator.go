package mock

import (
	"context"
	"sync"

	"github.com/poiesic/pitwall/core"
)

// MockGenerator is a test double for ai.Generator.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, the content of the final message is echoed back.
	GenerateFunc func(ctx context.Context, messages []core.ChatMessage) (string, error)

	mu        sync.Mutex
	callCount int
	last      []core.ChatMessage
}

// NewMockGenerator creates a mock generator with echo behavior.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// WithReply makes every call return the given text.
func (m *MockGenerator) WithReply(reply string) *MockGenerator {
	m.GenerateFunc = func(context.Context, []core.ChatMessage) (string, error) {
		return reply, nil
	}
	return m
}

// WithError makes every call fail with err.
func (m *MockGenerator) WithError(err error) *MockGenerator {
	m.GenerateFunc = func(context.Context, []core.ChatMessage) (string, error) {
		return "", err
	}
	return m
}

// Generate records the messages and returns the configured reply.
func (m *MockGenerator) Generate(ctx context.Context, messages []core.ChatMessage) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.last = append([]core.ChatMessage(nil), messages...)
	fn := m.GenerateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages)
	}
	if len(messages) == 0 {
		return "", nil
	}
	return messages[len(messages)-1].Content, nil
}

// CallCount returns the number of Generate calls.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastMessages returns a copy of the messages passed to the most recent call.
func (m *MockGenerator) LastMessages() []core.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.ChatMessage(nil), m.last...)
}
