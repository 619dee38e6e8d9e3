package mock

import (
	"context"
	"sync"

	"github.com/poiesic/lexresearch/ai"
)

// GenerateCall records the arguments of one Generate call.
type GenerateCall struct {
	System string
	Prompt string
}

// MockGenerator is a test double for ai.Generator.
// It is safe for concurrent use.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, the configured response (or error) is returned.
	GenerateFunc func(ctx context.Context, system, prompt string) (string, error)

	mu       sync.Mutex
	response string
	err      error
	calls    []GenerateCall
}

var _ ai.Generator = (*MockGenerator)(nil)

// NewMockGenerator creates a mock generator that answers "mock response".
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{response: "mock response"}
}

// WithResponse sets the text returned by Generate.
func (m *MockGenerator) WithResponse(response string) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = response
	m.err = nil
	return m
}

// WithError makes every Generate call fail with err.
func (m *MockGenerator) WithError(err error) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// Generate records the call and returns the scripted result.
func (m *MockGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, GenerateCall{System: system, Prompt: prompt})
	fn, response, err := m.GenerateFunc, m.response, m.err
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, system, prompt)
	}
	if err != nil {
		return "", err
	}
	return response, nil
}

// CallCount returns the number of Generate calls.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns a copy of the recorded calls.
func (m *MockGenerator) Calls() []GenerateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]GenerateCall(nil), m.calls...)
}

// LastCall returns the most recent call, if any.
func (m *MockGenerator) LastCall() (GenerateCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return GenerateCall{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// Reset clears recorded calls and scripted behavior.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.response = "mock response"
	m.err = nil
	m.GenerateFunc = nil
}
