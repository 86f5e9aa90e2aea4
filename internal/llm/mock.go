package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	// Model restricts the response to requests for this model.
	// Empty matches any model.
	Model string
	Text  string
	Usage Usage
	Err   error
}

// MockProvider is a deterministic Provider for testing.
// It returns canned responses in FIFO order per model and records all
// requests. Safe for concurrent use.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	echo      bool
	Calls     []Request
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// NewEchoProvider creates a MockProvider that answers every request by
// echoing the prompt back, counting words as tokens.
func NewEchoProvider() *MockProvider {
	return &MockProvider{echo: true}
}

// Generate returns the oldest canned response matching the request model.
// With nothing queued it echoes, or fails with ErrProviderUnavailable when
// echo is off.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	for i, resp := range m.responses {
		if resp.Model != "" && resp.Model != req.Model {
			continue
		}
		m.responses = append(m.responses[:i:i], m.responses[i+1:]...)

		if resp.Err != nil {
			return nil, resp.Err
		}
		return &Response{
			Text:       resp.Text,
			Usage:      resp.Usage,
			Model:      req.Model,
			StopReason: "end",
		}, nil
	}

	if !m.echo {
		return nil, &ErrProviderUnavailable{Err: fmt.Errorf("no canned response for model %q", req.Model)}
	}

	var prompt strings.Builder
	prompt.WriteString(req.System)
	for _, msg := range req.Messages {
		prompt.WriteString(" ")
		prompt.WriteString(msg.Content)
	}
	text := fmt.Sprintf("[%s] %s", req.Model, strings.TrimSpace(prompt.String()))
	in := len(strings.Fields(prompt.String()))
	out := len(strings.Fields(text))

	return &Response{
		Text:       text,
		Usage:      Usage{InputTokens: in, OutputTokens: out, TotalTokens: in + out},
		Model:      req.Model,
		StopReason: "end",
	}, nil
}

// Name returns "mock".
func (m *MockProvider) Name() string {
	return ProviderMock
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// CalledModels returns the model of every recorded call, in call order.
func (m *MockProvider) CalledModels() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	models := make([]string, len(m.Calls))
	for i, c := range m.Calls {
		models[i] = c.Model
	}
	return models
}
