package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockAgent provides simulated completions for tests and offline runs.
// Responses are matched by a case-insensitive substring of the user prompt;
// Default answers everything else.
type MockAgent struct {
	Responses map[string]string
	Default   string
	Err       error

	mu    sync.Mutex
	calls []CompletionRequest
}

// NewMockAgent creates a mock agent that answers every prompt with reply.
func NewMockAgent(reply string) *MockAgent {
	return &MockAgent{Default: reply}
}

// NewOfflineAgent answers like a model that finds nothing, so extraction
// falls through to its keyword heuristics.
func NewOfflineAgent() *MockAgent {
	return NewMockAgent("I could not find any codelist parameters in this query.")
}

// Complete records the request and returns the scripted response.
func (m *MockAgent) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Err != nil {
		return "", m.Err
	}

	prompt := strings.ToLower(req.UserPrompt)
	for key, reply := range m.Responses {
		if strings.Contains(prompt, strings.ToLower(key)) {
			return reply, nil
		}
	}
	return m.Default, nil
}

// Calls returns the requests received so far.
func (m *MockAgent) Calls() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CompletionRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many completions were requested.
func (m *MockAgent) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *MockAgent) String() string {
	return fmt.Sprintf("MockAgent(%d calls)", m.CallCount())
}
