package agents

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"consilium/internal/adapters/ai"
)

// scriptedProvider replays canned responses in order, repeating the
// last one once the script runs out.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []string
	calls     int
}

func (p *scriptedProvider) Name() ai.ProviderName { return ai.ProviderNameStub }

func (p *scriptedProvider) Complete(_ context.Context, _ ai.CompletionRequest) (*ai.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := p.calls
	p.calls++
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	return &ai.CompletionResponse{
		Content: p.responses[idx],
		Usage:   ai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func mustPrompts(t *testing.T) *PromptRegistry {
	t.Helper()
	prompts, err := NewPromptRegistry()
	require.NoError(t, err)
	return prompts
}
