package agents

import (
	"context"

	"consilium/internal/adapters/ai"
	"consilium/internal/domain/memory"
)

// LessonComposer derives reflection lessons through the reasoning
// service. It implements memory.Composer.
type LessonComposer struct {
	provider ai.Provider
	model    string
	prompts  *PromptRegistry
}

var _ memory.Composer = (*LessonComposer)(nil)

// NewLessonComposer creates a composer on the given provider.
func NewLessonComposer(provider ai.Provider, model string, prompts *PromptRegistry) *LessonComposer {
	return &LessonComposer{provider: provider, model: model, prompts: prompts}
}

// ComposeLesson asks the reasoning service what to learn from the
// outcome.
func (c *LessonComposer) ComposeLesson(ctx context.Context, situation, decision, outcome string) (string, error) {
	prompt, err := c.prompts.Render("reflection", map[string]interface{}{
		"Situation": situation,
		"Decision":  decision,
		"Outcome":   outcome,
	})
	if err != nil {
		return "", err
	}

	resp, err := c.provider.Complete(ctx, ai.CompletionRequest{
		Model: c.model,
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: prompt},
			{Role: ai.RoleUser, Content: "Begin."},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
