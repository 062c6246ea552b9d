package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"consilium/internal/adapters/ai"
	"consilium/internal/domain/analysis"
	"consilium/internal/domain/memory"
)

// complete issues one reasoning call with the given system prompt.
func complete(ctx context.Context, provider ai.Provider, model, system string, extra ...ai.Message) (*ai.CompletionResponse, error) {
	messages := append([]ai.Message{
		{Role: ai.RoleSystem, Content: system},
		{Role: ai.RoleUser, Content: "Begin."},
	}, extra...)

	return provider.Complete(ctx, ai.CompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: 0.7,
	})
}

// renderReports joins filled report slots in a stable order for prompts.
func renderReports(reports map[analysis.AnalystKind]string) string {
	kinds := make([]string, 0, len(reports))
	for k := range reports {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	var b strings.Builder
	for _, k := range kinds {
		fmt.Fprintf(&b, "## %s report\n%s\n\n", k, reports[analysis.AnalystKind(k)])
	}
	return b.String()
}

// situationFingerprint summarizes the run for memory retrieval. Reports
// are truncated; the fingerprint only needs to be stable and distinctive.
func situationFingerprint(view analysis.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", view.Ticker, view.Date.Format("2006-01-02"))

	kinds := make([]string, 0, len(view.Reports))
	for k := range view.Reports {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		text := view.Reports[analysis.AnalystKind(k)]
		if len(text) > 400 {
			text = text[:400]
		}
		fmt.Fprintf(&b, "%s: %s\n", k, text)
	}
	return b.String()
}

// recallLessons fetches up to k lessons for the situation. A nil memory
// service or retrieval error yields no lessons; recall never blocks the
// workflow.
func recallLessons(ctx context.Context, mem *memory.Service, situation string, k int) string {
	if mem == nil || k <= 0 {
		return ""
	}
	records, err := mem.Retrieve(ctx, situation, k)
	if err != nil || len(records) == 0 {
		return ""
	}

	var b strings.Builder
	for _, rec := range records {
		fmt.Fprintf(&b, "- %s\n", rec.Lesson)
	}
	return b.String()
}
