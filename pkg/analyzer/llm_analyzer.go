package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ai-storycraft-be/pkg/llm"
)

const analyzeSystemPrompt = `You are a story librarian. Given a prose section and its story context, respond with a single JSON object:
{"summaryUpdate": "1-3 sentences of what happened", "structuredSummary": {"events": [], "stateChanges": [], "openThreads": []}, "mentionedCharacters": [], "contradictions": [{"description": "", "conflictsWith": ""}], "fragmentSuggestions": [{"type": "", "name": "", "reason": ""}], "timelineEvents": [{"event": "", "fragmentId": ""}]}
Respond with JSON only, no commentary.`

// LLMAnalyzer implements Analyzer on top of any llm.LLMProvider.
type LLMAnalyzer struct {
	provider llm.LLMProvider
}

var _ Analyzer = &LLMAnalyzer{}

func NewLLMAnalyzer(provider llm.LLMProvider) *LLMAnalyzer {
	return &LLMAnalyzer{provider: provider}
}

func (a *LLMAnalyzer) Analyze(ctx context.Context, pc PromptContext) (*Findings, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Story: %s\n", pc.StoryTitle)
	if pc.CurrentSummary != "" {
		fmt.Fprintf(&b, "Story so far: %s\n", pc.CurrentSummary)
	}
	if len(pc.KnownCharacters) > 0 {
		fmt.Fprintf(&b, "Known characters: %s\n", strings.Join(pc.KnownCharacters, ", "))
	}
	for _, section := range pc.RecentSections {
		fmt.Fprintf(&b, "Previous section: %s\n", section)
	}
	fmt.Fprintf(&b, "\nSection to analyze (%s):\n%s\n", pc.FragmentName, pc.FragmentContent)

	raw, err := a.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: analyzeSystemPrompt},
		{Role: "user", Content: b.String()},
	}, llm.WithTemperature(0.2))
	if err != nil {
		return nil, fmt.Errorf("analyze fragment: %w", err)
	}

	var findings Findings
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &findings); err != nil {
		return nil, fmt.Errorf("analyze fragment: unparseable model output: %w", err)
	}
	return &findings, nil
}

// Compact asks the model to condense text to at most targetChars characters.
// The caller verifies the bound; output over target counts as a failure on
// its side and triggers the deterministic truncation there.
func (a *LLMAnalyzer) Compact(ctx context.Context, text string, targetChars int) (string, error) {
	prompt := fmt.Sprintf(
		"Condense the following story summary to at most %d characters. Preserve the most recent events in detail; older events may be collapsed. Respond with the condensed summary only.\n\n%s",
		targetChars, text)

	out, err := a.provider.Generate(ctx, prompt, llm.WithTemperature(0.2))
	if err != nil {
		return "", fmt.Errorf("compact summary: %w", err)
	}
	return strings.TrimSpace(stripCodeFence(out)), nil
}

// stripCodeFence removes a surrounding markdown code fence if the model
// added one despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
