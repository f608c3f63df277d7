// Package analyzer is the librarian's LLM collaborator: it turns a prose
// fragment plus its story context into structured continuity findings, and
// compacts rolling summaries. Callers treat it as unreliable — every use has
// a deterministic fallback.
package analyzer

import (
	"context"

	"ai-storycraft-be/internal/entity"
)

// PromptContext is the material the analyzer sees for one fragment.
type PromptContext struct {
	StoryTitle      string
	CurrentSummary  string
	FragmentName    string
	FragmentContent string
	RecentSections  []string // active prose of the sections just before this one
	KnownCharacters []string
}

// Findings is the structured result of analyzing one fragment.
type Findings struct {
	SummaryUpdate       string                      `json:"summaryUpdate"`
	StructuredSummary   entity.StructuredSummary    `json:"structuredSummary"`
	MentionedCharacters []string                    `json:"mentionedCharacters,omitempty"`
	Contradictions      []entity.Contradiction      `json:"contradictions,omitempty"`
	FragmentSuggestions []entity.FragmentSuggestion `json:"fragmentSuggestions,omitempty"`
	TimelineEvents      []entity.TimelineEvent      `json:"timelineEvents,omitempty"`
}

// Analyzer produces continuity findings and bounded summary text. Both
// operations may fail or be unavailable; callers fall back deterministically.
type Analyzer interface {
	Analyze(ctx context.Context, pc PromptContext) (*Findings, error)
	Compact(ctx context.Context, text string, targetChars int) (string, error)
}
