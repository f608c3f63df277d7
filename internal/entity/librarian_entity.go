package entity

// LibrarianAnalysis is one immutable continuity-analysis record for a prose
// fragment. Re-analysis writes a new record; records are never edited.
//
// CreatedAt is kept as the persisted ISO-8601 string so the index tie-break
// ((createdAt, id) lexicographic) compares exactly what is on disk.
type LibrarianAnalysis struct {
	Id                  string               `json:"id"`
	CreatedAt           string               `json:"createdAt"`
	FragmentId          string               `json:"fragmentId"`
	SummaryUpdate       string               `json:"summaryUpdate"`
	StructuredSummary   StructuredSummary    `json:"structuredSummary"`
	MentionedCharacters []string             `json:"mentionedCharacters,omitempty"`
	Contradictions      []Contradiction      `json:"contradictions,omitempty"`
	FragmentSuggestions []FragmentSuggestion `json:"fragmentSuggestions,omitempty"`
	TimelineEvents      []TimelineEvent      `json:"timelineEvents,omitempty"`
	Trace               string               `json:"trace,omitempty"`
}

type StructuredSummary struct {
	Events       []string `json:"events,omitempty"`
	StateChanges []string `json:"stateChanges,omitempty"`
	OpenThreads  []string `json:"openThreads,omitempty"`
}

type Contradiction struct {
	Description   string `json:"description"`
	ConflictsWith string `json:"conflictsWith,omitempty"` // fragment ID
}

type FragmentSuggestion struct {
	Type   string `json:"type"` // e.g. "character", "world"
	Name   string `json:"name"`
	Reason string `json:"reason,omitempty"`
}

type TimelineEvent struct {
	Event      string `json:"event"`
	FragmentId string `json:"fragmentId"`
}

// NewerThan reports whether this analysis wins over other for the same
// fragment: createdAt compares first, id breaks exact-timestamp ties.
// ISO-8601 string compare is monotonic with real time.
func (a *LibrarianAnalysis) NewerThan(other *LibrarianAnalysis) bool {
	if a.CreatedAt != other.CreatedAt {
		return a.CreatedAt > other.CreatedAt
	}
	return a.Id > other.Id
}

// AnalysisIndex is the derived librarian/index.json: fragment ID -> latest
// analysis record ID. Rebuildable at any time from the record set.
type AnalysisIndex struct {
	Latest    map[string]string `json:"latest"`
	UpdatedAt string            `json:"updatedAt"`
}

func NewAnalysisIndex() *AnalysisIndex {
	return &AnalysisIndex{Latest: map[string]string{}}
}

// LibrarianState is the per-branch continuity state. SummarizedUpTo is the
// deferred-summarization watermark: the most recent chain position (by chain
// order, not by time) already folded into the rolling summary. Empty means
// nothing folded yet.
type LibrarianState struct {
	LastAnalyzedFragmentId string              `json:"lastAnalyzedFragmentId,omitempty"`
	SummarizedUpTo         string              `json:"summarizedUpTo,omitempty"`
	RecentMentions         map[string][]string `json:"recentMentions,omitempty"`
	Timeline               []TimelineEvent     `json:"timeline,omitempty"`
}
