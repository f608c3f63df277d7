package entity

import "time"

// DefaultSummarizationThreshold is how many trailing prose sections are kept
// out of the rolling summary (still "in play" for the author).
const DefaultSummarizationThreshold = 4

// Story is the per-branch story.json. Summary and the threshold live inside
// the branch root so branch isolation extends to the rolling summary.
type Story struct {
	Id                     string    `json:"id"`
	Title                  string    `json:"title"`
	Summary                string    `json:"summary,omitempty"`
	SummarizationThreshold int       `json:"summarizationThreshold,omitempty"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

func (s *Story) Threshold() int {
	if s.SummarizationThreshold <= 0 {
		return DefaultSummarizationThreshold
	}
	return s.SummarizationThreshold
}
