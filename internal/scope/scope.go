// Package scope carries the branch pin for multi-step operations.
//
// Any operation that must stay on one branch for its whole duration acquires
// a Scope before its first slow step and passes it explicitly to every
// content-root resolution it makes. A concurrent active-branch switch cannot
// affect an operation that holds a pin; nested operations receive the outer
// pin instead of re-resolving.
package scope

// Scope pins content-root resolution for one story to a fixed branch.
// A nil *Scope means "follow the story's active branch".
type Scope struct {
	StoryID  string
	BranchID string
}

func Pin(storyID, branchID string) *Scope {
	return &Scope{StoryID: storyID, BranchID: branchID}
}

// For returns the pinned branch for the story, or "" if this scope does not
// apply (nil scope or a different story).
func (s *Scope) For(storyID string) string {
	if s == nil || s.StoryID != storyID {
		return ""
	}
	return s.BranchID
}
