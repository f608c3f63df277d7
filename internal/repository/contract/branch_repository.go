package contract

import (
	"context"

	"ai-storycraft-be/internal/entity"
)

// BranchRepository persists the per-story branches.json and the branch
// directories themselves. Branch creation is a full recursive copy of the
// parent's content root: fragments carry mutable version histories, so true
// isolation matters more than disk space.
type BranchRepository interface {
	LoadIndex(ctx context.Context, storyID string) (*entity.BranchesIndex, error)
	SaveIndex(ctx context.Context, storyID string, index *entity.BranchesIndex) error

	// CopyBranchDir recursively copies the whole content root of fromBranch
	// into a new directory for toBranch.
	CopyBranchDir(ctx context.Context, storyID, fromBranch, toBranch string) error
	RemoveBranchDir(ctx context.Context, storyID, branchID string) error
}
