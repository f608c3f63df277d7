package implementation

import (
	"context"
	"fmt"
	"os"

	"ai-storycraft-be/internal/entity"
	"ai-storycraft-be/internal/repository/contract"
	"ai-storycraft-be/pkg/storage"
)

type BranchRepositoryImpl struct {
	root *ContentRoot
}

func NewBranchRepository(root *ContentRoot) contract.BranchRepository {
	return &BranchRepositoryImpl{root: root}
}

func (r *BranchRepositoryImpl) LoadIndex(ctx context.Context, storyID string) (*entity.BranchesIndex, error) {
	if err := r.root.Migrate(ctx, storyID); err != nil {
		return nil, err
	}
	return r.root.LoadBranchesIndex(storyID)
}

func (r *BranchRepositoryImpl) SaveIndex(ctx context.Context, storyID string, index *entity.BranchesIndex) error {
	return r.root.SaveBranchesIndex(storyID, index)
}

func (r *BranchRepositoryImpl) CopyBranchDir(ctx context.Context, storyID, fromBranch, toBranch string) error {
	src := r.root.BranchDir(storyID, fromBranch)
	dst := r.root.BranchDir(storyID, toBranch)
	if !storage.Exists(src) {
		return fmt.Errorf("copy branch %s of story %s: source directory missing", fromBranch, storyID)
	}
	if err := storage.CopyDir(src, dst); err != nil {
		// Leave no partial branch behind.
		os.RemoveAll(dst)
		return fmt.Errorf("copy branch %s -> %s of story %s: %w", fromBranch, toBranch, storyID, err)
	}
	return nil
}

func (r *BranchRepositoryImpl) RemoveBranchDir(ctx context.Context, storyID, branchID string) error {
	return os.RemoveAll(r.root.BranchDir(storyID, branchID))
}
