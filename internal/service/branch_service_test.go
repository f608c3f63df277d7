package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"ai-storycraft-be/internal/apperror"
	"ai-storycraft-be/internal/entity"
	"ai-storycraft-be/internal/pkg/logger"
	"ai-storycraft-be/internal/scope"
	"ai-storycraft-be/pkg/storage"

	"github.com/stretchr/testify/assert"
)

func newBranchService(f *fixture) IBranchService {
	return NewBranchService(f.branchRepo, f.chainRepo, logger.NopLogger{})
}

func TestCreateBranchCopiesContent(t *testing.T) {
	f := newFixture(t)
	svc := newBranchService(f)
	ctx := context.Background()
	f.seedChain(t, "s1", 3)

	branch, err := svc.Create(ctx, "s1", "What if", entity.MainBranchId, nil)
	assert.NoError(t, err)
	assert.Equal(t, entity.MainBranchId, branch.ParentBranchId)

	index, err := svc.List(ctx, "s1")
	assert.NoError(t, err)
	assert.Equal(t, branch.Id, index.ActiveBranchId, "new branch becomes active")
	assert.Len(t, index.Branches, 2)

	branchDir := filepath.Join(f.baseDir, "stories", "s1", "branches", branch.Id)
	assert.True(t, storage.Exists(filepath.Join(branchDir, "fragments", "pr-1.json")))
	assert.True(t, storage.Exists(filepath.Join(branchDir, "prose_chain.json")))
}

func TestCreateBranchIsolatesCopies(t *testing.T) {
	f := newFixture(t)
	svc := newBranchService(f)
	ctx := context.Background()
	f.seedChain(t, "s1", 2)

	branch, err := svc.Create(ctx, "s1", "Alt", entity.MainBranchId, nil)
	assert.NoError(t, err)

	// Edit the fragment on main after the fork; the copy must not follow.
	mainScope := scope.Pin("s1", entity.MainBranchId)
	frag, err := f.fragmentRepo.FindOne(ctx, "s1", mainScope, "pr-1")
	assert.NoError(t, err)
	frag.Content = "rewritten on main"
	assert.NoError(t, f.fragmentRepo.Save(ctx, "s1", mainScope, frag))

	var copied entity.Fragment
	path := filepath.Join(f.baseDir, "stories", "s1", "branches", branch.Id, "fragments", "pr-1.json")
	assert.NoError(t, storage.ReadJSON(path, &copied))
	assert.Equal(t, "content of pr-1", copied.Content)
}

func TestCreateBranchForkTruncatesChildChain(t *testing.T) {
	f := newFixture(t)
	svc := newBranchService(f)
	ctx := context.Background()
	f.seedChain(t, "s1", 5)

	forkAfter := 2
	branch, err := svc.Create(ctx, "s1", "Mid-story fork", entity.MainBranchId, &forkAfter)
	assert.NoError(t, err)

	var childChain entity.ProseChain
	childPath := filepath.Join(f.baseDir, "stories", "s1", "branches", branch.Id, "prose_chain.json")
	assert.NoError(t, storage.ReadJSON(childPath, &childChain))
	assert.Len(t, childChain.Entries, 3, "child keeps sections [0, forkAfterIndex]")

	var parentChain entity.ProseChain
	parentPath := filepath.Join(f.baseDir, "stories", "s1", "branches", "main", "prose_chain.json")
	assert.NoError(t, storage.ReadJSON(parentPath, &parentChain))
	assert.Len(t, parentChain.Entries, 5, "parent chain untouched")
}

func TestCreateBranchUnknownParent(t *testing.T) {
	f := newFixture(t)
	svc := newBranchService(f)

	_, err := svc.Create(context.Background(), "s1", "Orphan", "br-ghost", nil)
	assert.True(t, apperror.IsNotFound(err))
}

func TestDeleteMainBranchRejected(t *testing.T) {
	f := newFixture(t)
	svc := newBranchService(f)

	err := svc.Delete(context.Background(), "s1", entity.MainBranchId)
	assert.True(t, errors.Is(err, apperror.ErrInvalidOperation))
}

func TestDeleteActiveBranchFallsBackToMain(t *testing.T) {
	f := newFixture(t)
	svc := newBranchService(f)
	ctx := context.Background()
	f.seedChain(t, "s1", 1)

	branch, err := svc.Create(ctx, "s1", "Alt", entity.MainBranchId, nil)
	assert.NoError(t, err)

	assert.NoError(t, svc.Delete(ctx, "s1", branch.Id))

	index, err := svc.List(ctx, "s1")
	assert.NoError(t, err)
	assert.Equal(t, entity.MainBranchId, index.ActiveBranchId)
	assert.False(t, index.Contains(branch.Id))
	assert.False(t, storage.Exists(filepath.Join(f.baseDir, "stories", "s1", "branches", branch.Id)))
}

func TestSwitchActiveUnknownBranch(t *testing.T) {
	f := newFixture(t)
	svc := newBranchService(f)

	err := svc.SwitchActive(context.Background(), "s1", "br-ghost")
	assert.True(t, apperror.IsNotFound(err))
}

func TestRenameBranch(t *testing.T) {
	f := newFixture(t)
	svc := newBranchService(f)
	ctx := context.Background()

	assert.NoError(t, svc.Rename(ctx, "s1", entity.MainBranchId, "Trunk"))
	index, err := svc.List(ctx, "s1")
	assert.NoError(t, err)
	assert.Equal(t, "Trunk", index.Find(entity.MainBranchId).Name)
}

func TestPinSurvivesActiveSwitch(t *testing.T) {
	f := newFixture(t)
	svc := newBranchService(f)
	ctx := context.Background()
	f.seedChain(t, "s1", 1)

	branch, err := svc.Create(ctx, "s1", "Alt", entity.MainBranchId, nil)
	assert.NoError(t, err)
	assert.NoError(t, svc.SwitchActive(ctx, "s1", entity.MainBranchId))

	pinned, err := svc.Pin(ctx, "s1")
	assert.NoError(t, err)
	assert.Equal(t, entity.MainBranchId, pinned.BranchID)

	// The active branch moves mid-operation; the pin must not follow.
	assert.NoError(t, svc.SwitchActive(ctx, "s1", branch.Id))

	frag := &entity.Fragment{Id: "n-1", Type: entity.FragmentTypeNote, Name: "Pinned note"}
	assert.NoError(t, f.fragmentRepo.Save(ctx, "s1", pinned, frag))

	assert.True(t, storage.Exists(filepath.Join(f.baseDir, "stories", "s1", "branches", "main", "fragments", "n-1.json")))
	assert.False(t, storage.Exists(filepath.Join(f.baseDir, "stories", "s1", "branches", branch.Id, "fragments", "n-1.json")))
}
