package service

import (
	"context"
	"time"

	"ai-storycraft-be/internal/apperror"
	"ai-storycraft-be/internal/entity"
	"ai-storycraft-be/internal/pkg/logger"
	"ai-storycraft-be/internal/repository/contract"
	"ai-storycraft-be/internal/scope"

	"github.com/google/uuid"
)

type IBranchService interface {
	List(ctx context.Context, storyId string) (*entity.BranchesIndex, error)
	Create(ctx context.Context, storyId, name, parentBranchId string, forkAfterIndex *int) (*entity.Branch, error)
	SwitchActive(ctx context.Context, storyId, branchId string) error
	Delete(ctx context.Context, storyId, branchId string) error
	Rename(ctx context.Context, storyId, branchId, name string) error

	// Pin snapshots the story's currently-active branch as a scope. Every
	// multi-step operation calls this before its first slow step and passes
	// the result through all content-root resolutions it makes.
	Pin(ctx context.Context, storyId string) (*scope.Scope, error)
}

type branchService struct {
	branchRepo contract.BranchRepository
	chainRepo  contract.ProseChainRepository
	logger     logger.ILogger
}

func NewBranchService(
	branchRepo contract.BranchRepository,
	chainRepo contract.ProseChainRepository,
	log logger.ILogger,
) IBranchService {
	return &branchService{
		branchRepo: branchRepo,
		chainRepo:  chainRepo,
		logger:     log,
	}
}

func (s *branchService) List(ctx context.Context, storyId string) (*entity.BranchesIndex, error) {
	return s.branchRepo.LoadIndex(ctx, storyId)
}

// Create forks parentBranchId into a new branch by recursively copying its
// whole content root. With forkAfterIndex set, the new branch's prose chain
// is truncated to sections [0, forkAfterIndex]; the parent keeps its full
// chain. The new branch becomes active.
func (s *branchService) Create(ctx context.Context, storyId, name, parentBranchId string, forkAfterIndex *int) (*entity.Branch, error) {
	index, err := s.branchRepo.LoadIndex(ctx, storyId)
	if err != nil {
		return nil, err
	}
	if !index.Contains(parentBranchId) {
		return nil, apperror.NotFound("parent branch %s in story %s", parentBranchId, storyId)
	}

	branch := entity.Branch{
		Id:             uuid.NewString(),
		Name:           name,
		Order:          len(index.Branches),
		ParentBranchId: parentBranchId,
		ForkAfterIndex: forkAfterIndex,
		CreatedAt:      time.Now(),
	}

	if err := s.branchRepo.CopyBranchDir(ctx, storyId, parentBranchId, branch.Id); err != nil {
		return nil, err
	}

	if forkAfterIndex != nil {
		pinned := scope.Pin(storyId, branch.Id)
		chain, err := s.chainRepo.Load(ctx, storyId, pinned)
		switch {
		case apperror.IsNotFound(err):
			// Parent had no prose chain yet; nothing to truncate.
		case err != nil:
			s.branchRepo.RemoveBranchDir(ctx, storyId, branch.Id)
			return nil, err
		default:
			chain.Truncate(*forkAfterIndex)
			if err := s.chainRepo.Save(ctx, storyId, pinned, chain); err != nil {
				s.branchRepo.RemoveBranchDir(ctx, storyId, branch.Id)
				return nil, err
			}
		}
	}

	index.Branches = append(index.Branches, branch)
	index.ActiveBranchId = branch.Id
	if err := s.branchRepo.SaveIndex(ctx, storyId, index); err != nil {
		s.branchRepo.RemoveBranchDir(ctx, storyId, branch.Id)
		return nil, err
	}

	s.logger.Info("branch", "Branch created", map[string]interface{}{
		"story_id": storyId, "branch_id": branch.Id, "parent": parentBranchId,
	})
	return &branch, nil
}

func (s *branchService) SwitchActive(ctx context.Context, storyId, branchId string) error {
	index, err := s.branchRepo.LoadIndex(ctx, storyId)
	if err != nil {
		return err
	}
	if !index.Contains(branchId) {
		return apperror.NotFound("branch %s in story %s", branchId, storyId)
	}
	index.ActiveBranchId = branchId
	return s.branchRepo.SaveIndex(ctx, storyId, index)
}

func (s *branchService) Delete(ctx context.Context, storyId, branchId string) error {
	if branchId == entity.MainBranchId {
		return apperror.InvalidOperation("the main branch cannot be deleted")
	}
	index, err := s.branchRepo.LoadIndex(ctx, storyId)
	if err != nil {
		return err
	}
	if !index.Contains(branchId) {
		return apperror.NotFound("branch %s in story %s", branchId, storyId)
	}

	if err := s.branchRepo.RemoveBranchDir(ctx, storyId, branchId); err != nil {
		return err
	}
	index.Remove(branchId)
	if index.ActiveBranchId == branchId {
		index.ActiveBranchId = entity.MainBranchId
	}
	return s.branchRepo.SaveIndex(ctx, storyId, index)
}

func (s *branchService) Rename(ctx context.Context, storyId, branchId, name string) error {
	index, err := s.branchRepo.LoadIndex(ctx, storyId)
	if err != nil {
		return err
	}
	branch := index.Find(branchId)
	if branch == nil {
		return apperror.NotFound("branch %s in story %s", branchId, storyId)
	}
	branch.Name = name
	return s.branchRepo.SaveIndex(ctx, storyId, index)
}

func (s *branchService) Pin(ctx context.Context, storyId string) (*scope.Scope, error) {
	index, err := s.branchRepo.LoadIndex(ctx, storyId)
	if err != nil {
		return nil, err
	}
	return scope.Pin(storyId, index.ActiveBranchId), nil
}
