package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-storycraft-be/internal/apperror"
	"ai-storycraft-be/internal/dto"
	"ai-storycraft-be/internal/entity"
	"ai-storycraft-be/internal/pkg/logger"
	"ai-storycraft-be/internal/repository/contract"
	"ai-storycraft-be/internal/scope"

	"github.com/google/uuid"
)

type IFragmentService interface {
	Save(ctx context.Context, storyId string, sc *scope.Scope, req *dto.SaveFragmentRequest) (*entity.Fragment, error)
	Show(ctx context.Context, storyId string, sc *scope.Scope, fragmentId string) (*entity.Fragment, error)
	List(ctx context.Context, storyId string, sc *scope.Scope) ([]*entity.Fragment, error)
	Archive(ctx context.Context, storyId string, sc *scope.Scope, fragmentId string) error
	// Delete permanently removes an archived fragment. Un-archived fragments
	// are protected with InvalidOperation.
	Delete(ctx context.Context, storyId string, sc *scope.Scope, fragmentId string) error
}

type fragmentService struct {
	fragmentRepo     contract.FragmentRepository
	branchRepo       contract.BranchRepository
	publisherService IPublisherService
	logger           logger.ILogger
}

func NewFragmentService(
	fragmentRepo contract.FragmentRepository,
	branchRepo contract.BranchRepository,
	publisherService IPublisherService,
	log logger.ILogger,
) IFragmentService {
	return &fragmentService{
		fragmentRepo:     fragmentRepo,
		branchRepo:       branchRepo,
		publisherService: publisherService,
		logger:           log,
	}
}

// Save creates the fragment on first save, or applies an edit. Every
// content-affecting edit pushes the previous state onto versions[] and
// increments version. A fragment.saved event is published afterwards; the
// event carries the branch the save landed on, captured now, so the
// librarian's debounced run survives a branch switch.
func (s *fragmentService) Save(ctx context.Context, storyId string, sc *scope.Scope, req *dto.SaveFragmentRequest) (*entity.Fragment, error) {
	now := time.Now()

	var fragment *entity.Fragment
	if req.Id != "" {
		existing, err := s.fragmentRepo.FindOne(ctx, storyId, sc, req.Id)
		if err != nil && !apperror.IsNotFound(err) {
			return nil, err
		}
		fragment = existing
	}

	if fragment == nil {
		id := req.Id
		if id == "" {
			id = uuid.NewString()
		}
		fragment = &entity.Fragment{
			Id:        id,
			Type:      req.Type,
			CreatedAt: now,
			Version:   1,
		}
	} else if fragment.ContentChanged(req.Name, req.Description, req.Content) {
		fragment.Versions = append(fragment.Versions, fragment.Snapshot(req.Reason))
		fragment.Version++
	}

	fragment.Name = req.Name
	fragment.Description = req.Description
	fragment.Content = req.Content
	fragment.Tags = req.Tags
	fragment.Refs = req.Refs
	fragment.UpdatedAt = now

	if err := s.fragmentRepo.Save(ctx, storyId, sc, fragment); err != nil {
		return nil, err
	}

	s.publishSaved(ctx, storyId, sc, fragment.Id)
	return fragment, nil
}

func (s *fragmentService) publishSaved(ctx context.Context, storyId string, sc *scope.Scope, fragmentId string) {
	branchId := sc.For(storyId)
	if branchId == "" {
		index, err := s.branchRepo.LoadIndex(ctx, storyId)
		if err != nil {
			s.logger.Warn("fragment", "Could not resolve branch for fragment.saved event", map[string]interface{}{
				"story_id": storyId, "fragment_id": fragmentId, "error": err.Error(),
			})
			return
		}
		branchId = index.ActiveBranchId
	}

	payload, err := json.Marshal(dto.PublishFragmentSavedMessage{
		StoryId:    storyId,
		BranchId:   branchId,
		FragmentId: fragmentId,
	})
	if err != nil {
		return
	}
	// The event is auxiliary; a publish failure must not fail the save.
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.logger.Warn("fragment", "Failed to publish fragment.saved event", map[string]interface{}{
			"story_id": storyId, "fragment_id": fragmentId, "error": err.Error(),
		})
	}
}

func (s *fragmentService) Show(ctx context.Context, storyId string, sc *scope.Scope, fragmentId string) (*entity.Fragment, error) {
	return s.fragmentRepo.FindOne(ctx, storyId, sc, fragmentId)
}

func (s *fragmentService) List(ctx context.Context, storyId string, sc *scope.Scope) ([]*entity.Fragment, error) {
	return s.fragmentRepo.FindAll(ctx, storyId, sc)
}

func (s *fragmentService) Archive(ctx context.Context, storyId string, sc *scope.Scope, fragmentId string) error {
	fragment, err := s.fragmentRepo.FindOne(ctx, storyId, sc, fragmentId)
	if err != nil {
		return err
	}
	if fragment.Archived {
		return nil
	}
	fragment.Archived = true
	fragment.UpdatedAt = time.Now()
	return s.fragmentRepo.Save(ctx, storyId, sc, fragment)
}

func (s *fragmentService) Delete(ctx context.Context, storyId string, sc *scope.Scope, fragmentId string) error {
	fragment, err := s.fragmentRepo.FindOne(ctx, storyId, sc, fragmentId)
	if err != nil {
		return err
	}
	if !fragment.Archived {
		return apperror.InvalidOperation("fragment %s must be archived before permanent deletion", fragmentId)
	}
	return s.fragmentRepo.Delete(ctx, storyId, sc, fragmentId)
}
