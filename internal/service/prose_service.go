package service

import (
	"context"

	"ai-storycraft-be/internal/apperror"
	"ai-storycraft-be/internal/entity"
	"ai-storycraft-be/internal/pkg/logger"
	"ai-storycraft-be/internal/repository/contract"
	"ai-storycraft-be/internal/scope"
)

// IProseService manages the ordered prose chain: story sections, their
// content variations, and the active variation per section.
type IProseService interface {
	Init(ctx context.Context, storyId string, sc *scope.Scope, fragmentId string) error
	AddSection(ctx context.Context, storyId string, sc *scope.Scope, fragmentId string) error
	InsertSection(ctx context.Context, storyId string, sc *scope.Scope, fragmentId string, position int) error
	AddVariation(ctx context.Context, storyId string, sc *scope.Scope, sectionIndex int, fragmentId string) error
	SwitchActive(ctx context.Context, storyId string, sc *scope.Scope, sectionIndex int, fragmentId string) error
	// RemoveSection removes the section and archives its variations.
	RemoveSection(ctx context.Context, storyId string, sc *scope.Scope, sectionIndex int) ([]string, error)
	FindSectionIndex(ctx context.Context, storyId string, sc *scope.Scope, fragmentId string) (int, error)
	ActiveIds(ctx context.Context, storyId string, sc *scope.Scope) ([]string, error)
}

type proseService struct {
	chainRepo       contract.ProseChainRepository
	fragmentService IFragmentService
	logger          logger.ILogger
}

func NewProseService(
	chainRepo contract.ProseChainRepository,
	fragmentService IFragmentService,
	log logger.ILogger,
) IProseService {
	return &proseService{
		chainRepo:       chainRepo,
		fragmentService: fragmentService,
		logger:          log,
	}
}

func (s *proseService) Init(ctx context.Context, storyId string, sc *scope.Scope, fragmentId string) error {
	return s.chainRepo.Save(ctx, storyId, sc, entity.NewProseChain(fragmentId))
}

// AddSection appends a new section. Unlike the other operations it lazily
// initializes a chain for stories that have none yet.
func (s *proseService) AddSection(ctx context.Context, storyId string, sc *scope.Scope, fragmentId string) error {
	chain, err := s.chainRepo.Load(ctx, storyId, sc)
	if apperror.IsNotFound(err) {
		return s.Init(ctx, storyId, sc, fragmentId)
	}
	if err != nil {
		return err
	}
	chain.AddSection(fragmentId)
	return s.chainRepo.Save(ctx, storyId, sc, chain)
}

func (s *proseService) InsertSection(ctx context.Context, storyId string, sc *scope.Scope, fragmentId string, position int) error {
	chain, err := s.chainRepo.Load(ctx, storyId, sc)
	if err != nil {
		return err
	}
	if err := chain.InsertSection(fragmentId, position); err != nil {
		return err
	}
	return s.chainRepo.Save(ctx, storyId, sc, chain)
}

func (s *proseService) AddVariation(ctx context.Context, storyId string, sc *scope.Scope, sectionIndex int, fragmentId string) error {
	chain, err := s.chainRepo.Load(ctx, storyId, sc)
	if err != nil {
		return err
	}
	if err := chain.AddVariation(sectionIndex, fragmentId); err != nil {
		return err
	}
	return s.chainRepo.Save(ctx, storyId, sc, chain)
}

func (s *proseService) SwitchActive(ctx context.Context, storyId string, sc *scope.Scope, sectionIndex int, fragmentId string) error {
	chain, err := s.chainRepo.Load(ctx, storyId, sc)
	if err != nil {
		return err
	}
	if err := chain.SwitchActive(sectionIndex, fragmentId); err != nil {
		return err
	}
	return s.chainRepo.Save(ctx, storyId, sc, chain)
}

func (s *proseService) RemoveSection(ctx context.Context, storyId string, sc *scope.Scope, sectionIndex int) ([]string, error) {
	chain, err := s.chainRepo.Load(ctx, storyId, sc)
	if err != nil {
		return nil, err
	}
	removed, err := chain.RemoveSection(sectionIndex)
	if err != nil {
		return nil, err
	}
	if err := s.chainRepo.Save(ctx, storyId, sc, chain); err != nil {
		return nil, err
	}

	// Removed variations are archived, not deleted; the author can still
	// recover them.
	for _, fragmentId := range removed {
		if err := s.fragmentService.Archive(ctx, storyId, sc, fragmentId); err != nil && !apperror.IsNotFound(err) {
			s.logger.Warn("prose", "Failed to archive removed variation", map[string]interface{}{
				"story_id": storyId, "fragment_id": fragmentId, "error": err.Error(),
			})
		}
	}
	return removed, nil
}

func (s *proseService) FindSectionIndex(ctx context.Context, storyId string, sc *scope.Scope, fragmentId string) (int, error) {
	chain, err := s.chainRepo.Load(ctx, storyId, sc)
	if err != nil {
		return -1, err
	}
	return chain.FindSectionIndex(fragmentId), nil
}

func (s *proseService) ActiveIds(ctx context.Context, storyId string, sc *scope.Scope) ([]string, error) {
	chain, err := s.chainRepo.Load(ctx, storyId, sc)
	if err != nil {
		return nil, err
	}
	return chain.ActiveIds(), nil
}
