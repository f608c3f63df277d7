package implementation

import (
	"context"
	"os"
	"path/filepath"

	"ai-storycraft-be/internal/apperror"
	"ai-storycraft-be/internal/entity"
	"ai-storycraft-be/internal/repository/contract"
	"ai-storycraft-be/internal/scope"
	"ai-storycraft-be/pkg/storage"
)

type StoryRepositoryImpl struct {
	root *ContentRoot
}

func NewStoryRepository(root *ContentRoot) contract.StoryRepository {
	return &StoryRepositoryImpl{root: root}
}

func (r *StoryRepositoryImpl) Load(ctx context.Context, storyID string, sc *scope.Scope) (*entity.Story, error) {
	dir, err := r.root.Resolve(ctx, storyID, sc)
	if err != nil {
		return nil, err
	}
	var story entity.Story
	if err := storage.ReadJSON(filepath.Join(dir, storyFile), &story); err != nil {
		if os.IsNotExist(err) {
			return nil, apperror.NotFound("story %s", storyID)
		}
		return nil, err
	}
	return &story, nil
}

func (r *StoryRepositoryImpl) Save(ctx context.Context, storyID string, sc *scope.Scope, story *entity.Story) error {
	dir, err := r.root.Resolve(ctx, storyID, sc)
	if err != nil {
		return err
	}
	return storage.WriteJSON(filepath.Join(dir, storyFile), story)
}
