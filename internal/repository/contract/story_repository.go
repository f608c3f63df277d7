package contract

import (
	"context"

	"ai-storycraft-be/internal/entity"
	"ai-storycraft-be/internal/scope"
)

type StoryRepository interface {
	// Load returns apperror.ErrNotFound when the branch has no story.json.
	Load(ctx context.Context, storyID string, sc *scope.Scope) (*entity.Story, error)
	Save(ctx context.Context, storyID string, sc *scope.Scope, story *entity.Story) error
}
