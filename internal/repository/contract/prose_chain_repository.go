package contract

import (
	"context"

	"ai-storycraft-be/internal/entity"
	"ai-storycraft-be/internal/scope"
)

type ProseChainRepository interface {
	// Load returns apperror.ErrNotFound when no chain exists yet.
	Load(ctx context.Context, storyID string, sc *scope.Scope) (*entity.ProseChain, error)
	Save(ctx context.Context, storyID string, sc *scope.Scope, chain *entity.ProseChain) error
}
