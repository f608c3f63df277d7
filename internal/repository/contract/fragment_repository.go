package contract

import (
	"context"

	"ai-storycraft-be/internal/entity"
	"ai-storycraft-be/internal/scope"
)

type FragmentRepository interface {
	Save(ctx context.Context, storyID string, sc *scope.Scope, fragment *entity.Fragment) error
	FindOne(ctx context.Context, storyID string, sc *scope.Scope, fragmentID string) (*entity.Fragment, error)
	FindAll(ctx context.Context, storyID string, sc *scope.Scope) ([]*entity.Fragment, error)
	// Delete permanently removes the fragment file. Callers must archive
	// first; the service layer enforces that.
	Delete(ctx context.Context, storyID string, sc *scope.Scope, fragmentID string) error
}
