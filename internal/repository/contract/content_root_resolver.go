package contract

import (
	"context"

	"ai-storycraft-be/internal/scope"
)

// ContentRootResolver computes the directory all content operations for a
// story work under. A pinned scope wins over the story's active branch;
// legacy layouts are migrated before first use.
type ContentRootResolver interface {
	Resolve(ctx context.Context, storyID string, sc *scope.Scope) (string, error)
	Migrate(ctx context.Context, storyID string) error
}
