package contract

import (
	"context"

	"ai-storycraft-be/internal/entity"
	"ai-storycraft-be/internal/scope"
)

// AnalysisRepository persists librarian analysis records, the derived
// fragment -> latest-analysis index, and the continuity state.
//
// Save applies the incremental index update with the same (createdAt, id)
// tie-break RebuildIndex uses, so a race between a rebuild and an incremental
// update converges on the same winner.
type AnalysisRepository interface {
	Save(ctx context.Context, storyID string, sc *scope.Scope, analysis *entity.LibrarianAnalysis) error
	FindAll(ctx context.Context, storyID string, sc *scope.Scope) ([]*entity.LibrarianAnalysis, error)
	FindOne(ctx context.Context, storyID string, sc *scope.Scope, analysisID string) (*entity.LibrarianAnalysis, error)

	// LoadIndex never fails the read path on a missing or corrupt index
	// file; it rebuilds from the record set and proceeds.
	LoadIndex(ctx context.Context, storyID string, sc *scope.Scope) (*entity.AnalysisIndex, error)
	RebuildIndex(ctx context.Context, storyID string, sc *scope.Scope) (*entity.AnalysisIndex, error)

	LoadState(ctx context.Context, storyID string, sc *scope.Scope) (*entity.LibrarianState, error)
	SaveState(ctx context.Context, storyID string, sc *scope.Scope, state *entity.LibrarianState) error
}
