package implementation

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ai-storycraft-be/internal/apperror"
	"ai-storycraft-be/internal/entity"
	"ai-storycraft-be/internal/repository/contract"
	"ai-storycraft-be/internal/scope"
	"ai-storycraft-be/pkg/storage"
)

type AnalysisRepositoryImpl struct {
	root *ContentRoot
}

func NewAnalysisRepository(root *ContentRoot) contract.AnalysisRepository {
	return &AnalysisRepositoryImpl{root: root}
}

func (r *AnalysisRepositoryImpl) librarianPath(ctx context.Context, storyID string, sc *scope.Scope, parts ...string) (string, error) {
	dir, err := r.root.Resolve(ctx, storyID, sc)
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{dir, librarianDir}, parts...)...), nil
}

// Save persists the analysis record and applies the incremental index
// update. The candidate replaces the stored winner only when its
// (createdAt, id) pair is strictly greater, matching RebuildIndex.
func (r *AnalysisRepositoryImpl) Save(ctx context.Context, storyID string, sc *scope.Scope, analysis *entity.LibrarianAnalysis) error {
	path, err := r.librarianPath(ctx, storyID, sc, analysesDir, analysis.Id+".json")
	if err != nil {
		return err
	}
	if err := storage.WriteJSON(path, analysis); err != nil {
		return err
	}

	index, err := r.LoadIndex(ctx, storyID, sc)
	if err != nil {
		return err
	}
	currentID, ok := index.Latest[analysis.FragmentId]
	if ok {
		current, err := r.FindOne(ctx, storyID, sc, currentID)
		if err != nil {
			// Stored winner unreadable: the index is stale, rebuild it.
			// Rebuild already includes the record we just wrote.
			_, err := r.RebuildIndex(ctx, storyID, sc)
			return err
		}
		if !analysis.NewerThan(current) {
			return nil
		}
	}
	index.Latest[analysis.FragmentId] = analysis.Id
	index.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	return r.saveIndex(ctx, storyID, sc, index)
}

func (r *AnalysisRepositoryImpl) FindOne(ctx context.Context, storyID string, sc *scope.Scope, analysisID string) (*entity.LibrarianAnalysis, error) {
	path, err := r.librarianPath(ctx, storyID, sc, analysesDir, analysisID+".json")
	if err != nil {
		return nil, err
	}
	var analysis entity.LibrarianAnalysis
	if err := storage.ReadJSON(path, &analysis); err != nil {
		if os.IsNotExist(err) {
			return nil, apperror.NotFound("analysis %s in story %s", analysisID, storyID)
		}
		return nil, err
	}
	return &analysis, nil
}

func (r *AnalysisRepositoryImpl) FindAll(ctx context.Context, storyID string, sc *scope.Scope) ([]*entity.LibrarianAnalysis, error) {
	dir, err := r.librarianPath(ctx, storyID, sc, analysesDir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list analyses for story %s: %w", storyID, err)
	}

	var analyses []*entity.LibrarianAnalysis
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		var analysis entity.LibrarianAnalysis
		if err := storage.ReadJSON(filepath.Join(dir, e.Name()), &analysis); err != nil {
			// One corrupt record must not take down the whole scan.
			log.Printf("[WARN] Skipping unreadable analysis record %s: %v", e.Name(), err)
			continue
		}
		analyses = append(analyses, &analysis)
	}
	return analyses, nil
}

// LoadIndex reads librarian/index.json. A missing or corrupt file never
// fails the read path: the index is derived state and is rebuilt from the
// record set instead.
func (r *AnalysisRepositoryImpl) LoadIndex(ctx context.Context, storyID string, sc *scope.Scope) (*entity.AnalysisIndex, error) {
	path, err := r.librarianPath(ctx, storyID, sc, analysisIndexFile)
	if err != nil {
		return nil, err
	}
	var index entity.AnalysisIndex
	if err := storage.ReadJSON(path, &index); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[WARN] Corrupt analysis index for story %s, rebuilding: %v", storyID, err)
		}
		return r.RebuildIndex(ctx, storyID, sc)
	}
	if index.Latest == nil {
		index.Latest = map[string]string{}
	}
	return &index, nil
}

// RebuildIndex scans every analysis record and keeps, per fragment, the one
// with the greatest (createdAt, id) pair. Pure function of the record set,
// so concurrent rebuilds are idempotent.
func (r *AnalysisRepositoryImpl) RebuildIndex(ctx context.Context, storyID string, sc *scope.Scope) (*entity.AnalysisIndex, error) {
	analyses, err := r.FindAll(ctx, storyID, sc)
	if err != nil {
		return nil, err
	}
	index := BuildAnalysisIndex(analyses)
	if err := r.saveIndex(ctx, storyID, sc, index); err != nil {
		return nil, err
	}
	return index, nil
}

func (r *AnalysisRepositoryImpl) saveIndex(ctx context.Context, storyID string, sc *scope.Scope, index *entity.AnalysisIndex) error {
	path, err := r.librarianPath(ctx, storyID, sc, analysisIndexFile)
	if err != nil {
		return err
	}
	return storage.WriteJSON(path, index)
}

func (r *AnalysisRepositoryImpl) LoadState(ctx context.Context, storyID string, sc *scope.Scope) (*entity.LibrarianState, error) {
	path, err := r.librarianPath(ctx, storyID, sc, librarianStateFile)
	if err != nil {
		return nil, err
	}
	var state entity.LibrarianState
	if err := storage.ReadJSON(path, &state); err != nil {
		if os.IsNotExist(err) {
			return &entity.LibrarianState{RecentMentions: map[string][]string{}}, nil
		}
		return nil, err
	}
	if state.RecentMentions == nil {
		state.RecentMentions = map[string][]string{}
	}
	return &state, nil
}

func (r *AnalysisRepositoryImpl) SaveState(ctx context.Context, storyID string, sc *scope.Scope, state *entity.LibrarianState) error {
	path, err := r.librarianPath(ctx, storyID, sc, librarianStateFile)
	if err != nil {
		return err
	}
	return storage.WriteJSON(path, state)
}

// BuildAnalysisIndex derives the fragment -> latest-analysis mapping. A
// candidate replaces the stored winner only when strictly newer by the
// (createdAt, id) lexicographic rule, so save-order races cannot change the
// outcome.
func BuildAnalysisIndex(analyses []*entity.LibrarianAnalysis) *entity.AnalysisIndex {
	index := entity.NewAnalysisIndex()
	byID := map[string]*entity.LibrarianAnalysis{}
	for _, a := range analyses {
		byID[a.Id] = a
		current, ok := byID[index.Latest[a.FragmentId]]
		if !ok || a.NewerThan(current) {
			index.Latest[a.FragmentId] = a.Id
		}
	}
	index.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	return index
}
