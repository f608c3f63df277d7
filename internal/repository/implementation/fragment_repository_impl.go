package implementation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ai-storycraft-be/internal/apperror"
	"ai-storycraft-be/internal/entity"
	"ai-storycraft-be/internal/repository/contract"
	"ai-storycraft-be/internal/scope"
	"ai-storycraft-be/pkg/storage"
)

type FragmentRepositoryImpl struct {
	root *ContentRoot
}

func NewFragmentRepository(root *ContentRoot) contract.FragmentRepository {
	return &FragmentRepositoryImpl{root: root}
}

func (r *FragmentRepositoryImpl) fragmentPath(ctx context.Context, storyID string, sc *scope.Scope, fragmentID string) (string, error) {
	dir, err := r.root.Resolve(ctx, storyID, sc)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fragmentsDir, fragmentID+".json"), nil
}

func (r *FragmentRepositoryImpl) Save(ctx context.Context, storyID string, sc *scope.Scope, fragment *entity.Fragment) error {
	path, err := r.fragmentPath(ctx, storyID, sc, fragment.Id)
	if err != nil {
		return err
	}
	return storage.WriteJSON(path, fragment)
}

func (r *FragmentRepositoryImpl) FindOne(ctx context.Context, storyID string, sc *scope.Scope, fragmentID string) (*entity.Fragment, error) {
	path, err := r.fragmentPath(ctx, storyID, sc, fragmentID)
	if err != nil {
		return nil, err
	}
	var fragment entity.Fragment
	if err := storage.ReadJSON(path, &fragment); err != nil {
		if os.IsNotExist(err) {
			return nil, apperror.NotFound("fragment %s in story %s", fragmentID, storyID)
		}
		return nil, err
	}
	return &fragment, nil
}

func (r *FragmentRepositoryImpl) FindAll(ctx context.Context, storyID string, sc *scope.Scope) ([]*entity.Fragment, error) {
	dir, err := r.root.Resolve(ctx, storyID, sc)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(dir, fragmentsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list fragments for story %s: %w", storyID, err)
	}

	var fragments []*entity.Fragment
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		var fragment entity.Fragment
		if err := storage.ReadJSON(filepath.Join(dir, fragmentsDir, e.Name()), &fragment); err != nil {
			return nil, err
		}
		fragments = append(fragments, &fragment)
	}
	sort.Slice(fragments, func(i, j int) bool {
		if fragments[i].Order != fragments[j].Order {
			return fragments[i].Order < fragments[j].Order
		}
		return fragments[i].Id < fragments[j].Id
	})
	return fragments, nil
}

func (r *FragmentRepositoryImpl) Delete(ctx context.Context, storyID string, sc *scope.Scope, fragmentID string) error {
	path, err := r.fragmentPath(ctx, storyID, sc, fragmentID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return apperror.NotFound("fragment %s in story %s", fragmentID, storyID)
		}
		return err
	}
	return nil
}
