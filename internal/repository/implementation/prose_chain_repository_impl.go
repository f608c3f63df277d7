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

type ProseChainRepositoryImpl struct {
	root *ContentRoot
}

func NewProseChainRepository(root *ContentRoot) contract.ProseChainRepository {
	return &ProseChainRepositoryImpl{root: root}
}

func (r *ProseChainRepositoryImpl) Load(ctx context.Context, storyID string, sc *scope.Scope) (*entity.ProseChain, error) {
	dir, err := r.root.Resolve(ctx, storyID, sc)
	if err != nil {
		return nil, err
	}
	var chain entity.ProseChain
	if err := storage.ReadJSON(filepath.Join(dir, proseChainFile), &chain); err != nil {
		if os.IsNotExist(err) {
			return nil, apperror.NotFound("prose chain for story %s", storyID)
		}
		return nil, err
	}
	return &chain, nil
}

func (r *ProseChainRepositoryImpl) Save(ctx context.Context, storyID string, sc *scope.Scope, chain *entity.ProseChain) error {
	dir, err := r.root.Resolve(ctx, storyID, sc)
	if err != nil {
		return err
	}
	return storage.WriteJSON(filepath.Join(dir, proseChainFile), chain)
}
