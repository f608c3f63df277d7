package implementation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"ai-storycraft-be/internal/entity"
	"ai-storycraft-be/internal/repository/contract"
	"ai-storycraft-be/internal/repository/memory"
	"ai-storycraft-be/internal/scope"
	"ai-storycraft-be/pkg/storage"
)

// Per-story on-disk layout. Everything below branchesDir/<branchId>/ is the
// branch's content root; legacy stories carried these items at the story
// root instead.
const (
	storiesDir         = "stories"
	branchesIndexFile  = "branches.json"
	branchesDir        = "branches"
	storyFile          = "story.json"
	fragmentsDir       = "fragments"
	proseChainFile     = "prose_chain.json"
	associationsFile   = "associations.json"
	generationLogsDir  = "generation_logs"
	librarianDir       = "librarian"
	analysesDir        = "analyses"
	analysisIndexFile  = "index.json"
	librarianStateFile = "state.json"
)

// legacyItems are the root-level content items Migrate moves into
// branches/main/. Each is individually optional.
var legacyItems = []string{
	fragmentsDir,
	proseChainFile,
	associationsFile,
	generationLogsDir,
	librarianDir,
	storyFile,
}

// ContentRoot resolves story/branch directories and performs the one-time
// legacy-layout migration. All filesystem repositories share one instance.
type ContentRoot struct {
	baseDir string
	markers *memory.MigrationMarkerRepository
	mu      sync.Mutex // serializes migration
}

var _ contract.ContentRootResolver = &ContentRoot{}

func NewContentRoot(baseDir string, markers *memory.MigrationMarkerRepository) *ContentRoot {
	return &ContentRoot{baseDir: baseDir, markers: markers}
}

func (c *ContentRoot) StoryDir(storyID string) string {
	return filepath.Join(c.baseDir, storiesDir, storyID)
}

func (c *ContentRoot) BranchDir(storyID, branchID string) string {
	return filepath.Join(c.StoryDir(storyID), branchesDir, branchID)
}

// Resolve returns the content root for the story. A pinned scope wins over
// the active-branch pointer; otherwise branches.json decides.
func (c *ContentRoot) Resolve(ctx context.Context, storyID string, sc *scope.Scope) (string, error) {
	if err := c.Migrate(ctx, storyID); err != nil {
		return "", err
	}
	if branchID := sc.For(storyID); branchID != "" {
		return c.BranchDir(storyID, branchID), nil
	}
	index, err := c.LoadBranchesIndex(storyID)
	if err != nil {
		return "", err
	}
	return c.BranchDir(storyID, index.ActiveBranchId), nil
}

// Migrate converts a legacy story layout (content items at the story root)
// into the branch layout, moving the items into branches/main/ exactly once.
// Idempotent: a story that already has a branches/ directory is left alone.
func (c *ContentRoot) Migrate(ctx context.Context, storyID string) error {
	if c.markers.IsMigrated(storyID) {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Re-check under the lock: a concurrent caller may have finished while
	// we waited.
	if c.markers.IsMigrated(storyID) {
		return nil
	}

	storyDir := c.StoryDir(storyID)
	mainDir := c.BranchDir(storyID, entity.MainBranchId)

	if !storage.Exists(filepath.Join(storyDir, branchesDir)) {
		hasLegacy := false
		for _, item := range legacyItems {
			if storage.Exists(filepath.Join(storyDir, item)) {
				hasLegacy = true
				break
			}
		}
		if hasLegacy {
			for _, item := range legacyItems {
				src := filepath.Join(storyDir, item)
				dst := filepath.Join(mainDir, item)
				if err := storage.MoveIfExists(src, dst); err != nil {
					return fmt.Errorf("migrate story %s: move %s: %w", storyID, item, err)
				}
			}
		} else {
			if err := os.MkdirAll(filepath.Join(mainDir, fragmentsDir), 0o755); err != nil {
				return fmt.Errorf("migrate story %s: %w", storyID, err)
			}
		}
	}

	indexPath := filepath.Join(storyDir, branchesIndexFile)
	if !storage.Exists(indexPath) {
		index := &entity.BranchesIndex{
			Branches: []entity.Branch{{
				Id:        entity.MainBranchId,
				Name:      "Main",
				Order:     0,
				CreatedAt: time.Now(),
			}},
			ActiveBranchId: entity.MainBranchId,
		}
		if err := storage.WriteJSON(indexPath, index); err != nil {
			return fmt.Errorf("migrate story %s: write branches index: %w", storyID, err)
		}
	}

	c.markers.MarkMigrated(storyID)
	return nil
}

// LoadBranchesIndex reads branches.json. Callers must have migrated first.
func (c *ContentRoot) LoadBranchesIndex(storyID string) (*entity.BranchesIndex, error) {
	var index entity.BranchesIndex
	path := filepath.Join(c.StoryDir(storyID), branchesIndexFile)
	if err := storage.ReadJSON(path, &index); err != nil {
		return nil, fmt.Errorf("load branches index for story %s: %w", storyID, err)
	}
	return &index, nil
}

func (c *ContentRoot) SaveBranchesIndex(storyID string, index *entity.BranchesIndex) error {
	path := filepath.Join(c.StoryDir(storyID), branchesIndexFile)
	if err := storage.WriteJSON(path, index); err != nil {
		return fmt.Errorf("save branches index for story %s: %w", storyID, err)
	}
	return nil
}
