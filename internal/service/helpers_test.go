package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"ai-storycraft-be/internal/entity"
	"ai-storycraft-be/internal/repository/contract"
	"ai-storycraft-be/internal/repository/implementation"
	"ai-storycraft-be/internal/repository/memory"
	"ai-storycraft-be/pkg/analyzer"

	"github.com/stretchr/testify/assert"
)

// fixture wires the filesystem repositories over a per-test temp dir.
type fixture struct {
	baseDir      string
	root         *implementation.ContentRoot
	branchRepo   contract.BranchRepository
	fragmentRepo contract.FragmentRepository
	chainRepo    contract.ProseChainRepository
	storyRepo    contract.StoryRepository
	analysisRepo contract.AnalysisRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	baseDir := t.TempDir()
	root := implementation.NewContentRoot(baseDir, memory.NewMigrationMarkerRepository())
	return &fixture{
		baseDir:      baseDir,
		root:         root,
		branchRepo:   implementation.NewBranchRepository(root),
		fragmentRepo: implementation.NewFragmentRepository(root),
		chainRepo:    implementation.NewProseChainRepository(root),
		storyRepo:    implementation.NewStoryRepository(root),
		analysisRepo: implementation.NewAnalysisRepository(root),
	}
}

// seedChain writes a prose chain of n sections (pr-1..pr-n) plus the matching
// prose fragments.
func (f *fixture) seedChain(t *testing.T, storyId string, n int) []string {
	t.Helper()
	ctx := context.Background()
	ids := make([]string, 0, n)
	var chain *entity.ProseChain
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("pr-%d", i)
		ids = append(ids, id)
		if chain == nil {
			chain = entity.NewProseChain(id)
		} else {
			chain.AddSection(id)
		}
		frag := &entity.Fragment{
			Id:      id,
			Type:    entity.FragmentTypeProse,
			Name:    id,
			Content: fmt.Sprintf("content of %s", id),
			Order:   i,
			Version: 1,
		}
		assert.NoError(t, f.fragmentRepo.Save(ctx, storyId, nil, frag))
	}
	assert.NoError(t, f.chainRepo.Save(ctx, storyId, nil, chain))
	return ids
}

func sectionId(i int) string { return fmt.Sprintf("pr-%d", i) }
func updateFor(i int) string { return fmt.Sprintf("u%d", i) }

// seedAnalysis writes one analysis record and returns its ID. seq orders the
// createdAt timestamps deterministically.
func (f *fixture) seedAnalysis(t *testing.T, storyId, fragmentId, summaryUpdate string, seq int) string {
	t.Helper()
	a := &entity.LibrarianAnalysis{
		Id:            fmt.Sprintf("la-%03d", seq),
		FragmentId:    fragmentId,
		CreatedAt:     fmt.Sprintf("2026-01-01T00:00:%02d.000000Z", seq),
		SummaryUpdate: summaryUpdate,
	}
	assert.NoError(t, f.analysisRepo.Save(context.Background(), storyId, nil, a))
	return a.Id
}

// stubAnalyzer returns canned findings keyed by fragment name.
type stubAnalyzer struct {
	mu           sync.Mutex
	analyzeCalls []string
	failFor      map[string]bool
	findingsFor  func(pc analyzer.PromptContext) *analyzer.Findings

	compactOut string
	compactErr error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, pc analyzer.PromptContext) (*analyzer.Findings, error) {
	s.mu.Lock()
	s.analyzeCalls = append(s.analyzeCalls, pc.FragmentName)
	s.mu.Unlock()

	if s.failFor[pc.FragmentName] {
		return nil, fmt.Errorf("analyzer unavailable for %s", pc.FragmentName)
	}
	if s.findingsFor != nil {
		return s.findingsFor(pc), nil
	}
	return &analyzer.Findings{SummaryUpdate: "update " + pc.FragmentName}, nil
}

func (s *stubAnalyzer) Compact(ctx context.Context, text string, targetChars int) (string, error) {
	if s.compactErr != nil {
		return "", s.compactErr
	}
	return s.compactOut, nil
}

func (s *stubAnalyzer) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.analyzeCalls))
	copy(out, s.analyzeCalls)
	return out
}

// stubPublisher records payloads instead of touching the event bus.
type stubPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (p *stubPublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *stubPublisher) published() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.payloads))
	copy(out, p.payloads)
	return out
}
