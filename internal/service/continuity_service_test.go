package service

import (
	"context"
	"strings"
	"testing"

	"ai-storycraft-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func newContinuityService(f *fixture, a *stubAnalyzer, maxChars, targetChars int) IContinuityService {
	if a == nil {
		return NewContinuityService(f.chainRepo, f.storyRepo, f.analysisRepo, nil, maxChars, targetChars, logger.NopLogger{})
	}
	return NewContinuityService(f.chainRepo, f.storyRepo, f.analysisRepo, a, maxChars, targetChars, logger.NopLogger{})
}

func TestApplyDeferredFoldsContiguousPrefixOnly(t *testing.T) {
	f := newFixture(t)
	svc := newContinuityService(f, nil, 0, 0)
	ctx := context.Background()

	// 10 sections, default threshold 4 -> cutoff at section 6.
	f.seedChain(t, "s1", 10)
	f.seedAnalysis(t, "s1", "pr-1", "u1", 1)
	f.seedAnalysis(t, "s1", "pr-2", "u2", 2)
	f.seedAnalysis(t, "s1", "pr-3", "u3", 3)
	// pr-4 has no analysis; pr-5's must not be folded past the gap.
	f.seedAnalysis(t, "s1", "pr-5", "u5", 5)

	assert.NoError(t, svc.ApplyDeferred(ctx, "s1", nil))

	state, err := f.analysisRepo.LoadState(ctx, "s1", nil)
	assert.NoError(t, err)
	assert.Equal(t, "pr-3", state.SummarizedUpTo, "watermark stops at the first gap")

	story, err := f.storyRepo.Load(ctx, "s1", nil)
	assert.NoError(t, err)
	assert.Equal(t, "u1 u2 u3", story.Summary)
}

func TestApplyDeferredGapHeals(t *testing.T) {
	f := newFixture(t)
	svc := newContinuityService(f, nil, 0, 0)
	ctx := context.Background()

	f.seedChain(t, "s1", 10)
	f.seedAnalysis(t, "s1", "pr-1", "u1", 1)
	f.seedAnalysis(t, "s1", "pr-2", "u2", 2)
	f.seedAnalysis(t, "s1", "pr-3", "u3", 3)
	f.seedAnalysis(t, "s1", "pr-5", "u5", 5)
	assert.NoError(t, svc.ApplyDeferred(ctx, "s1", nil))

	// The missing analysis arrives; the next run resumes from the watermark.
	f.seedAnalysis(t, "s1", "pr-4", "u4", 6)
	assert.NoError(t, svc.ApplyDeferred(ctx, "s1", nil))

	state, err := f.analysisRepo.LoadState(ctx, "s1", nil)
	assert.NoError(t, err)
	assert.Equal(t, "pr-5", state.SummarizedUpTo)

	story, err := f.storyRepo.Load(ctx, "s1", nil)
	assert.NoError(t, err)
	assert.Equal(t, "u1 u2 u3 u4 u5", story.Summary)
}

func TestApplyDeferredRerunIsNoop(t *testing.T) {
	f := newFixture(t)
	svc := newContinuityService(f, nil, 0, 0)
	ctx := context.Background()

	f.seedChain(t, "s1", 10)
	for i := 1; i <= 6; i++ {
		f.seedAnalysis(t, "s1", sectionId(i), updateFor(i), i)
	}
	assert.NoError(t, svc.ApplyDeferred(ctx, "s1", nil))
	assert.NoError(t, svc.ApplyDeferred(ctx, "s1", nil))

	state, err := f.analysisRepo.LoadState(ctx, "s1", nil)
	assert.NoError(t, err)
	assert.Equal(t, "pr-6", state.SummarizedUpTo)

	story, err := f.storyRepo.Load(ctx, "s1", nil)
	assert.NoError(t, err)
	assert.Equal(t, "u1 u2 u3 u4 u5 u6", story.Summary, "re-run must not fold updates twice")
}

func TestApplyDeferredShortChainIsNoop(t *testing.T) {
	f := newFixture(t)
	svc := newContinuityService(f, nil, 0, 0)
	ctx := context.Background()

	// 4 sections with threshold 4: everything is still "in play".
	f.seedChain(t, "s1", 4)
	f.seedAnalysis(t, "s1", "pr-1", "u1", 1)

	assert.NoError(t, svc.ApplyDeferred(ctx, "s1", nil))

	state, err := f.analysisRepo.LoadState(ctx, "s1", nil)
	assert.NoError(t, err)
	assert.Empty(t, state.SummarizedUpTo)
}

func TestApplyDeferredEmptySummaryUpdateIsGap(t *testing.T) {
	f := newFixture(t)
	svc := newContinuityService(f, nil, 0, 0)
	ctx := context.Background()

	f.seedChain(t, "s1", 6)
	f.seedAnalysis(t, "s1", "pr-1", "   ", 1)
	f.seedAnalysis(t, "s1", "pr-2", "u2", 2)

	assert.NoError(t, svc.ApplyDeferred(ctx, "s1", nil))

	state, err := f.analysisRepo.LoadState(ctx, "s1", nil)
	assert.NoError(t, err)
	assert.Empty(t, state.SummarizedUpTo, "a whitespace-only update blocks the fold")
}

func TestApplyDeferredMissingChainIsNoop(t *testing.T) {
	f := newFixture(t)
	svc := newContinuityService(f, nil, 0, 0)

	assert.NoError(t, svc.ApplyDeferred(context.Background(), "s-empty", nil))
}

func TestApplyDeferredCompactsOversizedSummary(t *testing.T) {
	f := newFixture(t)
	svc := newContinuityService(f, nil, 10, 8)
	ctx := context.Background()

	f.seedChain(t, "s1", 7) // cutoff at 3
	f.seedAnalysis(t, "s1", "pr-1", "aaaa", 1)
	f.seedAnalysis(t, "s1", "pr-2", "bbbb", 2)
	f.seedAnalysis(t, "s1", "pr-3", "cccc", 3)

	assert.NoError(t, svc.ApplyDeferred(ctx, "s1", nil))

	state, err := f.analysisRepo.LoadState(ctx, "s1", nil)
	assert.NoError(t, err)
	assert.Equal(t, "pr-3", state.SummarizedUpTo)

	story, err := f.storyRepo.Load(ctx, "s1", nil)
	assert.NoError(t, err)
	assert.Equal(t, "... cccc", story.Summary)
	assert.LessOrEqual(t, len([]rune(story.Summary)), 8)
}

func TestCompactWithinBoundIsUnchanged(t *testing.T) {
	f := newFixture(t)
	svc := newContinuityService(f, nil, 50, 20)

	text := "short enough"
	assert.Equal(t, text, svc.Compact(context.Background(), text))
}

func TestCompactFallbackKeepsTail(t *testing.T) {
	f := newFixture(t)
	svc := newContinuityService(f, nil, 50, 20)

	text := strings.Repeat("a", 42) + "  " + strings.Repeat("b", 14)
	out := svc.Compact(context.Background(), text)

	assert.Equal(t, "... "+strings.Repeat("b", 14), out)
	assert.LessOrEqual(t, len([]rune(out)), 20)
}

func TestCompactPrefersAnalyzerOutput(t *testing.T) {
	f := newFixture(t)
	a := &stubAnalyzer{compactOut: "distilled recap"}
	svc := newContinuityService(f, a, 50, 20)

	out := svc.Compact(context.Background(), strings.Repeat("x", 100))
	assert.Equal(t, "distilled recap", out)
}

func TestCompactFallsBackWhenAnalyzerOvershoots(t *testing.T) {
	f := newFixture(t)
	a := &stubAnalyzer{compactOut: strings.Repeat("y", 30)} // exceeds target 20
	svc := newContinuityService(f, a, 50, 20)

	out := svc.Compact(context.Background(), strings.Repeat("x", 100))
	assert.True(t, strings.HasPrefix(out, "... "))
	assert.LessOrEqual(t, len([]rune(out)), 20)
}
