package service

import (
	"context"
	"strings"

	"ai-storycraft-be/internal/apperror"
	"ai-storycraft-be/internal/entity"
	"ai-storycraft-be/internal/pkg/logger"
	"ai-storycraft-be/internal/repository/contract"
	"ai-storycraft-be/internal/scope"
	"ai-storycraft-be/pkg/analyzer"
)

// Default rolling-summary size bounds, overridable via config.
const (
	DefaultMaxSummaryChars    = 4000
	DefaultTargetSummaryChars = 3000
)

// IContinuityService folds per-fragment analysis results into the story's
// rolling summary, keeping a watermark of how far along the prose chain the
// summary reaches.
type IContinuityService interface {
	ApplyDeferred(ctx context.Context, storyId string, sc *scope.Scope) error
	RebuildIndex(ctx context.Context, storyId string, sc *scope.Scope) error
	Compact(ctx context.Context, text string) string
}

type continuityService struct {
	chainRepo    contract.ProseChainRepository
	storyRepo    contract.StoryRepository
	analysisRepo contract.AnalysisRepository
	analyzer     analyzer.Analyzer
	maxChars     int
	targetChars  int
	logger       logger.ILogger
}

func NewContinuityService(
	chainRepo contract.ProseChainRepository,
	storyRepo contract.StoryRepository,
	analysisRepo contract.AnalysisRepository,
	llmAnalyzer analyzer.Analyzer,
	maxChars, targetChars int,
	log logger.ILogger,
) IContinuityService {
	if maxChars <= 0 {
		maxChars = DefaultMaxSummaryChars
	}
	if targetChars <= 0 {
		targetChars = DefaultTargetSummaryChars
	}
	return &continuityService{
		chainRepo:    chainRepo,
		storyRepo:    storyRepo,
		analysisRepo: analysisRepo,
		analyzer:     llmAnalyzer,
		maxChars:     maxChars,
		targetChars:  targetChars,
		logger:       log,
	}
}

// ApplyDeferred walks the prose chain from the watermark toward the cutoff
// (chain length minus the story's summarization threshold), folding each
// section's latest summaryUpdate into the rolling summary. The walk stops at
// the first gap — a section with no analysis yet, or one whose summaryUpdate
// is empty — so the summary only ever reflects a contiguous, committed
// prefix of the story. A gap heals itself: once the missing analysis
// arrives, the next run picks up from the same spot.
func (s *continuityService) ApplyDeferred(ctx context.Context, storyId string, sc *scope.Scope) error {
	chain, err := s.chainRepo.Load(ctx, storyId, sc)
	if apperror.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	chainIds := chain.ActiveIds()

	story, err := s.storyRepo.Load(ctx, storyId, sc)
	if apperror.IsNotFound(err) {
		story = &entity.Story{Id: storyId}
	} else if err != nil {
		return err
	}

	cutoff := len(chainIds) - story.Threshold()
	if cutoff <= 0 {
		return nil // too little prose yet to summarize anything
	}

	state, err := s.analysisRepo.LoadState(ctx, storyId, sc)
	if err != nil {
		return err
	}

	start := 0
	if state.SummarizedUpTo != "" {
		for i, id := range chainIds {
			if id == state.SummarizedUpTo {
				start = i + 1
				break
			}
		}
	}
	if start >= cutoff {
		return nil
	}

	index, err := s.analysisRepo.LoadIndex(ctx, storyId, sc)
	if err != nil {
		return err
	}

	var pending []string
	watermark := ""
	for i := start; i < cutoff; i++ {
		analysisID, ok := index.Latest[chainIds[i]]
		if !ok {
			break // gap: analysis not yet produced
		}
		analysis, err := s.analysisRepo.FindOne(ctx, storyId, sc, analysisID)
		if err != nil {
			s.logger.Warn("continuity", "Indexed analysis unreadable, treating as gap", map[string]interface{}{
				"story_id": storyId, "analysis_id": analysisID, "error": err.Error(),
			})
			break
		}
		update := strings.TrimSpace(analysis.SummaryUpdate)
		if update == "" {
			break // gap: nothing to fold
		}
		pending = append(pending, update)
		watermark = chainIds[i]
	}
	if len(pending) == 0 {
		return nil
	}

	combined := strings.TrimSpace(story.Summary + " " + strings.Join(pending, " "))
	compacted := s.Compact(ctx, combined)

	// Watermark first: if the summary write below fails, the fold is lost
	// rather than applied twice on the next run.
	state.SummarizedUpTo = watermark
	if err := s.analysisRepo.SaveState(ctx, storyId, sc, state); err != nil {
		return err
	}
	story.Summary = compacted
	if err := s.storyRepo.Save(ctx, storyId, sc, story); err != nil {
		return err
	}

	s.logger.Info("continuity", "Folded analysis summaries into rolling summary", map[string]interface{}{
		"story_id": storyId, "folded": len(pending), "watermark": watermark,
	})
	return nil
}

func (s *continuityService) RebuildIndex(ctx context.Context, storyId string, sc *scope.Scope) error {
	_, err := s.analysisRepo.RebuildIndex(ctx, storyId, sc)
	return err
}

// Compact bounds text to the configured size. Within maxChars it is returned
// unchanged. Otherwise an analyzer-backed compaction is attempted; if the
// analyzer is unavailable, errors, or overshoots the target, the
// deterministic fallback keeps the tail of the text — the most recent
// narrative events matter more for continuity than the oldest ones.
func (s *continuityService) Compact(ctx context.Context, text string) string {
	runes := []rune(text)
	if len(runes) <= s.maxChars {
		return text
	}

	if s.analyzer != nil {
		out, err := s.analyzer.Compact(ctx, text, s.targetChars)
		if err == nil && out != "" && len([]rune(out)) <= s.targetChars {
			return out
		}
		if err != nil {
			s.logger.Warn("continuity", "Analyzer compaction failed, falling back to truncation", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return truncateTail(runes, s.targetChars)
}

// truncateTail keeps the last targetChars-4 runes, trims leading whitespace
// after the cut, and prefixes "... ".
func truncateTail(runes []rune, targetChars int) string {
	keep := targetChars - 4
	if keep < 0 {
		keep = 0
	}
	if keep > len(runes) {
		keep = len(runes)
	}
	tail := strings.TrimLeft(string(runes[len(runes)-keep:]), " \t\r\n")
	return "... " + tail
}
