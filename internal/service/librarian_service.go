package service

import (
	"context"
	"strings"
	"time"

	"ai-storycraft-be/internal/apperror"
	"ai-storycraft-be/internal/entity"
	"ai-storycraft-be/internal/pkg/logger"
	"ai-storycraft-be/internal/repository/contract"
	"ai-storycraft-be/internal/repository/memory"
	"ai-storycraft-be/internal/scope"
	"ai-storycraft-be/pkg/analyzer"

	"github.com/google/uuid"
)

// recentMentionsCap bounds how many analyzed-fragment IDs are remembered per
// mentioned character.
const recentMentionsCap = 10

// recentSectionsInPrompt is how many preceding active sections the analyzer
// sees alongside the fragment under analysis.
const recentSectionsInPrompt = 2

// ILibrarianService orchestrates continuity analysis: it runs the Analyzer
// over prose fragments, persists the resulting analysis records, maintains
// the librarian state, and hands off to the ContinuityEngine.
type ILibrarianService interface {
	AnalyzeFragment(ctx context.Context, storyId string, sc *scope.Scope, fragmentId string) (*entity.LibrarianAnalysis, error)

	// Run is the debounce-fired entry point. It pins the branch captured at
	// schedule time, analyzes every active chain fragment that has no
	// analysis yet, then applies deferred summarization — all through the
	// same pin, so a concurrent branch switch cannot split the run across
	// branches.
	Run(ctx context.Context, storyId, branchId string) error
}

type librarianService struct {
	fragmentRepo contract.FragmentRepository
	chainRepo    contract.ProseChainRepository
	storyRepo    contract.StoryRepository
	analysisRepo contract.AnalysisRepository
	continuity   IContinuityService
	analyzer     analyzer.Analyzer
	traces       *memory.TraceRepository
	logger       logger.ILogger
}

func NewLibrarianService(
	fragmentRepo contract.FragmentRepository,
	chainRepo contract.ProseChainRepository,
	storyRepo contract.StoryRepository,
	analysisRepo contract.AnalysisRepository,
	continuity IContinuityService,
	llmAnalyzer analyzer.Analyzer,
	traces *memory.TraceRepository,
	log logger.ILogger,
) ILibrarianService {
	return &librarianService{
		fragmentRepo: fragmentRepo,
		chainRepo:    chainRepo,
		storyRepo:    storyRepo,
		analysisRepo: analysisRepo,
		continuity:   continuity,
		analyzer:     llmAnalyzer,
		traces:       traces,
		logger:       log,
	}
}

func (s *librarianService) Run(ctx context.Context, storyId, branchId string) error {
	pinned := scope.Pin(storyId, branchId)

	chain, err := s.chainRepo.Load(ctx, storyId, pinned)
	if apperror.IsNotFound(err) {
		return nil // no prose yet, nothing for the librarian to do
	}
	if err != nil {
		return err
	}

	index, err := s.analysisRepo.LoadIndex(ctx, storyId, pinned)
	if err != nil {
		return err
	}

	for _, fragmentId := range chain.ActiveIds() {
		if _, ok := index.Latest[fragmentId]; ok {
			continue
		}
		started := time.Now()
		if _, err := s.AnalyzeFragment(ctx, storyId, pinned, fragmentId); err != nil {
			// One failed analysis becomes a gap that stops summarization at
			// that point; later fragments are still analyzed so the gap
			// heals as soon as a re-run succeeds here.
			s.logger.Error("librarian", "Fragment analysis failed", map[string]interface{}{
				"story_id": storyId, "fragment_id": fragmentId, "error": err.Error(),
			})
			s.trace(storyId, branchId, fragmentId, "error", err.Error(), time.Since(started))
			continue
		}
		s.trace(storyId, branchId, fragmentId, "analyzed", "", time.Since(started))
	}

	if err := s.continuity.ApplyDeferred(ctx, storyId, pinned); err != nil {
		return err
	}
	s.trace(storyId, branchId, "", "summarized", "", 0)
	return nil
}

func (s *librarianService) AnalyzeFragment(ctx context.Context, storyId string, sc *scope.Scope, fragmentId string) (*entity.LibrarianAnalysis, error) {
	fragment, err := s.fragmentRepo.FindOne(ctx, storyId, sc, fragmentId)
	if err != nil {
		return nil, err
	}

	story, err := s.storyRepo.Load(ctx, storyId, sc)
	if apperror.IsNotFound(err) {
		story = &entity.Story{Id: storyId}
	} else if err != nil {
		return nil, err
	}

	pc := analyzer.PromptContext{
		StoryTitle:      story.Title,
		CurrentSummary:  story.Summary,
		FragmentName:    fragment.Name,
		FragmentContent: fragment.Content,
	}
	s.fillPromptContext(ctx, storyId, sc, fragmentId, &pc)

	findings, err := s.analyzer.Analyze(ctx, pc)
	if err != nil {
		return nil, err
	}

	analysis := &entity.LibrarianAnalysis{
		Id:                  "la-" + uuid.NewString(),
		CreatedAt:           entity.NowAnalysisTime(),
		FragmentId:          fragmentId,
		SummaryUpdate:       strings.TrimSpace(findings.SummaryUpdate),
		StructuredSummary:   findings.StructuredSummary,
		MentionedCharacters: findings.MentionedCharacters,
		Contradictions:      findings.Contradictions,
		FragmentSuggestions: findings.FragmentSuggestions,
		TimelineEvents:      findings.TimelineEvents,
	}
	if err := s.analysisRepo.Save(ctx, storyId, sc, analysis); err != nil {
		return nil, err
	}

	if err := s.updateState(ctx, storyId, sc, analysis); err != nil {
		// State is derived bookkeeping; the analysis record is already
		// durable and indexed.
		s.logger.Warn("librarian", "Failed to update librarian state", map[string]interface{}{
			"story_id": storyId, "fragment_id": fragmentId, "error": err.Error(),
		})
	}
	return analysis, nil
}

// fillPromptContext adds the preceding active sections and the known
// character roster. Both are best-effort context.
func (s *librarianService) fillPromptContext(ctx context.Context, storyId string, sc *scope.Scope, fragmentId string, pc *analyzer.PromptContext) {
	if chain, err := s.chainRepo.Load(ctx, storyId, sc); err == nil {
		activeIds := chain.ActiveIds()
		pos := chain.FindSectionIndex(fragmentId)
		if pos > 0 {
			from := pos - recentSectionsInPrompt
			if from < 0 {
				from = 0
			}
			for _, prevId := range activeIds[from:pos] {
				if prev, err := s.fragmentRepo.FindOne(ctx, storyId, sc, prevId); err == nil {
					pc.RecentSections = append(pc.RecentSections, prev.Content)
				}
			}
		}
	}

	if fragments, err := s.fragmentRepo.FindAll(ctx, storyId, sc); err == nil {
		for _, f := range fragments {
			if f.Type == entity.FragmentTypeCharacter && !f.Archived {
				pc.KnownCharacters = append(pc.KnownCharacters, f.Name)
			}
		}
	}
}

// updateState folds the new analysis into the librarian state: last-analyzed
// pointer, per-character recent mentions, and the running timeline.
func (s *librarianService) updateState(ctx context.Context, storyId string, sc *scope.Scope, analysis *entity.LibrarianAnalysis) error {
	state, err := s.analysisRepo.LoadState(ctx, storyId, sc)
	if err != nil {
		return err
	}
	state.LastAnalyzedFragmentId = analysis.FragmentId

	if len(analysis.MentionedCharacters) > 0 {
		if characterIds := s.resolveCharacters(ctx, storyId, sc, analysis.MentionedCharacters); len(characterIds) > 0 {
			for _, characterId := range characterIds {
				mentions := append(state.RecentMentions[characterId], analysis.FragmentId)
				if len(mentions) > recentMentionsCap {
					mentions = mentions[len(mentions)-recentMentionsCap:]
				}
				state.RecentMentions[characterId] = mentions
			}
		}
	}

	for _, ev := range analysis.TimelineEvents {
		if ev.FragmentId == "" {
			ev.FragmentId = analysis.FragmentId
		}
		state.Timeline = append(state.Timeline, ev)
	}

	return s.analysisRepo.SaveState(ctx, storyId, sc, state)
}

// resolveCharacters maps mentioned character names to character fragment IDs
// by case-insensitive name match.
func (s *librarianService) resolveCharacters(ctx context.Context, storyId string, sc *scope.Scope, names []string) []string {
	fragments, err := s.fragmentRepo.FindAll(ctx, storyId, sc)
	if err != nil {
		return nil
	}
	var ids []string
	for _, name := range names {
		for _, f := range fragments {
			if f.Type == entity.FragmentTypeCharacter && strings.EqualFold(f.Name, name) {
				ids = append(ids, f.Id)
				break
			}
		}
	}
	return ids
}

func (s *librarianService) trace(storyId, branchId, fragmentId, outcome, detail string, d time.Duration) {
	if s.traces == nil {
		return
	}
	s.traces.Record(memory.RunTrace{
		StoryID:    storyId,
		BranchID:   branchId,
		FragmentID: fragmentId,
		Outcome:    outcome,
		Detail:     detail,
		Duration:   d,
		At:         time.Now(),
	})
}
