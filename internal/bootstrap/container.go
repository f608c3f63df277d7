package bootstrap

import (
	"context"
	"log"
	"time"

	"ai-storycraft-be/internal/config"
	"ai-storycraft-be/internal/pkg/logger"
	"ai-storycraft-be/internal/repository/implementation"
	"ai-storycraft-be/internal/repository/memory"
	"ai-storycraft-be/internal/scheduler"
	"ai-storycraft-be/internal/service"
	"ai-storycraft-be/pkg/analyzer"
	"ai-storycraft-be/pkg/llm/factory"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Container struct {
	BranchService     service.IBranchService
	FragmentService   service.IFragmentService
	ProseService      service.IProseService
	LibrarianService  service.ILibrarianService
	ContinuityService service.IContinuityService

	// Background services (exposed for main to run)
	ConsumerService service.IConsumerService
	Debouncer       *scheduler.Debouncer

	Traces *memory.TraceRepository
	Logger logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Storage
	markers := memory.NewMigrationMarkerRepository()
	contentRoot := implementation.NewContentRoot(cfg.App.DataDir, markers)
	branchRepo := implementation.NewBranchRepository(contentRoot)
	fragmentRepo := implementation.NewFragmentRepository(contentRoot)
	chainRepo := implementation.NewProseChainRepository(contentRoot)
	storyRepo := implementation.NewStoryRepository(contentRoot)
	analysisRepo := implementation.NewAnalysisRepository(contentRoot)
	traces := memory.NewTraceRepository(cfg.Librarian.TraceCap)

	// 4. Analyzer
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.Provider,
		cfg.Ai.Model,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.OpenAIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM provider: %v", err)
	}
	log.Printf("[INFO] Using LLM provider: %s (%s)", cfg.Ai.Provider, cfg.Ai.Model)
	llmAnalyzer := analyzer.NewLLMAnalyzer(llmProvider)

	// 5. Services
	publisherService := service.NewPublisherService(cfg.Librarian.Topic, pubSub)
	branchService := service.NewBranchService(branchRepo, chainRepo, sysLogger)
	fragmentService := service.NewFragmentService(fragmentRepo, branchRepo, publisherService, sysLogger)
	proseService := service.NewProseService(chainRepo, fragmentService, sysLogger)
	continuityService := service.NewContinuityService(
		chainRepo, storyRepo, analysisRepo, llmAnalyzer,
		cfg.Librarian.MaxSummaryChars, cfg.Librarian.TargetSummaryChars,
		sysLogger,
	)
	librarianService := service.NewLibrarianService(
		fragmentRepo, chainRepo, storyRepo, analysisRepo,
		continuityService, llmAnalyzer, traces, sysLogger,
	)

	// 6. Debounced trigger + consumer
	debouncer := scheduler.NewDebouncer(
		time.Duration(cfg.Librarian.DebounceSeconds)*time.Second,
		func(ctx context.Context, storyID, branchID string) {
			if err := librarianService.Run(ctx, storyID, branchID); err != nil {
				sysLogger.Error("librarian", "Librarian run failed", map[string]interface{}{
					"story_id": storyID, "branch_id": branchID, "error": err.Error(),
				})
			}
		},
	)
	consumerService := service.NewConsumerService(pubSub, cfg.Librarian.Topic, debouncer)

	return &Container{
		BranchService:     branchService,
		FragmentService:   fragmentService,
		ProseService:      proseService,
		LibrarianService:  librarianService,
		ContinuityService: continuityService,
		ConsumerService:   consumerService,
		Debouncer:         debouncer,
		Traces:            traces,
		Logger:            sysLogger,
	}
}
