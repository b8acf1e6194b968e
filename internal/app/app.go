package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"

	"ArticlesChat/internal/config"
	"ArticlesChat/internal/domain"
	"ArticlesChat/internal/fallback"
	"ArticlesChat/internal/infrastructure/httpapi"
	"ArticlesChat/internal/infrastructure/llm"
	"ArticlesChat/internal/infrastructure/metrics"
	"ArticlesChat/internal/infrastructure/parser"
	"ArticlesChat/internal/infrastructure/storage"
	"ArticlesChat/internal/logging"
	"ArticlesChat/internal/ports"
	"ArticlesChat/internal/usecase"
)

// Models lets callers replace the OpenAI-backed stage clients (tests, alternative providers).
type Models struct {
	Ranker ports.ChatModel
	Answer ports.ChatModel
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	server   *echo.Echo
}

// New builds a runnable application from configuration.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	return NewWithModels(cfg, baseLogger, Models{})
}

// NewWithModels is New with explicit stage models; nil entries are built from cfg.
func NewWithModels(cfg config.Config, baseLogger *slog.Logger, models Models) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	recorder := metrics.NewRecorder()

	rankerModel, err := stageModel(models.Ranker, cfg.Ranker)
	if err != nil {
		return nil, fmt.Errorf("ranker model: %w", err)
	}
	answerModel, err := stageModel(models.Answer, cfg.Answer)
	if err != nil {
		return nil, fmt.Errorf("answer model: %w", err)
	}

	var normalizer ports.TextNormalizer
	if cfg.Corpus.StripHTMLEnabled() {
		normalizer = parser.NewHTMLText()
	}

	store := storage.NewJSONStore(cfg.Corpus.Path, cfg.Corpus.Prefix(), baseLogger.With("component", "storage.json"))

	selector, err := usecase.NewRelevanceSelector(usecase.SelectorDeps{
		Model:          metrics.InstrumentModel(logging.StageSelectRelevant, rankerModel, recorder),
		Normalizer:     normalizer,
		Observer:       recorder,
		Logger:         baseLogger.With("component", "selector"),
		PreviewChars:   cfg.Pipeline.PreviewChars,
		IncludeHistory: cfg.Ranker.HistoryEnabled(),
		PromptTemplate: cfg.Ranker.PromptTemplate,
	})
	if err != nil {
		return nil, err
	}

	composer, err := usecase.NewAnswerComposer(usecase.ComposerDeps{
		Model:          metrics.InstrumentModel(logging.StageCompose, answerModel, recorder),
		Normalizer:     normalizer,
		Logger:         baseLogger.With("component", "composer"),
		IncludeHistory: cfg.Answer.HistoryEnabled(),
		PromptTemplate: cfg.Answer.PromptTemplate,
	})
	if err != nil {
		return nil, err
	}

	registry := fallback.NewRegistry()
	general, err := fallback.NewGeneral(
		metrics.InstrumentModel(logging.StageFallback, answerModel, recorder),
		cfg.Pipeline.FallbackPrompt,
		cfg.Answer.HistoryEnabled(),
	)
	if err != nil {
		return nil, err
	}
	registry.Register(general)
	registry.Register(fallback.NewReport())

	policy, err := registry.Resolve(cfg.Pipeline.FallbackPolicy)
	if err != nil {
		return nil, err
	}

	pipeline, err := usecase.NewPipeline(usecase.PipelineDeps{
		Store:          store,
		Selector:       selector,
		Composer:       composer,
		Fallback:       policy,
		Observer:       recorder,
		Logger:         baseLogger.With("component", "pipeline"),
		FetchAllPhrase: cfg.Pipeline.FetchAll(),
	})
	if err != nil {
		return nil, err
	}

	server := httpapi.NewServer(httpapi.ServerDeps{
		Handler: httpapi.NewHandler(pipeline, baseLogger.With("component", "http")),
		Metrics: recorder.Handler(),
		Logger:  baseLogger.With("component", "http"),
	})

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		pipeline: pipeline,
		server:   server,
	}, nil
}

// Run serves the HTTP API until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	a.logger.Info("articles chat starting",
		"addr", a.cfg.Server.Addr,
		"corpus", a.cfg.Corpus.Path,
		"ranker_model", a.cfg.Ranker.Model,
		"answer_model", a.cfg.Answer.Model,
		"fallback_policy", a.cfg.Pipeline.FallbackPolicy,
	)
	return httpapi.Serve(ctx, a.server, a.cfg.Server.Addr, a.cfg.Server.ShutdownTimeout, a.logger)
}

// Ask runs the pipeline once for a single question.
func (a *Application) Ask(ctx context.Context, question string) (usecase.Reply, error) {
	return a.pipeline.Chat(ctx, []domain.ChatMessage{{Role: domain.RoleUser, Content: question}})
}

// Handler exposes the HTTP routes (tests, embedding in another server).
func (a *Application) Handler() *echo.Echo {
	return a.server
}

func stageModel(override ports.ChatModel, cfg config.ModelConfig) (ports.ChatModel, error) {
	if override != nil {
		return override, nil
	}
	client, err := llm.NewChatGPTClient(cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}
