package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"ArticlesChat/internal/domain"
	"ArticlesChat/internal/fallback"
	"ArticlesChat/internal/logging"
	"ArticlesChat/internal/ports"
)

// PipelineDeps wires all driven adapters into the chat pipeline.
type PipelineDeps struct {
	Store          ports.ArticleStore
	Selector       ports.Selector
	Composer       ports.Composer
	Fallback       fallback.Policy
	Observer       ports.PipelineObserver
	Logger         *slog.Logger
	FetchAllPhrase string
}

// Pipeline implements the load, select and answer workflow for one chat turn.
type Pipeline struct {
	store          ports.ArticleStore
	selector       ports.Selector
	composer       ports.Composer
	fallback       fallback.Policy
	observer       ports.PipelineObserver
	logger         *slog.Logger
	fetchAllPhrase string
}

// Reply is the outcome of a chat turn. FetchAll marks the browse shortcut,
// in which case Articles holds the corpus and Result is empty.
type Reply struct {
	Result   domain.PipelineResult
	Articles []domain.Article
	FetchAll bool
}

// NewPipeline constructs the orchestration component. The store, both stages and
// the fallback policy are required; the policy decides whether an empty selection
// becomes a general answer or a report, so it is never picked implicitly.
func NewPipeline(deps PipelineDeps) (*Pipeline, error) {
	switch {
	case deps.Store == nil:
		return nil, errors.New("pipeline requires an article store")
	case deps.Selector == nil:
		return nil, errors.New("pipeline requires a selector")
	case deps.Composer == nil:
		return nil, errors.New("pipeline requires a composer")
	case deps.Fallback == nil:
		return nil, errors.New("pipeline requires a fallback policy")
	}

	observer := deps.Observer
	if observer == nil {
		observer = noopObserver{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Pipeline{
		store:          deps.Store,
		selector:       deps.Selector,
		composer:       deps.Composer,
		fallback:       deps.Fallback,
		observer:       observer,
		logger:         logger,
		fetchAllPhrase: strings.ToLower(strings.TrimSpace(deps.FetchAllPhrase)),
	}, nil
}

// Chat runs one request: load the corpus, select relevant articles, then either
// compose a grounded answer or hand over to the fallback policy.
func (p *Pipeline) Chat(ctx context.Context, history []domain.ChatMessage) (Reply, error) {
	start := time.Now()
	if logging.RequestID(ctx) == "" {
		ctx = logging.WithRequestID(ctx, uuid.NewString())
	}

	if err := domain.ValidateHistory(history); err != nil {
		return Reply{}, p.fail(ctx, start, err)
	}
	query := domain.LatestUserQuery(history)
	if query == "" {
		return Reply{}, p.fail(ctx, start, fmt.Errorf("%w: latest user message is empty", domain.ErrInvalidRequest))
	}

	if p.wantsAllArticles(query) {
		fetchCtx := logging.WithStage(ctx, logging.StageFetchAll)
		articles, err := p.Articles(fetchCtx)
		if err != nil {
			return Reply{}, p.fail(fetchCtx, start, err)
		}
		p.finish(fetchCtx, start, false)
		return Reply{Articles: articles, FetchAll: true}, nil
	}

	loadCtx := logging.WithStage(ctx, logging.StageLoadCorpus)
	corpus, err := p.store.Load(loadCtx)
	if err != nil {
		return Reply{}, p.fail(loadCtx, start, fmt.Errorf("load corpus: %w", err))
	}

	selectCtx := logging.WithStage(ctx, logging.StageSelectRelevant)
	titles := p.selector.Select(selectCtx, query, history, corpus)
	selected := pickArticles(corpus, titles)

	if len(selected) == 0 {
		fallbackCtx := logging.WithStage(ctx, logging.StageFallback)
		logging.FromContext(fallbackCtx, p.logger).Info("no relevant articles", "policy", p.fallback.Name())

		result, err := p.fallback.Handle(fallbackCtx, fallback.Request{Query: query, History: history, Corpus: corpus})
		if err != nil {
			return Reply{}, p.fail(fallbackCtx, start, err)
		}
		result.Fallback = true
		if result.References == nil {
			result.References = []domain.Article{}
		}
		p.finish(fallbackCtx, start, true)
		return Reply{Result: result}, nil
	}

	composeCtx := logging.WithStage(ctx, logging.StageCompose)
	answer, err := p.composer.Compose(composeCtx, query, history, selected)
	if err != nil {
		return Reply{}, p.fail(composeCtx, start, err)
	}

	p.finish(composeCtx, start, false)
	return Reply{Result: domain.PipelineResult{
		Response:   answer,
		References: domain.ResolveIDs(selected),
	}}, nil
}

// Articles returns the whole corpus with identifiers resolved.
func (p *Pipeline) Articles(ctx context.Context) ([]domain.Article, error) {
	corpus, err := p.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	return domain.ResolveIDs(corpus), nil
}

func (p *Pipeline) wantsAllArticles(query string) bool {
	return p.fetchAllPhrase != "" && strings.Contains(strings.ToLower(query), p.fetchAllPhrase)
}

func (p *Pipeline) finish(ctx context.Context, start time.Time, usedFallback bool) {
	elapsed := time.Since(start)
	p.observer.RequestFinished(domain.KindNone, usedFallback, elapsed)
	logging.FromContext(ctx, p.logger).Info("chat request completed",
		"fallback", usedFallback,
		"elapsed", elapsed,
	)
}

func (p *Pipeline) fail(ctx context.Context, start time.Time, err error) error {
	kind := domain.Kind(err)
	elapsed := time.Since(start)
	p.observer.RequestFinished(kind, false, elapsed)

	logger := logging.FromContext(ctx, p.logger)
	attrs := []any{"error_kind", string(kind), "error", err, "elapsed", elapsed}
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrNoRelevantArticles):
		logger.Warn("chat request rejected", attrs...)
	default:
		logger.Error("chat request failed", attrs...)
	}
	return err
}

// pickArticles keeps corpus entries whose title was selected, in corpus order.
func pickArticles(corpus []domain.Article, titles []string) []domain.Article {
	if len(titles) == 0 {
		return nil
	}

	wanted := make(map[string]struct{}, len(titles))
	for _, title := range titles {
		wanted[title] = struct{}{}
	}

	selected := make([]domain.Article, 0, len(titles))
	for _, article := range corpus {
		if _, ok := wanted[article.Title]; ok {
			selected = append(selected, article)
			delete(wanted, article.Title)
		}
	}
	return selected
}

type noopObserver struct{}

func (noopObserver) RequestFinished(domain.ErrorKind, bool, time.Duration) {}
func (noopObserver) ModelCall(string, time.Duration, error)                {}
func (noopObserver) RankerDegraded(string)                                 {}
