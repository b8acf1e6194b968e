package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"ArticlesChat/internal/domain"
	"ArticlesChat/internal/logging"
	"ArticlesChat/internal/ports"
	"ArticlesChat/internal/prompt"
	"ArticlesChat/pkg/jsonarray"
)

// Reasons reported when the ranker answer cannot be used as-is.
const (
	DegradedModelError  = "model_error"
	DegradedUnparseable = "unparseable"
	DegradedPrompt      = "prompt_error"
)

// SelectorDeps configures the model-backed relevance selector.
type SelectorDeps struct {
	Model          ports.ChatModel
	Normalizer     ports.TextNormalizer
	Observer       ports.PipelineObserver
	Logger         *slog.Logger
	PreviewChars   int
	IncludeHistory bool
	PromptTemplate string
}

// RelevanceSelector asks the ranker model which titles matter for a query.
type RelevanceSelector struct {
	model          ports.ChatModel
	normalizer     ports.TextNormalizer
	observer       ports.PipelineObserver
	logger         *slog.Logger
	previewChars   int
	includeHistory bool
	prompt         *template.Template
}

var _ ports.Selector = (*RelevanceSelector)(nil)

// NewRelevanceSelector compiles the ranker prompt and returns the selector.
func NewRelevanceSelector(deps SelectorDeps) (*RelevanceSelector, error) {
	if deps.Model == nil {
		return nil, errors.New("relevance selector requires a model")
	}

	tmpl, err := prompt.Parse("ranker", deps.PromptTemplate, defaultRankerPrompt)
	if err != nil {
		return nil, err
	}

	observer := deps.Observer
	if observer == nil {
		observer = noopObserver{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &RelevanceSelector{
		model:          deps.Model,
		normalizer:     deps.Normalizer,
		observer:       observer,
		logger:         logger,
		previewChars:   deps.PreviewChars,
		includeHistory: deps.IncludeHistory,
		prompt:         tmpl,
	}, nil
}

// Select returns the corpus titles the ranker considers relevant, in corpus order.
// It never fails: a model error or an unusable answer selects the whole corpus,
// and titles the corpus does not contain are dropped.
func (s *RelevanceSelector) Select(ctx context.Context, query string, history []domain.ChatMessage, corpus []domain.Article) []string {
	if len(corpus) == 0 {
		return nil
	}
	logger := logging.FromContext(ctx, s.logger)

	rendered, err := prompt.Render(s.prompt, buildRankerData(query, corpus, s.normalizer, s.previewChars))
	if err != nil {
		return s.selectAll(logger, corpus, DegradedPrompt, err)
	}

	raw, err := s.model.Generate(ctx, prompt.Conversation(rendered, history, s.includeHistory))
	if err != nil {
		return s.selectAll(logger, corpus, DegradedModelError, err)
	}

	parsed, err := jsonarray.ExtractStrings(raw)
	if err != nil {
		return s.selectAll(logger, corpus, DegradedUnparseable,
			fmt.Errorf("%w: %v", domain.ErrMalformedRankerOutput, err))
	}
	if parsed.Strategy != jsonarray.StrategyDirect {
		logger.Debug("ranker output recovered", "strategy", parsed.Strategy)
	}

	selected := intersectTitles(corpus, parsed.Values)
	if dropped := countUnknown(corpus, parsed.Values); dropped > 0 {
		logger.Debug("ranker returned unknown titles", "dropped", dropped)
	}
	logger.Info("articles selected", "selected", len(selected), "corpus", len(corpus))
	return selected
}

func (s *RelevanceSelector) selectAll(logger *slog.Logger, corpus []domain.Article, reason string, err error) []string {
	s.observer.RankerDegraded(reason)
	logger.Warn("ranker degraded, selecting all articles",
		"reason", reason,
		"error_kind", string(domain.KindMalformedRankerOutput),
		"error", err,
	)
	return domain.Titles(corpus)
}

// intersectTitles keeps the corpus titles named in ranked, preserving corpus order.
func intersectTitles(corpus []domain.Article, ranked []string) []string {
	wanted := make(map[string]struct{}, len(ranked))
	for _, title := range ranked {
		wanted[strings.TrimSpace(title)] = struct{}{}
	}

	seen := make(map[string]struct{}, len(ranked))
	selected := make([]string, 0, len(ranked))
	for _, article := range corpus {
		key := strings.TrimSpace(article.Title)
		if _, ok := wanted[key]; !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		// Callers look titles up verbatim, so return the corpus spelling.
		selected = append(selected, article.Title)
	}
	return selected
}

func countUnknown(corpus []domain.Article, ranked []string) int {
	known := make(map[string]struct{}, len(corpus))
	for _, article := range corpus {
		known[strings.TrimSpace(article.Title)] = struct{}{}
	}

	unknown := 0
	for _, title := range ranked {
		if _, ok := known[strings.TrimSpace(title)]; !ok {
			unknown++
		}
	}
	return unknown
}
