package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"text/template"

	"ArticlesChat/internal/domain"
	"ArticlesChat/internal/logging"
	"ArticlesChat/internal/ports"
	"ArticlesChat/internal/prompt"
)

// ComposerDeps configures the grounded answer stage.
type ComposerDeps struct {
	Model          ports.ChatModel
	Normalizer     ports.TextNormalizer
	Logger         *slog.Logger
	IncludeHistory bool
	PromptTemplate string
}

// AnswerComposer writes the final answer from the full text of the selected articles.
type AnswerComposer struct {
	model          ports.ChatModel
	normalizer     ports.TextNormalizer
	logger         *slog.Logger
	includeHistory bool
	prompt         *template.Template
}

var _ ports.Composer = (*AnswerComposer)(nil)

// NewAnswerComposer compiles the answer prompt and returns the composer.
func NewAnswerComposer(deps ComposerDeps) (*AnswerComposer, error) {
	if deps.Model == nil {
		return nil, errors.New("answer composer requires a model")
	}

	tmpl, err := prompt.Parse("answer", deps.PromptTemplate, defaultAnswerPrompt)
	if err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &AnswerComposer{
		model:          deps.Model,
		normalizer:     deps.Normalizer,
		logger:         logger,
		includeHistory: deps.IncludeHistory,
		prompt:         tmpl,
	}, nil
}

// Compose calls the answer model once and returns its text unmodified.
func (c *AnswerComposer) Compose(ctx context.Context, query string, history []domain.ChatMessage, selected []domain.Article) (string, error) {
	if len(selected) == 0 {
		return "", errors.New("compose answer: no articles selected")
	}

	rendered, err := prompt.Render(c.prompt, buildAnswerData(query, selected, c.normalizer))
	if err != nil {
		return "", err
	}

	logging.FromContext(ctx, c.logger).Debug("composing answer", "articles", len(selected), "prompt_chars", len(rendered))

	answer, err := c.model.Generate(ctx, prompt.Conversation(rendered, history, c.includeHistory))
	if err != nil {
		if !errors.Is(err, domain.ErrModelUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
		}
		return "", fmt.Errorf("compose answer: %w", err)
	}
	return answer, nil
}
