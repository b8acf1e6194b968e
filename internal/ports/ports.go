package ports

import (
	"context"
	"time"

	"ArticlesChat/internal/domain"
)

// ArticleStore loads the full corpus from durable storage on every call.
type ArticleStore interface {
	Load(ctx context.Context) ([]domain.Article, error)
}

// ChatModel sends role-tagged messages to a text-generation service and returns its raw text.
type ChatModel interface {
	Generate(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

// Selector narrows the corpus to the titles relevant to a query.
type Selector interface {
	Select(ctx context.Context, query string, history []domain.ChatMessage, corpus []domain.Article) []string
}

// Composer writes an answer grounded in the selected articles.
type Composer interface {
	Compose(ctx context.Context, query string, history []domain.ChatMessage, selected []domain.Article) (string, error)
}

// TextNormalizer turns stored article bodies into prompt-ready text.
type TextNormalizer interface {
	PlainText(content string) string
}

// PipelineObserver receives pipeline telemetry (Prometheus in production).
type PipelineObserver interface {
	RequestFinished(outcome domain.ErrorKind, fallback bool, elapsed time.Duration)
	ModelCall(stage string, elapsed time.Duration, err error)
	RankerDegraded(reason string)
}
