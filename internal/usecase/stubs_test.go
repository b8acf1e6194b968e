package usecase

import (
	"context"
	"sync"
	"time"

	"ArticlesChat/internal/domain"
)

type stubStore struct {
	articles []domain.Article
	err      error
	loads    int
}

func (s *stubStore) Load(context.Context) ([]domain.Article, error) {
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.Article(nil), s.articles...), nil
}

// scriptedModel replays responses in order and records every conversation it receives.
type scriptedModel struct {
	responses []string
	err       error
	calls     [][]domain.ChatMessage
}

func (m *scriptedModel) Generate(_ context.Context, messages []domain.ChatMessage) (string, error) {
	m.calls = append(m.calls, messages)
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", nil
	}
	out := m.responses[0]
	m.responses = m.responses[1:]
	return out, nil
}

type upperNormalizer struct{}

func (upperNormalizer) PlainText(content string) string {
	out := []rune(content)
	for i, r := range out {
		if r >= 'a' && r <= 'z' {
			out[i] = r - 'a' + 'A'
		}
	}
	return string(out)
}

type finishedRequest struct {
	kind     domain.ErrorKind
	fallback bool
}

type recordingObserver struct {
	mu       sync.Mutex
	finished []finishedRequest
	degraded []string
}

func (o *recordingObserver) RequestFinished(kind domain.ErrorKind, fallback bool, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, finishedRequest{kind: kind, fallback: fallback})
}

func (o *recordingObserver) ModelCall(string, time.Duration, error) {}

func (o *recordingObserver) RankerDegraded(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.degraded = append(o.degraded, reason)
}

func twoArticles() []domain.Article {
	return []domain.Article{
		{Title: "A", Content: "alpha body about solar panels"},
		{Title: "B", Content: "beta body about wind farms"},
	}
}

func userTurn(content string) []domain.ChatMessage {
	return []domain.ChatMessage{{Role: domain.RoleUser, Content: content}}
}
