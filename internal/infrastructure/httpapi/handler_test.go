package httpapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArticlesChat/internal/domain"
	"ArticlesChat/internal/infrastructure/httpapi"
	"ArticlesChat/internal/logging"
	"ArticlesChat/internal/usecase"
)

type stubService struct {
	reply       usecase.Reply
	err         error
	articles    []domain.Article
	history     []domain.ChatMessage
	requestID   string
	articlesErr error
}

func (s *stubService) Chat(ctx context.Context, history []domain.ChatMessage) (usecase.Reply, error) {
	s.history = history
	s.requestID = logging.RequestID(ctx)
	return s.reply, s.err
}

func (s *stubService) Articles(context.Context) ([]domain.Article, error) {
	return s.articles, s.articlesErr
}

func doRequest(t *testing.T, service *stubService, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := httpapi.NewServer(httpapi.ServerDeps{
		Handler: httpapi.NewHandler(service, nil),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("metric 1\n"))
		}),
	})

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestChatSuccess(t *testing.T) {
	t.Parallel()

	service := &stubService{reply: usecase.Reply{Result: domain.PipelineResult{
		Response:   "Solar grew.",
		References: []domain.Article{{ID: "id-a", Title: "A", Content: "alpha"}},
	}}}

	rec := doRequest(t, service, http.MethodPost, "/api/chat",
		`{"messages":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"},{"role":"user","content":"solar?"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response":"Solar grew.","references":[{"id":"id-a","title":"A","content":"alpha"}]}`, rec.Body.String())

	require.Len(t, service.history, 3)
	assert.Equal(t, domain.RoleAssistant, service.history[1].Role)
	assert.Equal(t, "solar?", service.history[2].Content)

	assert.NotEmpty(t, service.requestID)
	assert.Equal(t, service.requestID, rec.Header().Get(echo.HeaderXRequestID))
}

func TestChatKeepsIncomingRequestID(t *testing.T) {
	t.Parallel()

	service := &stubService{reply: usecase.Reply{Result: domain.PipelineResult{References: []domain.Article{}}}}
	e := httpapi.NewServer(httpapi.ServerDeps{Handler: httpapi.NewHandler(service, nil)})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"messages":[{"role":"user","content":"q"}]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderXRequestID, "trace-7")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "trace-7", service.requestID)
}

func TestChatFallbackHasEmptyReferences(t *testing.T) {
	t.Parallel()

	service := &stubService{reply: usecase.Reply{Result: domain.PipelineResult{
		Response:   "No matching articles.",
		References: []domain.Article{},
		Fallback:   true,
	}}}

	rec := doRequest(t, service, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"tides?"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"response":"No matching articles.","references":[]}`, rec.Body.String())
}

func TestChatFetchAll(t *testing.T) {
	t.Parallel()

	service := &stubService{reply: usecase.Reply{
		FetchAll: true,
		Articles: []domain.Article{{ID: "1", Title: "A", Content: "alpha"}},
	}}

	rec := doRequest(t, service, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"fetch all articles"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"articles":[{"id":"1","title":"A","content":"alpha"}]}`, rec.Body.String())
}

func TestChatErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "invalid", err: fmt.Errorf("%w: messages are required", domain.ErrInvalidRequest), status: http.StatusBadRequest},
		{name: "missing corpus", err: fmt.Errorf("load corpus: %w: /srv/data/article.json", domain.ErrDataUnavailable), status: http.StatusNotFound},
		{name: "empty corpus", err: domain.ErrEmptyCorpus, status: http.StatusNotFound},
		{name: "corrupt", err: fmt.Errorf("%w: element 3 has no title", domain.ErrDataCorrupt), status: http.StatusInternalServerError},
		{name: "model", err: fmt.Errorf("%w: gpt-4o: 401 invalid api key sk-xxx", domain.ErrModelUnavailable), status: http.StatusBadGateway},
		{name: "unexpected", err: fmt.Errorf("boom at /internal/path"), status: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := doRequest(t, &stubService{err: tc.err}, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"q"}]}`)
			require.Equal(t, tc.status, rec.Code)

			body := decode(t, rec)
			msg, ok := body["error"].(string)
			require.True(t, ok)
			assert.NotEmpty(t, msg)
			assert.NotContains(t, msg, tc.err.Error(), "internal detail must not leak")
			assert.NotContains(t, body, "articlesAvailable")
		})
	}
}

func TestChatNoRelevantArticles(t *testing.T) {
	t.Parallel()

	service := &stubService{err: &domain.NoRelevantArticlesError{Available: []string{"A", "B"}}}
	rec := doRequest(t, service, http.MethodPost, "/api/chat", `{"messages":[{"role":"user","content":"q"}]}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"No relevant articles found.","articlesAvailable":["A","B"]}`, rec.Body.String())
}

func TestChatUndecodableBody(t *testing.T) {
	t.Parallel()

	service := &stubService{}
	rec := doRequest(t, service, http.MethodPost, "/api/chat", `{"messages":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, service.history)
}

func TestArticlesEndpoint(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, &stubService{articles: []domain.Article{{ID: "1", Title: "A", Content: "alpha", Topics: []string{"x"}}}},
		http.MethodGet, "/api/articles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"articles":[{"id":"1","title":"A","content":"alpha","topics":["x"]}]}`, rec.Body.String())

	rec = doRequest(t, &stubService{articlesErr: domain.ErrDataUnavailable}, http.MethodGet, "/api/articles", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTestEndpoints(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, &stubService{}, http.MethodGet, "/api/test", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"API route is working!"}`, rec.Body.String())

	rec = doRequest(t, &stubService{}, http.MethodPost, "/api/test", `{"ping":[1,2]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"POST endpoint is working!","receivedData":{"ping":[1,2]}}`, rec.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	rec := doRequest(t, &stubService{}, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = doRequest(t, &stubService{}, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "metric 1\n", rec.Body.String())
}
