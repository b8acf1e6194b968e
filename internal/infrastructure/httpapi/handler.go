package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"ArticlesChat/internal/domain"
	"ArticlesChat/internal/logging"
	"ArticlesChat/internal/usecase"
)

// ChatService is the slice of the pipeline the HTTP layer drives.
type ChatService interface {
	Chat(ctx context.Context, history []domain.ChatMessage) (usecase.Reply, error)
	Articles(ctx context.Context) ([]domain.Article, error)
}

type chatRequest struct {
	Messages []domain.ChatMessage `json:"messages"`
}

type errorResponse struct {
	Error             string   `json:"error"`
	ArticlesAvailable []string `json:"articlesAvailable,omitempty"`
}

type articlesResponse struct {
	Articles []domain.Article `json:"articles"`
}

// Handler serves the chat API.
type Handler struct {
	service ChatService
	logger  *slog.Logger
}

// NewHandler builds the HTTP handler around the chat service.
func NewHandler(service ChatService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{service: service, logger: logger}
}

// Chat answers a conversation.
// (POST /api/chat)
func (h *Handler) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(c.Request().Context(), h.logger).Warn("chat request undecodable", "error", err)
		return c.JSON(http.StatusBadRequest, errorResponse{Error: messageFor(domain.KindInvalidRequest)})
	}

	reply, err := h.service.Chat(c.Request().Context(), req.Messages)
	if err != nil {
		return writeError(c, err)
	}

	if reply.FetchAll {
		return c.JSON(http.StatusOK, articlesResponse{Articles: reply.Articles})
	}
	return c.JSON(http.StatusOK, reply.Result)
}

// Articles lists the corpus.
// (GET /api/articles)
func (h *Handler) Articles(c echo.Context) error {
	articles, err := h.service.Articles(c.Request().Context())
	if err != nil {
		logging.FromContext(c.Request().Context(), h.logger).Error("list articles failed",
			"error_kind", string(domain.Kind(err)),
			"error", err,
		)
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, articlesResponse{Articles: articles})
}

// Ping reports that the API is reachable.
// (GET /api/test)
func (h *Handler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "API route is working!"})
}

// Echo returns the posted JSON document.
// (POST /api/test)
func (h *Handler) Echo(c echo.Context) error {
	var data any
	if err := (&echo.DefaultBinder{}).BindBody(c, &data); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: messageFor(domain.KindInvalidRequest)})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message":      "POST endpoint is working!",
		"receivedData": data,
	})
}

// Health reports liveness.
// (GET /healthz)
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(c echo.Context, err error) error {
	kind := domain.Kind(err)
	body := errorResponse{Error: messageFor(kind)}

	var noMatch *domain.NoRelevantArticlesError
	if errors.As(err, &noMatch) {
		body.ArticlesAvailable = noMatch.Available
	}
	return c.JSON(statusFor(kind), body)
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidRequest:
		return http.StatusBadRequest
	case domain.KindDataUnavailable, domain.KindEmptyCorpus:
		return http.StatusNotFound
	case domain.KindModelUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(kind domain.ErrorKind) string {
	switch kind {
	case domain.KindInvalidRequest:
		return "Invalid request: send a JSON body with a non-empty messages list."
	case domain.KindDataUnavailable:
		return "Articles data not found."
	case domain.KindEmptyCorpus:
		return "No valid articles found."
	case domain.KindDataCorrupt:
		return "Failed to load articles. Please check JSON structure."
	case domain.KindModelUnavailable:
		return "The language model is unavailable. Please try again later."
	case domain.KindNoRelevantArticles:
		return "No relevant articles found."
	default:
		return "Internal server error."
	}
}
