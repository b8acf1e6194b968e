package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"ArticlesChat/internal/config"
	"ArticlesChat/internal/domain"
	"ArticlesChat/internal/ports"
)

// contentGenerator is the slice of llms.Model the client relies on.
type contentGenerator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// ChatGPTClient implements ports.ChatModel backed by OpenAI-compatible APIs.
type ChatGPTClient struct {
	model        string
	temperature  float64
	maxTokens    int
	timeout      time.Duration
	systemPrompt string
	llm          contentGenerator
}

var _ ports.ChatModel = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client for one pipeline stage from configuration.
func NewChatGPTClient(cfg config.ModelConfig) (*ChatGPTClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" || cfg.Model == "" {
		return nil, fmt.Errorf("chatgpt client misconfigured: api key and model are required")
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("new openai client: %w", err)
	}

	return newChatGPTClient(cfg, client), nil
}

func newChatGPTClient(cfg config.ModelConfig, generator contentGenerator) *ChatGPTClient {
	return &ChatGPTClient{
		model:        cfg.Model,
		temperature:  cfg.TemperatureValue(),
		maxTokens:    cfg.MaxTokens,
		timeout:      cfg.Timeout,
		systemPrompt: strings.TrimSpace(cfg.SystemPrompt),
		llm:          generator,
	}
}

// Model returns the configured model name.
func (c *ChatGPTClient) Model() string {
	return c.model
}

// Generate sends the conversation and returns the first choice's text unmodified.
// Failures, timeouts and empty completions are reported as domain.ErrModelUnavailable.
func (c *ChatGPTClient) Generate(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	if c == nil || c.llm == nil {
		return "", fmt.Errorf("%w: chatgpt client is nil", domain.ErrModelUnavailable)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	opts := []llms.CallOption{llms.WithTemperature(c.temperature)}
	if c.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.maxTokens))
	}

	resp, err := c.llm.GenerateContent(ctx, toMessageContent(c.systemPrompt, messages), opts...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s timed out after %s", domain.ErrModelUnavailable, c.model, c.timeout)
		}
		return "", fmt.Errorf("%w: %s: %v", domain.ErrModelUnavailable, c.model, err)
	}

	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return "", fmt.Errorf("%w: %s returned no content", domain.ErrModelUnavailable, c.model)
	}

	return resp.Choices[0].Content, nil
}

// toMessageContent prepends the configured system prompt and maps roles onto langchaingo types.
func toMessageContent(systemPrompt string, messages []domain.ChatMessage) []llms.MessageContent {
	result := make([]llms.MessageContent, 0, len(messages)+1)
	if systemPrompt != "" {
		result = append(result, textMessage(schema.ChatMessageTypeSystem, systemPrompt))
	}

	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleSystem:
			result = append(result, textMessage(schema.ChatMessageTypeSystem, msg.Content))
		case domain.RoleAssistant:
			result = append(result, textMessage(schema.ChatMessageTypeAI, msg.Content))
		default:
			result = append(result, textMessage(schema.ChatMessageTypeHuman, msg.Content))
		}
	}
	return result
}

func textMessage(role schema.ChatMessageType, text string) llms.MessageContent {
	return llms.MessageContent{
		Role:  role,
		Parts: []llms.ContentPart{llms.TextPart(text)},
	}
}
