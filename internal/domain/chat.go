package domain

import (
	"fmt"
	"strings"
)

// Role tags a chat message author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn of the conversation history.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ValidateHistory checks the caller-supplied conversation: it must be non-empty,
// contain only user/assistant turns and at least one user turn.
func ValidateHistory(history []ChatMessage) error {
	if len(history) == 0 {
		return fmt.Errorf("%w: messages are required", ErrInvalidRequest)
	}

	hasUser := false
	for i, msg := range history {
		switch msg.Role {
		case RoleUser:
			hasUser = true
		case RoleAssistant:
		default:
			return fmt.Errorf("%w: message %d has unsupported role %q", ErrInvalidRequest, i, msg.Role)
		}
	}
	if !hasUser {
		return fmt.Errorf("%w: at least one user message is required", ErrInvalidRequest)
	}
	return nil
}

// LatestUserQuery returns the content of the most recent user message.
func LatestUserQuery(history []ChatMessage) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser {
			return strings.TrimSpace(history[i].Content)
		}
	}
	return ""
}

// PipelineResult is the envelope returned for a chat request.
type PipelineResult struct {
	Response          string    `json:"response"`
	References        []Article `json:"references"`
	ArticlesAvailable []string  `json:"articlesAvailable,omitempty"`
	Fallback          bool      `json:"-"`
}
