package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"ArticlesChat/internal/domain"
)

// Parse compiles custom when it is set, otherwise def.
func Parse(name, custom, def string) (*template.Template, error) {
	text := def
	if strings.TrimSpace(custom) != "" {
		text = custom
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse %s prompt: %w", name, err)
	}
	return tmpl, nil
}

// Render executes tmpl with data.
func Render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", tmpl.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Preview cuts content to at most limit runes, marking the cut with "...".
func Preview(content string, limit int) string {
	content = strings.TrimSpace(content)
	if limit <= 0 || utf8.RuneCountInString(content) <= limit {
		return content
	}

	runes := []rune(content)
	return strings.TrimRightFunc(string(runes[:limit]), isSpace) + "..."
}

// Conversation puts the rendered prompt first and, when asked, the caller's history after it.
func Conversation(rendered string, history []domain.ChatMessage, includeHistory bool) []domain.ChatMessage {
	messages := []domain.ChatMessage{{Role: domain.RoleUser, Content: rendered}}
	if includeHistory {
		messages = append(messages, history...)
	}
	return messages
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
