// Package jsonarray recovers JSON arrays of strings from free-form model output.
package jsonarray

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoArray is returned when no JSON array can be recovered from the input.
var ErrNoArray = errors.New("no JSON array found")

// fencePattern matches opening or closing markdown code fences with an optional language tag.
var fencePattern = regexp.MustCompile("```[A-Za-z0-9_-]*")

// Recovery strategies reported in Result.Strategy.
const (
	StrategyDirect   = "direct"
	StrategyWrapped  = "wrapped"
	StrategyEmbedded = "embedded"
)

// Result describes how the array was recovered.
type Result struct {
	Values   []string
	Strategy string
}

// ExtractStrings recovers a JSON array from text produced by a language model.
//
// Attempts, in order:
//  1. strip code fences and parse the remaining text as an array
//  2. when the text does not start with '[', wrap it in brackets and parse again
//  3. parse the first balanced [...] found inside surrounding prose
//
// Non-string elements are skipped. A structurally valid empty array is not an error.
func ExtractStrings(raw string) (Result, error) {
	cleaned := StripCodeFences(raw)
	if cleaned == "" {
		return Result{}, ErrNoArray
	}

	if values, ok := parseArray(cleaned); ok {
		return Result{Values: values, Strategy: StrategyDirect}, nil
	}

	if !strings.HasPrefix(cleaned, "[") {
		if values, ok := parseArray("[" + cleaned + "]"); ok {
			return Result{Values: values, Strategy: StrategyWrapped}, nil
		}
	}

	if start := strings.Index(cleaned, "["); start >= 0 {
		if candidate := matchingBracket(cleaned[start:]); candidate != "" {
			if values, ok := parseArray(candidate); ok {
				return Result{Values: values, Strategy: StrategyEmbedded}, nil
			}
		}
	}

	return Result{}, ErrNoArray
}

// StripCodeFences removes ``` markers (with or without a language tag) and trims the result.
func StripCodeFences(raw string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(raw, ""))
}

func parseArray(text string) ([]string, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, false
	}

	values := make([]string, 0, len(items))
	for _, item := range items {
		var s *string
		if err := json.Unmarshal(item, &s); err != nil || s == nil {
			continue
		}
		values = append(values, *s)
	}
	return values, true
}

// matchingBracket returns the balanced [...] prefix of s, honouring JSON strings.
func matchingBracket(s string) string {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}

	return ""
}
