package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractObject parses a JSON object out of untrusted completion text and
// unmarshals it into v.
//
// It tries a direct parse first, then falls back to the first brace-balanced
// {...} block in the text (models often wrap JSON in prose or code fences).
// It returns an error only when no parseable object can be found; callers
// are expected to substitute their own default record in that case.
func ExtractObject(text string, v interface{}) error {
	trimmed := strings.TrimSpace(text)

	// Strip a markdown code fence if the whole response is fenced.
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}

	if err := json.Unmarshal([]byte(trimmed), v); err == nil {
		return nil
	}

	block, ok := firstObject(trimmed)
	if !ok {
		return fmt.Errorf("no JSON object found in completion")
	}
	if err := json.Unmarshal([]byte(block), v); err != nil {
		return fmt.Errorf("extracted block is not valid JSON: %w", err)
	}
	return nil
}

// firstObject returns the first brace-balanced {...} block in text,
// ignoring braces inside JSON string literals.
func firstObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
