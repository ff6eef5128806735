package llm

import (
	"errors"
	"strings"
)

var errNoJSONObject = errors.New("no JSON object in model output")

// extractJSONObject returns the first balanced {...} in s. Models often wrap
// JSON in code fences or add a sentence before it.
func extractJSONObject(s string) (string, error) {
	s = stripCodeFence(s)

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", errNoJSONObject
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
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
				return s[start : i+1], nil
			}
		}
	}
	return "", errNoJSONObject
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop the language tag line, if any
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsRune(s[:nl], '{') {
		s = s[nl+1:]
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}
