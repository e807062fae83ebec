package llm

import "strings"

// FirstJSONObject extracts the first balanced JSON object from text.
// Models often wrap JSON in prose or markdown fences, so callers parse
// the returned span instead of the raw completion. Returns "" when no
// balanced object exists.
func FirstJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
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
				return text[start : i+1]
			}
		}
	}

	// Unbalanced; fall back to the widest brace span and let the JSON
	// parser produce the error.
	end := strings.LastIndexByte(text, '}')
	if end > start {
		return text[start : end+1]
	}
	return ""
}
