package resilient

import "strings"

// ExtractJSON returns the span from the first '{' to the last '}' inclusive.
// Text without such a span is returned unchanged. Nothing is validated.
func ExtractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || start >= end {
		return text
	}
	return text[start : end+1]
}

// ExtractBalancedJSON returns the first balanced object starting at the first
// '{', skipping braces inside string literals. Prose containing braces after
// the object is left out. Without a balanced object it falls back to ExtractJSON.
func ExtractBalancedJSON(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return text
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
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
	return ExtractJSON(text)
}
