package service

import (
	"strings"
)

// ExtractJSON pulls the JSON object out of a model reply. It strips markdown
// code fences, keeps the text from the first '{' to the last '}', and closes
// brackets left open by a truncated reply. It returns "" when the reply has
// no object at all.
func ExtractJSON(text string) string {
	s := stripCodeFence(strings.TrimSpace(text))

	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	s = s[start:]
	if end := strings.LastIndex(s, "}"); end >= 0 && balanced(s[:end+1]) {
		return s[:end+1]
	}
	return FixJSON(s)
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.Index(s, "\n"); nl >= 0 {
		// Drop the language tag line, e.g. ```json
		s = s[nl+1:]
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

// balanced reports whether every bracket outside string literals is closed.
func balanced(s string) bool {
	return len(openBrackets(s)) == 0
}

// openBrackets returns the stack of brackets left open in s, ignoring
// brackets inside string literals.
func openBrackets(s string) []rune {
	var stack []rune
	inString := false
	escaped := false
	for _, char := range s {
		if escaped {
			escaped = false
			continue
		}
		switch {
		case char == '\\' && inString:
			escaped = true
		case char == '"':
			inString = !inString
		case inString:
		case char == '{' || char == '[':
			stack = append(stack, char)
		case char == '}' || char == ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if inString {
		stack = append(stack, '"')
	}
	return stack
}

// FixJSON closes a truncated JSON document: an unterminated string is closed,
// a dangling comma is dropped, and open brackets are closed innermost first.
func FixJSON(jsonStr string) string {
	if jsonStr == "" {
		return jsonStr
	}
	stack := openBrackets(jsonStr)
	if len(stack) == 0 {
		return jsonStr
	}

	var b strings.Builder
	b.WriteString(jsonStr)
	if stack[len(stack)-1] == '"' {
		b.WriteByte('"')
		stack = stack[:len(stack)-1]
	}
	fixed := strings.TrimRight(b.String(), " \t\r\n")
	fixed = strings.TrimSuffix(fixed, ",")
	b.Reset()
	b.WriteString(fixed)
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}
