package llm

import (
	"strings"
	"unicode"
)

// TrimToSentence cuts text to at most budget runes, ending at the last period
// inside that window. When the window has no period the fragment is closed
// with one, so the result never exceeds budget+1 runes. A budget <= 0
// disables trimming.
func TrimToSentence(text string, budget int) string {
	if budget <= 0 {
		return text
	}

	runes := []rune(text)
	if len(runes) <= budget {
		return text
	}

	window := string(runes[:budget])
	if i := strings.LastIndexByte(window, '.'); i >= 0 {
		return window[:i+1]
	}
	return strings.TrimRightFunc(window, unicode.IsSpace) + "."
}

// cutToSentenceEnd drops a trailing partial sentence. Text without any
// sentence terminator is returned unchanged.
func cutToSentenceEnd(text string) string {
	i := strings.LastIndexAny(text, ".!?")
	if i < 0 {
		return text
	}
	return text[:i+1]
}

func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*#")
	s = strings.TrimSpace(s)
	if len(s) > len(titleMarker) && strings.EqualFold(s[:len(titleMarker)], titleMarker) {
		s = strings.TrimSpace(s[len(titleMarker):])
	}
	return strings.TrimSpace(strings.Trim(s, "\"'“”«»"))
}

func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		content = content[i+1:]
	} else {
		content = ""
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
