package businessflow

import (
	"strings"
	"unicode"
)

// NormalizeTagName maps the variable tag spellings emitted by the learning
// platform onto one canonical form: Unicode-aware lowercase, with runs of
// whitespace and separator punctuation (space, '_', '.', '/', ':', '-')
// collapsed to a single '-' and leading/trailing separators stripped.
// "Elevate-AI-1-Completed", " elevate ai 1 completed " and
// "elevate_ai_1_completed" all normalize to "elevate-ai-1-completed".
// Deterministic: equal inputs always yield equal outputs.
func NormalizeTagName(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		if isTagSeparator(r) {
			pendingSep = true
			continue
		}
		if pendingSep && b.Len() > 0 {
			b.WriteRune('-')
		}
		pendingSep = false
		b.WriteRune(r)
	}

	return b.String()
}

func isTagSeparator(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '-', '_', '.', '/', ':':
		return true
	}
	return false
}
