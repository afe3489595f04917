package businessflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTagName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"AlreadyNormalized", "elevate-ai-1-completed", "elevate-ai-1-completed"},
		{"MixedCase", "Elevate-AI-1-Completed", "elevate-ai-1-completed"},
		{"Spaces", "elevate ai 1 completed", "elevate-ai-1-completed"},
		{"Underscores", "ELEVATE_AI_1_COMPLETED", "elevate-ai-1-completed"},
		{"Dots", "elevate.ai.1.completed", "elevate-ai-1-completed"},
		{"SlashesAndColons", "elevate/ai:1/completed", "elevate-ai-1-completed"},
		{"SurroundingWhitespace", "  Elevate-AI-1-Completed  ", "elevate-ai-1-completed"},
		{"RepeatedSeparators", "elevate--ai__1  completed", "elevate-ai-1-completed"},
		{"LeadingTrailingSeparators", "--elevate-ai-1-completed--", "elevate-ai-1-completed"},
		{"TabsAndNewlines", "elevate\tai\n1 completed", "elevate-ai-1-completed"},
		{"SeparatorsOnly", "--- ___", ""},
		{"Empty", "", ""},
		{"SingleWord", "Completed", "completed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeTagName(tt.input))
		})
	}
}

// Two spellings that normalize identically must produce the same dedup key.
func TestNormalizeTagNameEquivalence(t *testing.T) {
	variants := []string{
		"Elevate-AI-1-Completed",
		"elevate ai 1 completed",
		"ELEVATE_AI_1_COMPLETED",
		" elevate-ai-1-completed ",
		"elevate.AI.1.completed",
	}

	canonical := NormalizeTagName(variants[0])
	for _, v := range variants[1:] {
		assert.Equal(t, canonical, NormalizeTagName(v), "variant %q", v)
	}
}
