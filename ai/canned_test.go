package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCannedTriggers(t *testing.T) {
	tests := []struct {
		prompt string
		want   string
	}{
		{prompt: "سلام", want: cannedReplies[0].reply},
		{prompt: "سلام، چطوری؟", want: cannedReplies[0].reply},
		{prompt: "خداحافظ دوست من", want: cannedReplies[2].reply},
		{prompt: "خیلی تشکر", want: cannedReplies[3].reply},
		{prompt: "HELP me", want: cannedReplies[4].reply},
	}
	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			assert.Equal(t, tt.want, Canned(tt.prompt))
		})
	}
}

func TestCannedGenericIsDeterministic(t *testing.T) {
	prompts := []string{"", "یک سوال عجیب", "what is the meaning of life", "۱۲۳"}
	for _, p := range prompts {
		first := Canned(p)
		assert.Contains(t, genericReplies, first, p)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Canned(p), p)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "سلا", truncateRunes("سلام", 3))
	assert.Equal(t, "", truncateRunes("abc", 0))
}
