package llm

import (
	"fmt"

	"github.com/manthysbr/briefing/internal/core/domain"
)

// summaryPrompt turns a length bound into an instruction for chat-style
// models, which cannot be held to an exact token window.
func summaryPrompt(text string, bound domain.LengthBound) string {
	return fmt.Sprintf(
		"Summarize the following news article in plain prose, between %d and %d words. "+
			"Reply with the summary only, without a heading or preamble.\n\n%s",
		bound.Min, bound.Max, text)
}

// outputTokenLimit leaves headroom above the word target since model tokens
// are smaller than words.
func outputTokenLimit(bound domain.LengthBound) int {
	return bound.Max * 2
}
