package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleaner_Clean(t *testing.T) {
	c := DefaultCleaner

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already terminated", "The council approved the budget.", "The council approved the budget."},
		{"short fragment dropped", "The cat sat. The dog ran", "The cat sat."},
		{"long fragment closed", "The cat sat. The dog ran across the whole field", "The cat sat. The dog ran across the whole field."},
		{"no sentence mark", "hello world", "hello world."},
		{"unbalanced paren", "First part. Second part (with more words than twenty", "First part."},
		{"marker in tail", "Summary sentence. More text here versiune bad", "Summary sentence."},
		{"multibyte marker", "Good news today. Then the quote » trailing", "Good news today."},
		{"exclamation", "Wow! amazing", "Wow!"},
		{"blank", "   \n ", ""},
		{"surrounding space", "  Done.  ", "Done."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Clean(tt.in))
		})
	}
}

func TestCleaner_MarkerOutsideTailIgnored(t *testing.T) {
	c := DefaultCleaner
	in := "A versiune begins here. " + strings.Repeat("and then the story continues ", 3) + "to the end."
	assert.Equal(t, in, c.Clean(in))
}

func TestCleaner_Idempotent(t *testing.T) {
	c := DefaultCleaner
	inputs := []string{
		"The cat sat. The dog ran",
		"no punctuation at all in this rather long output from the engine",
		"First. Second (open",
		"One. Two. pro bonie three. gra- four",
		"Quote » here. And » there",
		"!",
		"",
		"Ends well?",
	}

	for _, in := range inputs {
		once := c.Clean(in)
		assert.Equal(t, once, c.Clean(once), "input %q", in)
		if once != "" {
			assert.Contains(t, ".!?", once[len(once)-1:], "input %q", in)
		}
	}
}
