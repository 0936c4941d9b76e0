package services

import (
	"strings"
	"unicode/utf8"
)

// Cleaner removes generation artifacts from the tail of engine output and
// makes sure the text ends on a sentence boundary.
type Cleaner struct {
	// Markers are substrings that signal degenerate output near the end.
	Markers []string
	// TailWindow is how many trailing characters are scanned for Markers.
	TailWindow int
	// FragmentThreshold is the remainder length above which an unterminated
	// final clause is kept and closed with a period.
	FragmentThreshold int
}

// DefaultCleaner carries the markers observed on t5-base output.
var DefaultCleaner = Cleaner{
	Markers:           []string{"versiune", "»", "gra-", "pro bonie"},
	TailWindow:        50,
	FragmentThreshold: 20,
}

// Clean is idempotent: Clean(Clean(x)) == Clean(x). The result is empty or
// ends in '.', '!' or '?'.
func (c Cleaner) Clean(text string) string {
	out := strings.TrimSpace(text)
	// Every pass either keeps the text or shortens it, except the first which
	// may append a period, so the loop settles.
	for {
		next := c.pass(out)
		if next == out {
			return out
		}
		out = next
	}
}

func (c Cleaner) pass(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if cut, ok := c.cutAtMarker(text); ok {
		return cut
	}

	if isTerminal(text[len(text)-1]) {
		return text
	}

	last := lastTerminal(text)
	if last == -1 {
		return text + "."
	}

	remainder := strings.TrimSpace(text[last+1:])
	if strings.Contains(remainder, "(") && !strings.Contains(remainder, ")") {
		return text[:last+1]
	}
	if utf8.RuneCountInString(remainder) > c.FragmentThreshold {
		return text + "."
	}
	return text[:last+1]
}

// cutAtMarker truncates to the last terminal mark before the earliest marker
// found in the tail window.
func (c Cleaner) cutAtMarker(text string) (string, bool) {
	tailStart := tailOffset(text, c.TailWindow)
	tail := text[tailStart:]

	pos := -1
	for _, m := range c.Markers {
		if m == "" {
			continue
		}
		if i := strings.Index(tail, m); i != -1 && (pos == -1 || tailStart+i < pos) {
			pos = tailStart + i
		}
	}
	if pos == -1 {
		return "", false
	}

	last := lastTerminal(text[:pos])
	if last == -1 {
		return "", false
	}
	return text[:last+1], true
}

// tailOffset returns the byte offset where the last n runes begin.
func tailOffset(text string, n int) int {
	if n <= 0 {
		return len(text)
	}
	off := len(text)
	for i := 0; i < n && off > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:off])
		off -= size
	}
	return off
}

func isTerminal(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func lastTerminal(text string) int {
	return strings.LastIndexAny(text, ".!?")
}
