package tokenizer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/manthysbr/briefing/internal/core/ports"
)

var lexeme = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*|[^\s\p{L}\p{N}]`)

// DefaultVocabGeneration is the number of distinct lexemes a generation holds
// before the tokenizer rotates to a fresh one.
const DefaultVocabGeneration = 1 << 16

// LexicalTokenizer counts words and punctuation marks as tokens. It pairs
// with prompt-driven engines whose own tokenizers are not reachable, where a
// word-level measure is close enough for sizing chunks and bounds.
//
// Ids are assigned on first sight. The vocabulary keeps two generations: when
// the current one is full it becomes the previous one and the oldest is
// dropped, so memory stays bounded in a long-running process. An id decodes
// until two rotations have passed since it was issued.
type LexicalTokenizer struct {
	mu      sync.RWMutex
	genSize int

	prevBase int
	prev     []string
	curBase  int
	cur      []string
	ids      map[string]int
}

var _ ports.Tokenizer = (*LexicalTokenizer)(nil)

func NewLexicalTokenizer() *LexicalTokenizer {
	return newLexicalTokenizer(DefaultVocabGeneration)
}

func newLexicalTokenizer(genSize int) *LexicalTokenizer {
	if genSize < 1 {
		genSize = 1
	}
	return &LexicalTokenizer{genSize: genSize, ids: make(map[string]int)}
}

func (t *LexicalTokenizer) Encode(_ context.Context, text string) ([]int, error) {
	lexemes := lexeme.FindAllString(text, -1)
	out := make([]int, len(lexemes))

	t.mu.Lock()
	defer t.mu.Unlock()
	for i, lx := range lexemes {
		id, ok := t.ids[lx]
		if !ok {
			if len(t.cur) >= t.genSize {
				t.rotateLocked()
			}
			id = t.curBase + len(t.cur)
			t.cur = append(t.cur, lx)
			t.ids[lx] = id
		}
		out[i] = id
	}
	return out, nil
}

func (t *LexicalTokenizer) rotateLocked() {
	t.prevBase = t.curBase
	t.prev = t.cur
	t.curBase += len(t.cur)
	t.cur = make([]string, 0, t.genSize)
	t.ids = make(map[string]int, t.genSize)
}

func (t *LexicalTokenizer) Decode(_ context.Context, ids []int) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var b strings.Builder
	prev := ""
	for _, id := range ids {
		lx, ok := t.lookupLocked(id)
		if !ok {
			return "", fmt.Errorf("unknown token id %d", id)
		}
		if prev != "" && spaceBetween(prev, lx) {
			b.WriteByte(' ')
		}
		b.WriteString(lx)
		prev = lx
	}
	return b.String(), nil
}

func (t *LexicalTokenizer) lookupLocked(id int) (string, bool) {
	switch {
	case id >= t.curBase && id < t.curBase+len(t.cur):
		return t.cur[id-t.curBase], true
	case id >= t.prevBase && id < t.prevBase+len(t.prev):
		return t.prev[id-t.prevBase], true
	default:
		return "", false
	}
}

// VocabSize returns the number of lexemes currently held across both
// generations.
func (t *LexicalTokenizer) VocabSize() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.prev) + len(t.cur)
}

// spaceBetween decides whether a space separates two adjacent lexemes.
func spaceBetween(prev, next string) bool {
	first, _ := utf8.DecodeRuneInString(next)
	last, _ := utf8.DecodeLastRuneInString(prev)

	switch {
	case strings.ContainsRune(".,;:!?%)]}…-/", first):
		return false
	case strings.ContainsRune("([{$-/", last):
		return false
	default:
		return true
	}
}
