package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordTokenizer treats every whitespace-separated word as one token.
type wordTokenizer struct {
	mu    sync.Mutex
	vocab []string
	ids   map[string]int
	err   error
}

func newWordTokenizer() *wordTokenizer {
	return &wordTokenizer{ids: make(map[string]int)}
}

func (w *wordTokenizer) Encode(_ context.Context, text string) ([]int, error) {
	if w.err != nil {
		return nil, w.err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []int
	for _, word := range strings.Fields(text) {
		id, ok := w.ids[word]
		if !ok {
			id = len(w.vocab)
			w.vocab = append(w.vocab, word)
			w.ids[word] = id
		}
		out = append(out, id)
	}
	return out, nil
}

func (w *wordTokenizer) Decode(_ context.Context, ids []int) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	words := make([]string, 0, len(ids))
	for _, id := range ids {
		if id < 0 || id >= len(w.vocab) {
			return "", fmt.Errorf("unknown token %d", id)
		}
		words = append(words, w.vocab[id])
	}
	return strings.Join(words, " "), nil
}

// paragraph builds a paragraph of n distinct words tagged with prefix.
func paragraph(prefix string, n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(words, " ")
}

func TestChunker_GroupsParagraphs(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	c := NewChunker(logger, newWordTokenizer())

	text := strings.Join([]string{
		paragraph("a", 3), paragraph("b", 3), paragraph("c", 3), paragraph("d", 3),
	}, "\n\n")

	plan, err := c.Split(context.Background(), text, 7, 0, 8)
	require.NoError(t, err)
	require.Len(t, plan.Chunks, 2)
	assert.Equal(t, 0, plan.Dropped)

	assert.Equal(t, paragraph("a", 3)+"\n"+paragraph("b", 3), plan.Chunks[0].Text)
	assert.Equal(t, 6, plan.Chunks[0].Tokens)
	assert.Equal(t, paragraph("c", 3)+"\n"+paragraph("d", 3), plan.Chunks[1].Text)
	assert.Equal(t, 1, plan.Chunks[1].Index)
}

func TestChunker_SplitsOversizedParagraph(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	c := NewChunker(logger, newWordTokenizer())

	text := paragraph("s", 2) + "\n" + paragraph("w", 10)

	plan, err := c.Split(context.Background(), text, 4, 0, 8)
	require.NoError(t, err)
	require.Len(t, plan.Chunks, 4)

	sizes := []int{}
	for _, ch := range plan.Chunks {
		sizes = append(sizes, ch.Tokens)
		assert.LessOrEqual(t, ch.Tokens, 4)
	}
	assert.Equal(t, []int{2, 4, 4, 2}, sizes)
	assert.Equal(t, "w0 w1 w2 w3", plan.Chunks[1].Text)
	assert.Equal(t, "w8 w9", plan.Chunks[3].Text)
}

func TestChunker_PreservesOrder(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	c := NewChunker(logger, newWordTokenizer())

	text := strings.Join([]string{
		paragraph("p", 5), paragraph("q", 12), paragraph("r", 1), paragraph("s", 6),
	}, "\n")

	plan, err := c.Split(context.Background(), text, 5, 0, 0)
	require.NoError(t, err)

	var rejoined []string
	for _, ch := range plan.Chunks {
		rejoined = append(rejoined, strings.Fields(ch.Text)...)
	}
	assert.Equal(t, strings.Fields(text), rejoined)
}

func TestChunker_CapsChunkCount(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	c := NewChunker(logger, newWordTokenizer())

	paras := make([]string, 10)
	for i := range paras {
		paras[i] = paragraph(fmt.Sprintf("x%d_", i), 3)
	}

	plan, err := c.Split(context.Background(), strings.Join(paras, "\n"), 3, 0, 8)
	require.NoError(t, err)
	assert.Len(t, plan.Chunks, 8)
	assert.Equal(t, 2, plan.Dropped)
	assert.Equal(t, paras[7], plan.Chunks[7].Text)
}

func TestChunker_CeilingClampsTarget(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	c := NewChunker(logger, newWordTokenizer())

	plan, err := c.Split(context.Background(), paragraph("w", 10), 100, 4, 8)
	require.NoError(t, err)
	assert.Len(t, plan.Chunks, 3)
	for _, ch := range plan.Chunks {
		assert.LessOrEqual(t, ch.Tokens, 4)
	}
}

func TestChunker_EmptyAndInvalid(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	c := NewChunker(logger, newWordTokenizer())

	plan, err := c.Split(context.Background(), "\n \n\n", 10, 0, 8)
	require.NoError(t, err)
	assert.Empty(t, plan.Chunks)

	_, err = c.Split(context.Background(), "text", 0, 0, 8)
	assert.Error(t, err)
}

func TestChunker_TokenizerError(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	tok := newWordTokenizer()
	tok.err = errors.New("tokenizer offline")
	c := NewChunker(logger, tok)

	_, err := c.Split(context.Background(), "some text", 10, 0, 8)
	assert.ErrorIs(t, err, tok.err)
}

func TestParagraphs(t *testing.T) {
	got := Paragraphs("  first  \r\n\r\n\nsecond\n   \nthird")
	assert.Equal(t, []string{"first", "second", "third"}, got)
	assert.Empty(t, Paragraphs(""))
}
