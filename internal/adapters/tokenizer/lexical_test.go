package tokenizer

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexicalTokenizer_Encode(t *testing.T) {
	tok := NewLexicalTokenizer()
	ctx := context.Background()

	ids, err := tok.Encode(ctx, "The cat sat, the cat.")
	require.NoError(t, err)
	// The cat sat , the cat .
	assert.Len(t, ids, 7)
	assert.Equal(t, ids[1], ids[5], "repeated lexemes share an id")
	assert.NotEqual(t, ids[0], ids[4], "case is significant")
	assert.Equal(t, 6, tok.VocabSize())
}

func TestLexicalTokenizer_RoundTrip(t *testing.T) {
	tok := NewLexicalTokenizer()
	ctx := context.Background()

	for _, in := range []string{
		"Hello, world.",
		"Prices rose 4% (the most since 2019).",
		"A well-known and/or rarely-cited source said: yes!",
		"São Paulo's mayor didn't comment.",
	} {
		ids, err := tok.Encode(ctx, in)
		require.NoError(t, err)
		out, err := tok.Decode(ctx, ids)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestLexicalTokenizer_DecodeSlice(t *testing.T) {
	tok := NewLexicalTokenizer()
	ctx := context.Background()

	ids, err := tok.Encode(ctx, "one two three four")
	require.NoError(t, err)

	out, err := tok.Decode(ctx, ids[1:3])
	require.NoError(t, err)
	assert.Equal(t, "two three", out)

	_, err = tok.Decode(ctx, []int{99})
	assert.Error(t, err)
}

func TestLexicalTokenizer_Concurrent(t *testing.T) {
	tok := NewLexicalTokenizer()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids, err := tok.Encode(ctx, "alpha beta gamma delta")
			assert.NoError(t, err)
			out, err := tok.Decode(ctx, ids)
			assert.NoError(t, err)
			assert.Equal(t, "alpha beta gamma delta", out)
		}()
	}
	wg.Wait()
	assert.Equal(t, 4, tok.VocabSize())
}

func TestLexicalTokenizer_VocabStaysBounded(t *testing.T) {
	tok := newLexicalTokenizer(16)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		in := fmt.Sprintf("story %d from wire%d at desk %d", i, i*7, i%24)
		ids, err := tok.Encode(ctx, in)
		require.NoError(t, err)

		out, err := tok.Decode(ctx, ids)
		require.NoError(t, err)
		assert.Equal(t, in, out)

		assert.LessOrEqual(t, tok.VocabSize(), 32)
	}
}

func TestLexicalTokenizer_ExpiredIDs(t *testing.T) {
	tok := newLexicalTokenizer(4)
	ctx := context.Background()

	old, err := tok.Encode(ctx, "alpha")
	require.NoError(t, err)

	// Two full generations push "alpha" out.
	_, err = tok.Encode(ctx, "b c d e f g h i j")
	require.NoError(t, err)

	_, err = tok.Decode(ctx, old)
	assert.Error(t, err)

	ids, err := tok.Encode(ctx, "alpha")
	require.NoError(t, err)
	assert.NotEqual(t, old, ids, "a re-seen lexeme gets a fresh id")

	out, err := tok.Decode(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, "alpha", out)
}

func TestLexicalTokenizer_RotationMidText(t *testing.T) {
	tok := newLexicalTokenizer(3)
	ctx := context.Background()

	in := "one two three four five"
	ids, err := tok.Encode(ctx, in)
	require.NoError(t, err)

	// The first three ids live in the previous generation now.
	out, err := tok.Decode(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
