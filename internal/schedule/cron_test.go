package schedule

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		pattern string
		value   int
		want    bool
	}{
		{"*", 0, true},
		{"*", 59, true},
		{"0", 0, true},
		{"0", 1, false},
		{"*/5", 0, true},
		{"*/5", 10, true},
		{"*/5", 3, false},
		{"*/15", 30, true},
		{"*/15", 7, false},
		{"1,5,10", 5, true},
		{"1,5,10", 3, false},
		{"30", 31, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.pattern, tt.value), func(t *testing.T) {
			assert.Equal(t, tt.want, matches(tt.pattern, tt.value))
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, expr := range []string{
		"",
		"* * * *",
		"* * * * * *",
		"60 * * * *",
		"* 24 * * *",
		"* * 0 * *",
		"* * * 13 *",
		"* * * * 7",
		"*/0 * * * *",
		"a * * * *",
		"1,,2 * * * *",
	} {
		_, err := Parse(expr)
		assert.Error(t, err, expr)
	}
}

func TestNext_Daily(t *testing.T) {
	s, err := Parse("0 9 * * *")
	require.NoError(t, err)

	next, ok := s.Next(time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC), next)

	next, ok = s.Next(time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC), next)
}

func TestNext_StrictlyAfter(t *testing.T) {
	s, err := Parse("*/30 * * * *")
	require.NoError(t, err)

	next, ok := s.Next(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 1, 10, 30, 0, 0, time.UTC), next)

	next, ok = s.Next(time.Date(2025, 1, 1, 10, 45, 10, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC), next)
}

func TestNext_WeekdayAndMonth(t *testing.T) {
	// Mondays at 07:15. 2025-01-01 is a Wednesday.
	s, err := Parse("15 7 * * 1")
	require.NoError(t, err)
	next, ok := s.Next(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 1, 6, 7, 15, 0, 0, time.UTC), next)

	// First of March.
	s, err = Parse("0 0 1 3 *")
	require.NoError(t, err)
	next, ok = s.Next(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), next)
}

func TestNext_Impossible(t *testing.T) {
	s, err := Parse("0 0 31 2 *")
	require.NoError(t, err)
	_, ok := s.Next(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}
