package services

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/manthysbr/briefing/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJob(id string, at time.Time) domain.Job {
	return domain.Job{
		ID:        domain.JobID(id),
		Status:    domain.JobStatusProcessing,
		Title:     "title " + id,
		Source:    "source " + id,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestMemoryJobStore_Lifecycle(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	store := NewMemoryJobStore(logger, 0)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Insert(newJob("a", t0)))
	assert.Error(t, store.Insert(newJob("a", t0)), "duplicate ids are rejected")

	job, err := store.Get("a")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusProcessing, job.Status)
	assert.Empty(t, job.Output)

	stats := &domain.RunStats{InputTokens: 42, Chunks: 1}
	assert.True(t, store.Finish("a", domain.JobStatusDone, "Summary.", stats, t0.Add(time.Second)))

	// Terminal states are final.
	assert.False(t, store.Finish("a", domain.JobStatusError, "late", nil, t0.Add(2*time.Second)))

	job, err = store.Get("a")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusDone, job.Status)
	assert.Equal(t, "Summary.", job.Output)
	assert.Equal(t, 42, job.Stats.InputTokens)
	assert.Equal(t, t0.Add(time.Second), job.UpdatedAt)
}

func TestMemoryJobStore_DeleteAndLateFinish(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	store := NewMemoryJobStore(logger, 0)
	now := time.Now()

	require.NoError(t, store.Insert(newJob("a", now)))
	require.NoError(t, store.Delete("a"))

	assert.ErrorIs(t, store.Delete("a"), domain.ErrJobNotFound)
	_, err := store.Get("a")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)

	assert.False(t, store.Finish("a", domain.JobStatusDone, "ghost", nil, now))
	assert.Equal(t, 0, store.Len())
}

func TestMemoryJobStore_ListSortedByCreation(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	store := NewMemoryJobStore(logger, 0)
	t0 := time.Now()

	require.NoError(t, store.Insert(newJob("late", t0.Add(2*time.Second))))
	require.NoError(t, store.Insert(newJob("early", t0)))
	require.NoError(t, store.Insert(newJob("middle", t0.Add(time.Second))))

	var ids []domain.JobID
	for _, j := range store.List() {
		ids = append(ids, j.ID)
	}
	assert.Equal(t, []domain.JobID{"early", "middle", "late"}, ids)
}

func TestMemoryJobStore_EvictsOldestTerminal(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	store := NewMemoryJobStore(logger, 2)
	t0 := time.Now()

	require.NoError(t, store.Insert(newJob("running", t0)))
	require.NoError(t, store.Insert(newJob("old", t0.Add(time.Second))))
	store.Finish("old", domain.JobStatusDone, "x.", nil, t0)

	require.NoError(t, store.Insert(newJob("new", t0.Add(2*time.Second))))

	assert.Equal(t, 2, store.Len())
	_, err := store.Get("old")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	_, err = store.Get("running")
	assert.NoError(t, err, "processing jobs are never evicted")
}

func TestMemoryJobStore_NeverEvictsProcessing(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	store := NewMemoryJobStore(logger, 1)
	now := time.Now()

	require.NoError(t, store.Insert(newJob("a", now)))
	require.NoError(t, store.Insert(newJob("b", now)))
	assert.Equal(t, 2, store.Len())

	// Once one finishes it becomes the eviction candidate.
	store.Finish("a", domain.JobStatusDone, "x.", nil, now)
	assert.Equal(t, 1, store.Len())
	_, err := store.Get("b")
	assert.NoError(t, err)
}

func TestMemoryJobStore_Prune(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	store := NewMemoryJobStore(logger, 0)
	t0 := time.Now()

	require.NoError(t, store.Insert(newJob("stale", t0)))
	require.NoError(t, store.Insert(newJob("fresh", t0)))
	require.NoError(t, store.Insert(newJob("busy", t0)))
	store.Finish("stale", domain.JobStatusDone, "x.", nil, t0)
	store.Finish("fresh", domain.JobStatusError, "boom", nil, t0.Add(time.Hour))

	removed := store.Prune(t0.Add(time.Minute))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, store.Len())
	_, err := store.Get("stale")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}
