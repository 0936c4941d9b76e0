package ports

import (
	"context"
	"time"

	"github.com/manthysbr/briefing/internal/core/domain"
)

// Tokenizer measures and splits text in the generation engine's token units.
// It must be the tokenizer the engine was trained with.
type Tokenizer interface {
	// Encode converts text to token ids.
	Encode(ctx context.Context, text string) ([]int, error)

	// Decode converts token ids back to text.
	Decode(ctx context.Context, ids []int) (string, error)
}

// Generator abstracts the text generation engine.
type Generator interface {
	// Generate summarizes text, targeting an output length within bound.
	Generate(ctx context.Context, text string, bound domain.LengthBound) (string, error)
}

// JobStore owns the job table. Implementations must hand out copies so a
// reader never observes a record mid-write.
type JobStore interface {
	// Insert adds a new job. It fails if the id already exists.
	Insert(job domain.Job) error

	// Get returns a snapshot of the job.
	Get(id domain.JobID) (domain.Job, error)

	// Finish records the single terminal transition of a job.
	// It returns false if the job is gone or already terminal.
	Finish(id domain.JobID, status domain.JobStatus, output string, stats *domain.RunStats, at time.Time) bool

	// Delete removes the job.
	Delete(id domain.JobID) error

	// List returns snapshots of every retained job, oldest first.
	List() []domain.Job

	// Prune removes terminal jobs last updated before cutoff and returns how
	// many went.
	Prune(cutoff time.Time) int
}
