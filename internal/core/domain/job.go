package domain

import (
	"errors"
	"time"
)

type JobID string

type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusError      JobStatus = "error"
)

// Terminal reports whether the status is one of the final states.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusError
}

// Job is a tracked summarization request.
// Output stays empty while the job is processing; once terminal it holds the
// summary (done) or a human-readable failure message (error).
type Job struct {
	ID          JobID     `json:"id"`
	Status      JobStatus `json:"status"`
	Output      string    `json:"output"`
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	Mode        Mode      `json:"mode"`
	InputTokens int       `json:"input_tokens"`
	Stats       *RunStats `json:"stats,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// JobSummary is the listing view of a completed job.
type JobSummary struct {
	ID        JobID     `json:"id"`
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary returns the listing view of the job.
func (j Job) Summary() JobSummary {
	return JobSummary{
		ID:        j.ID,
		Title:     j.Title,
		Source:    j.Source,
		CreatedAt: j.CreatedAt,
	}
}

// SubmitRequest carries everything the caller supplies for a new job.
type SubmitRequest struct {
	Text   string `json:"text"`
	Mode   string `json:"mode"`
	Title  string `json:"title"`
	Source string `json:"source"`
}

// SubmitResult is returned synchronously by Submit.
// Input rejected by the length gate yields TooShort with the canned Output
// and no job id.
type SubmitResult struct {
	ID          JobID     `json:"id,omitempty"`
	Status      JobStatus `json:"status,omitempty"`
	TooShort    bool      `json:"too_short,omitempty"`
	Output      string    `json:"summary,omitempty"`
	InputTokens int       `json:"input_tokens"`
}

var (
	ErrJobNotFound = errors.New("job not found")
	ErrQueueFull   = errors.New("scheduling queue full")
)
