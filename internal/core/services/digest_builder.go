package services

import (
	"fmt"
	"strings"

	"github.com/manthysbr/briefing/internal/core/domain"
)

const (
	DigestEmptyMessage = "There are no completed stories to report right now."
	DigestClosing      = "That's all for this briefing."
)

// JobLookup resolves a job snapshot by id.
type JobLookup interface {
	Get(id domain.JobID) (domain.Job, error)
}

// DigestResult is a stitched script and the ids that made it in.
type DigestResult struct {
	Script   string         `json:"script"`
	Included []domain.JobID `json:"included"`
}

// DigestBuilder stitches completed job outputs into one spoken-style script.
type DigestBuilder struct {
	jobs JobLookup
}

func NewDigestBuilder(jobs JobLookup) *DigestBuilder {
	return &DigestBuilder{jobs: jobs}
}

// Build walks ids in caller order. Missing and unfinished jobs are skipped.
func (b *DigestBuilder) Build(ids []domain.JobID) DigestResult {
	var parts []string
	included := make([]domain.JobID, 0, len(ids))

	for _, id := range ids {
		job, err := b.jobs.Get(id)
		if err != nil || job.Status != domain.JobStatusDone {
			continue
		}

		lead := "Next up, from %s: %s."
		if len(included) == 0 {
			lead = "Starting with %s: %s."
		}
		parts = append(parts, fmt.Sprintf(lead, orDefault(job.Source, "an unnamed source"), orDefault(job.Title, "Untitled")))
		if out := strings.TrimSpace(job.Output); out != "" {
			parts = append(parts, out)
		}
		included = append(included, id)
	}

	if len(included) == 0 {
		return DigestResult{Script: DigestEmptyMessage, Included: included}
	}
	parts = append(parts, DigestClosing)
	return DigestResult{Script: strings.Join(parts, " "), Included: included}
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s == "" {
		return fallback
	}
	return s
}
