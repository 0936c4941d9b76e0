package services

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/manthysbr/briefing/internal/core/domain"
	"github.com/manthysbr/briefing/internal/core/ports"
)

// MemoryJobStore is the in-memory job table. Records are stored by value and
// copied out, so readers always get a whole record.
//
// Retention is bounded: when more than maxJobs are held, the oldest terminal
// jobs are evicted first. Processing jobs are never evicted.
type MemoryJobStore struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	jobs    map[domain.JobID]domain.Job
	order   []domain.JobID // insertion order, oldest first
	maxJobs int
}

var _ ports.JobStore = (*MemoryJobStore)(nil)

// NewMemoryJobStore creates a store holding at most maxJobs records.
// maxJobs <= 0 means unbounded.
func NewMemoryJobStore(logger *slog.Logger, maxJobs int) *MemoryJobStore {
	return &MemoryJobStore{
		logger:  logger,
		jobs:    make(map[domain.JobID]domain.Job),
		maxJobs: maxJobs,
	}
}

func (s *MemoryJobStore) Insert(job domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)
	s.evictLocked()
	return nil
}

func (s *MemoryJobStore) Get(id domain.JobID) (domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, domain.ErrJobNotFound
	}
	return job, nil
}

func (s *MemoryJobStore) Finish(id domain.JobID, status domain.JobStatus, output string, stats *domain.RunStats, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status.Terminal() {
		return false
	}
	job.Status = status
	job.Output = output
	job.Stats = stats
	job.UpdatedAt = at
	s.jobs[id] = job
	s.evictLocked()
	return true
}

func (s *MemoryJobStore) Delete(id domain.JobID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return domain.ErrJobNotFound
	}
	delete(s.jobs, id)
	s.removeOrderLocked(id)
	return nil
}

func (s *MemoryJobStore) List() []domain.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Job, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.jobs[id])
	}
	slices.SortStableFunc(out, func(a, b domain.Job) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

// Prune removes terminal jobs last updated before cutoff and returns how many
// were removed.
func (s *MemoryJobStore) Prune(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	kept := s.order[:0]
	for _, id := range s.order {
		job := s.jobs[id]
		if job.Status.Terminal() && job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed
}

// Len returns the number of retained jobs.
func (s *MemoryJobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// --- retention helpers (must be called with mu held) ---

func (s *MemoryJobStore) removeOrderLocked(id domain.JobID) {
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

func (s *MemoryJobStore) evictLocked() {
	if s.maxJobs <= 0 {
		return
	}
	for i := 0; len(s.jobs) > s.maxJobs && i < len(s.order); {
		id := s.order[i]
		if !s.jobs[id].Status.Terminal() {
			i++
			continue
		}
		delete(s.jobs, id)
		s.order = append(s.order[:i], s.order[i+1:]...)
		if s.logger != nil {
			s.logger.Debug("job evicted", "job_id", id)
		}
	}
}
