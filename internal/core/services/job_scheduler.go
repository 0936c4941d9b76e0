package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/manthysbr/briefing/internal/core/domain"
	"golang.org/x/sync/semaphore"
)

// SchedulerConfig defines concurrency limits
type SchedulerConfig struct {
	MaxConcurrentJobs int64
	QueueSize         int
}

// JobHandler runs one job to completion.
type JobHandler func(context.Context, domain.Job)

type JobScheduler struct {
	logger       *slog.Logger
	pendingQueue chan domain.Job
	semaphore    *semaphore.Weighted
	running      sync.WaitGroup
	stopped      chan struct{}
}

func NewJobScheduler(logger *slog.Logger, cfg SchedulerConfig) *JobScheduler {
	limit := cfg.MaxConcurrentJobs
	if limit <= 0 {
		limit = 2
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = 100
	}

	return &JobScheduler{
		logger:       logger,
		pendingQueue: make(chan domain.Job, size),
		semaphore:    semaphore.NewWeighted(limit),
		stopped:      make(chan struct{}),
	}
}

// SubmitJob adds a job to the scheduling queue without blocking.
func (s *JobScheduler) SubmitJob(ctx context.Context, job domain.Job) error {
	select {
	case s.pendingQueue <- job:
		s.logger.Debug("job queued", "job_id", job.ID)
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Start consumes the queue, running at most MaxConcurrentJobs handlers at a
// time. When ctx ends, jobs still queued are handed to handler with the
// cancelled context so they reach a terminal state.
func (s *JobScheduler) Start(ctx context.Context, handler JobHandler) {
	s.logger.Info("starting job scheduler")

	go func() {
		defer close(s.stopped)
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("stopping scheduler")
				s.drain(ctx, handler)
				return
			case job := <-s.pendingQueue:
				if err := s.semaphore.Acquire(ctx, 1); err != nil {
					handler(ctx, job)
					s.drain(ctx, handler)
					return
				}

				s.running.Add(1)
				go func(j domain.Job) {
					defer s.running.Done()
					defer s.semaphore.Release(1)
					handler(ctx, j)
				}(job)
			}
		}
	}()
}

// Wait blocks until the context given to Start is done, the queue is drained
// and every started handler has returned.
func (s *JobScheduler) Wait() {
	<-s.stopped
	s.running.Wait()
}

func (s *JobScheduler) drain(ctx context.Context, handler JobHandler) {
	for {
		select {
		case job := <-s.pendingQueue:
			handler(ctx, job)
		default:
			return
		}
	}
}
