package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/manthysbr/briefing/internal/core/domain"
	"github.com/manthysbr/briefing/internal/core/ports"
)

// ShortTextMessage is the canned result for input under the length gate.
const ShortTextMessage = "The article is too short to generate a meaningful summary."

// JobDeletedMessage is the last log event of a deleted job.
const JobDeletedMessage = "job deleted"

// Summarizer is the part of SummaryPipeline the manager depends on.
type Summarizer interface {
	CountTokens(ctx context.Context, text string) (int, error)
	RunWithProgress(ctx context.Context, text string, mode domain.Mode, progress ProgressFunc) (domain.Summary, error)
}

type ManagerConfig struct {
	MinInputChars int
	JobTimeout    time.Duration
	RetainFor     time.Duration
	ReapInterval  time.Duration
}

// run is the in-flight state of one job: its input and, once started, the
// cancel func of its execution context.
type run struct {
	text   string
	cancel context.CancelFunc
}

// JobManager owns the job table and drives each submitted job through the
// scheduler to exactly one terminal record.
type JobManager struct {
	logger    *slog.Logger
	store     ports.JobStore
	scheduler *JobScheduler
	eventBus  *EventBus
	digest    *DigestBuilder
	cfg       ManagerConfig
	now       func() time.Time

	pipelineMu sync.RWMutex
	pipeline   Summarizer

	runsMu sync.Mutex
	runs   map[domain.JobID]*run
}

func NewJobManager(
	logger *slog.Logger,
	store ports.JobStore,
	scheduler *JobScheduler,
	eventBus *EventBus,
	pipeline Summarizer,
	cfg ManagerConfig,
) *JobManager {
	return &JobManager{
		logger:    logger,
		store:     store,
		scheduler: scheduler,
		eventBus:  eventBus,
		digest:    NewDigestBuilder(store),
		cfg:       cfg,
		now:       time.Now,
		pipeline:  pipeline,
		runs:      make(map[domain.JobID]*run),
	}
}

// Run starts the scheduler and, when a retention TTL is set, the reaper. It
// blocks until ctx is done and every job has reached a terminal state.
func (m *JobManager) Run(ctx context.Context) error {
	m.scheduler.Start(ctx, m.execute)

	var tick <-chan time.Time
	if m.cfg.RetainFor > 0 {
		interval := m.cfg.ReapInterval
		if interval <= 0 {
			interval = time.Minute
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			m.scheduler.Wait()
			m.logger.Info("job manager stopped")
			return nil
		case <-tick:
			if n := m.store.Prune(m.now().Add(-m.cfg.RetainFor)); n > 0 {
				m.logger.Debug("pruned expired jobs", "count", n)
			}
		}
	}
}

// UpdatePipeline hot-swaps the summarizer used by jobs started from now on.
func (m *JobManager) UpdatePipeline(p Summarizer) {
	m.pipelineMu.Lock()
	defer m.pipelineMu.Unlock()
	m.pipeline = p
	m.logger.Info("summarization engine hot-reloaded")
}

func (m *JobManager) currentPipeline() Summarizer {
	m.pipelineMu.RLock()
	defer m.pipelineMu.RUnlock()
	return m.pipeline
}

// Submit validates the request and queues a new job. Input under the minimum
// length yields a TooShort result and no job; it is never sent to the engine,
// not even to be counted.
func (m *JobManager) Submit(ctx context.Context, req domain.SubmitRequest) (domain.SubmitResult, error) {
	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		return domain.SubmitResult{}, err
	}

	if utf8.RuneCountInString(strings.TrimSpace(req.Text)) < m.cfg.MinInputChars {
		return domain.SubmitResult{
			TooShort: true,
			Output:   ShortTextMessage,
		}, nil
	}

	tokens := 0
	if pipeline := m.currentPipeline(); pipeline != nil {
		if n, err := pipeline.CountTokens(ctx, req.Text); err != nil {
			m.logger.Warn("token count failed", "error", err)
		} else {
			tokens = n
		}
	}

	now := m.now()
	job := domain.Job{
		ID:          domain.JobID(uuid.New().String()),
		Status:      domain.JobStatusProcessing,
		Title:       req.Title,
		Source:      req.Source,
		Mode:        mode,
		InputTokens: tokens,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := m.store.Insert(job); err != nil {
		return domain.SubmitResult{}, fmt.Errorf("failed to save job: %w", err)
	}

	m.runsMu.Lock()
	m.runs[job.ID] = &run{text: req.Text}
	m.runsMu.Unlock()

	if err := m.scheduler.SubmitJob(ctx, job); err != nil {
		m.forget(job.ID)
		_ = m.store.Delete(job.ID)
		return domain.SubmitResult{}, err
	}

	m.logger.Info("job submitted", "job_id", job.ID, "mode", mode, "tokens", tokens)
	m.eventBus.PublishStatus(job.ID, domain.JobStatusProcessing, 0)

	return domain.SubmitResult{
		ID:          job.ID,
		Status:      job.Status,
		InputTokens: tokens,
	}, nil
}

// Status returns a snapshot of the job.
func (m *JobManager) Status(id domain.JobID) (domain.Job, error) {
	return m.store.Get(id)
}

// Delete removes the job and cancels its execution if one is in flight.
// Event subscribers get a final log line and their streams are closed.
func (m *JobManager) Delete(id domain.JobID) error {
	if err := m.store.Delete(id); err != nil {
		return err
	}
	if r := m.forget(id); r != nil && r.cancel != nil {
		r.cancel()
		m.logger.Warn("job cancelled", "job_id", id)
	}
	m.eventBus.PublishLog(id, JobDeletedMessage)
	m.eventBus.Close(id)
	return nil
}

// ListCompleted returns every done job, oldest first.
func (m *JobManager) ListCompleted() []domain.JobSummary {
	var out []domain.JobSummary
	for _, job := range m.store.List() {
		if job.Status == domain.JobStatusDone {
			out = append(out, job.Summary())
		}
	}
	return out
}

// ListAll returns every retained job in creation order.
func (m *JobManager) ListAll() []domain.Job {
	return m.store.List()
}

// Digest stitches the outputs of the given jobs into one script.
func (m *JobManager) Digest(ids []domain.JobID) DigestResult {
	return m.digest.Build(ids)
}

// execute is the callback for the scheduler.
func (m *JobManager) execute(ctx context.Context, job domain.Job) {
	jobCtx, cancel := m.jobContext(ctx)
	defer cancel()

	m.runsMu.Lock()
	r, ok := m.runs[job.ID]
	if ok {
		r.cancel = cancel
	}
	m.runsMu.Unlock()
	if !ok {
		m.logger.Debug("job deleted before start", "job_id", job.ID)
		return
	}
	defer m.forget(job.ID)

	defer func() {
		if rec := recover(); rec != nil {
			m.fail(job, fmt.Errorf("internal error: %v", rec))
		}
	}()

	pipeline := m.currentPipeline()
	if pipeline == nil {
		m.fail(job, domain.ErrEngineNotConfigured)
		return
	}

	m.logger.Info("executing job", "job_id", job.ID, "mode", job.Mode)
	summary, err := pipeline.RunWithProgress(jobCtx, r.text, job.Mode, func(done, total int) {
		if total > 0 {
			m.eventBus.PublishStatus(job.ID, domain.JobStatusProcessing, done*100/total)
		}
	})
	if err != nil {
		m.fail(job, m.describe(err))
		return
	}

	stats := summary.Stats
	if !m.store.Finish(job.ID, domain.JobStatusDone, summary.Text, &stats, m.now()) {
		m.logger.Debug("dropping result of deleted job", "job_id", job.ID)
		return
	}
	m.logger.Info("job completed", "job_id", job.ID, "chunks", stats.Chunks, "dropped", stats.DroppedChunks)
	m.eventBus.PublishStatus(job.ID, domain.JobStatusDone, 100)
}

func (m *JobManager) jobContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.cfg.JobTimeout > 0 {
		return context.WithTimeout(ctx, m.cfg.JobTimeout)
	}
	return context.WithCancel(ctx)
}

func (m *JobManager) describe(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("summarization timed out after %s", m.cfg.JobTimeout)
	case errors.Is(err, context.Canceled):
		return errors.New("summarization cancelled")
	default:
		return err
	}
}

func (m *JobManager) fail(job domain.Job, err error) {
	msg := err.Error()
	if !m.store.Finish(job.ID, domain.JobStatusError, msg, nil, m.now()) {
		m.logger.Debug("dropping failure of deleted job", "job_id", job.ID, "error", err)
		return
	}
	m.logger.Error("job failed", "job_id", job.ID, "error", err)
	m.eventBus.PublishLog(job.ID, msg)
	m.eventBus.PublishStatus(job.ID, domain.JobStatusError, 100)
}

func (m *JobManager) forget(id domain.JobID) *run {
	m.runsMu.Lock()
	defer m.runsMu.Unlock()
	r := m.runs[id]
	delete(m.runs, id)
	return r
}
