package kernel

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/manthysbr/briefing/internal/adapters/feeds"
	"github.com/manthysbr/briefing/internal/config"
	"github.com/manthysbr/briefing/internal/core/domain"
	"github.com/manthysbr/briefing/internal/core/services"
	"github.com/oapi-codegen/runtime"
)

// JobService is the job manager as seen by the HTTP layer.
type JobService interface {
	Submit(ctx context.Context, req domain.SubmitRequest) (domain.SubmitResult, error)
	Status(id domain.JobID) (domain.Job, error)
	Delete(id domain.JobID) error
	ListCompleted() []domain.JobSummary
	ListAll() []domain.Job
	Digest(ids []domain.JobID) services.DigestResult
}

// FeedIngester turns a feed into jobs.
type FeedIngester interface {
	Ingest(ctx context.Context, jobs feeds.Submitter, url string, mode string, limit int) (feeds.IngestResult, error)
}

type Server struct {
	logger    *slog.Logger
	jobs      JobService
	eventBus  *services.EventBus
	settings  *config.SettingsStore
	feeds     FeedIngester
	validator *RequestValidator
}

func NewServer(
	logger *slog.Logger,
	jobs JobService,
	eventBus *services.EventBus,
	settings *config.SettingsStore,
	feedReader FeedIngester,
) (*Server, error) {
	doc, err := LoadAPISpec(context.Background())
	if err != nil {
		return nil, err
	}
	validator, err := NewRequestValidator(logger, doc)
	if err != nil {
		return nil, err
	}

	return &Server{
		logger:    logger,
		jobs:      jobs,
		eventBus:  eventBus,
		settings:  settings,
		feeds:     feedReader,
		validator: validator,
	}, nil
}

// Handler returns the http.Handler for the server. Every request is checked
// against the embedded API description before routing.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleHealth)

	mux.HandleFunc("POST /v1/jobs", s.handleSubmitJob)
	mux.HandleFunc("GET /v1/jobs", s.handleListJobs)
	mux.HandleFunc("GET /v1/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("DELETE /v1/jobs/{id}", s.handleDeleteJob)
	mux.HandleFunc("GET /v1/jobs/{id}/events", s.handleJobEvents)

	mux.HandleFunc("POST /v1/digest", s.handleDigest)
	mux.HandleFunc("POST /v1/feeds", s.handleIngestFeed)

	mux.HandleFunc("GET /v1/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /v1/settings", s.handleUpdateSettings)

	return s.validator.Middleware(mux)
}

// GET /
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	engine := ""
	if s.settings != nil {
		engine = s.settings.GetConfig().Engine.Mode
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "active",
		"engine": engine,
	})
}

// jobIDParam binds the {id} path segment.
func jobIDParam(r *http.Request) (domain.JobID, error) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", r.PathValue("id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		return "", err
	}
	return domain.JobID(id), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidMode), errors.Is(err, domain.ErrTextTooShort):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrQueueFull), errors.Is(err, domain.ErrEngineNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
