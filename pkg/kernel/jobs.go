package kernel

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/manthysbr/briefing/internal/core/domain"
)

type submitResponse struct {
	ID          domain.JobID `json:"id,omitempty"`
	Status      string       `json:"status"`
	Summary     string       `json:"summary,omitempty"`
	InputTokens int          `json:"input_tokens"`
}

// POST /v1/jobs
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := s.jobs.Submit(r.Context(), req)
	if err != nil {
		s.logger.Warn("submit rejected", "error", err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	if res.TooShort {
		writeJSON(w, http.StatusOK, submitResponse{
			Status:      "too_short",
			Summary:     res.Output,
			InputTokens: res.InputTokens,
		})
		return
	}
	writeJSON(w, http.StatusAccepted, submitResponse{
		ID:          res.ID,
		Status:      string(res.Status),
		InputTokens: res.InputTokens,
	})
}

// GET /v1/jobs
// Completed jobs by default; ?all=true lists every retained job.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	if all {
		jobs := s.jobs.ListAll()
		writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs, "count": len(jobs)})
		return
	}

	jobs := s.jobs.ListCompleted()
	if jobs == nil {
		jobs = []domain.JobSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs, "count": len(jobs)})
}

// GET /v1/jobs/{id}
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := jobIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	job, err := s.jobs.Status(id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// DELETE /v1/jobs/{id}
func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := jobIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.jobs.Delete(id); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.logger.Info("job deleted", "job_id", id)
	w.WriteHeader(http.StatusNoContent)
}

type digestRequest struct {
	JobIDs []domain.JobID `json:"job_ids"`
}

// POST /v1/digest
func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	var req digestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	writeJSON(w, http.StatusOK, s.jobs.Digest(req.JobIDs))
}
