package kernel

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/manthysbr/briefing/internal/adapters/feeds"
	"github.com/manthysbr/briefing/internal/core/domain"
)

type feedRequest struct {
	URL   string `json:"url"`
	Mode  string `json:"mode"`
	Limit int    `json:"limit"`
}

// POST /v1/feeds
func (s *Server) handleIngestFeed(w http.ResponseWriter, r *http.Request) {
	if s.feeds == nil {
		writeError(w, http.StatusServiceUnavailable, "feed ingest is not configured")
		return
	}

	var req feedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := s.feeds.Ingest(r.Context(), s.jobs, req.URL, req.Mode, req.Limit)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrInvalidMode) || errors.Is(err, feeds.ErrBlockedURL) {
			status = http.StatusBadRequest
		}
		s.logger.Warn("feed ingest failed", "url", req.URL, "error", err)
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}
