package kernel

import (
	"encoding/json"
	"net/http"

	"github.com/manthysbr/briefing/internal/core/domain"
)

// GET /v1/settings
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.settings.GetMaskedConfig())
}

// PUT /v1/settings
// Secrets sent back masked or empty keep their stored value.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	update := &domain.AppConfig{}
	if err := json.NewDecoder(r.Body).Decode(update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.settings.UpdateConfig(r.Context(), update); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.settings.GetMaskedConfig())
}
