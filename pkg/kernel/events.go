package kernel

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/manthysbr/briefing/internal/core/services"
)

// GET /v1/jobs/{id}/events
// Streams status and log events as server-sent events. The current state is
// sent first; the stream ends once the job is terminal.
func (s *Server) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	id, err := jobIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Subscribe before the snapshot so no transition falls in between.
	ch, unsub := s.eventBus.Subscribe(id)
	defer unsub()

	job, err := s.jobs.Status(id)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	progress := 0
	if job.Status.Terminal() {
		progress = 100
	}
	snapshot, _ := json.Marshal(services.StatusPayload{Status: job.Status, Progress: progress})
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", services.EventTypeStatus, snapshot)
	flusher.Flush()
	if job.Status.Terminal() {
		return
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, evt.Data)
			flusher.Flush()

			if evt.Type == services.EventTypeStatus {
				var p services.StatusPayload
				if json.Unmarshal([]byte(evt.Data), &p) == nil && p.Status.Terminal() {
					return
				}
			}
		}
	}
}
