package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/manthysbr/briefing/internal/core/domain"
	"github.com/manthysbr/briefing/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SubmitAndGet(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/jobs", func(w http.ResponseWriter, r *http.Request) {
		var req domain.SubmitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "quick", req.Mode)
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, `{"id":"job-1","status":"processing","input_tokens":42}`)
	})
	mux.HandleFunc("GET /v1/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.Job{ID: domain.JobID(r.PathValue("id")), Status: domain.JobStatusDone, Output: "Short."})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL + "/")
	ctx := context.Background()

	res, err := c.Submit(ctx, domain.SubmitRequest{Text: "body", Mode: "quick"})
	require.NoError(t, err)
	assert.Equal(t, domain.JobID("job-1"), res.ID)
	assert.Equal(t, 42, res.InputTokens)
	assert.False(t, res.TooShort())

	job, err := c.Get(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, "Short.", job.Output)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"job not found"}`)
	}))
	defer srv.Close()

	err := New(srv.URL).Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "job not found")
}

func TestClient_WaitFollowsEvents(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/jobs/{id}/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: status\ndata: {\"status\":\"processing\",\"progress\":0}\n\n")
		fmt.Fprint(w, "event: log\ndata: working\n\n")
		fmt.Fprint(w, "event: status\ndata: {\"status\":\"done\",\"progress\":100}\n\n")
	})
	mux.HandleFunc("GET /v1/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.Job{ID: "job-1", Status: domain.JobStatusDone, Output: "Done."})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var seen []int
	job, err := New(srv.URL).Wait(context.Background(), "job-1", func(p services.StatusPayload) {
		seen = append(seen, p.Progress)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 100}, seen)
	assert.Equal(t, "Done.", job.Output)
}

func TestClient_WaitReturnsWhenJobDeleted(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/jobs/{id}/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: status\ndata: {\"status\":\"processing\",\"progress\":0}\n\n")
		fmt.Fprint(w, "event: log\ndata: job deleted\n\n")
	})
	mux.HandleFunc("GET /v1/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"job not found"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := New(srv.URL).Wait(ctx, "job-1", nil)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestClient_Poll(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		status := domain.JobStatusProcessing
		if calls >= 3 {
			status = domain.JobStatusError
		}
		json.NewEncoder(w).Encode(domain.Job{ID: "job-1", Status: status, Output: "boom"})
	}))
	defer srv.Close()

	job, err := New(srv.URL).Poll(context.Background(), "job-1", time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusError, job.Status)
	assert.Equal(t, 3, calls)
}

func TestClient_DigestAndFeed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/digest", func(w http.ResponseWriter, r *http.Request) {
		var body map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"a", "b"}, body["job_ids"])
		json.NewEncoder(w).Encode(services.DigestResult{Script: "Script.", Included: []domain.JobID{"a"}})
	})
	mux.HandleFunc("POST /v1/feeds", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://example.com/rss", body["url"])
		assert.NotContains(t, body, "mode")
		assert.EqualValues(t, 3, body["limit"])
		fmt.Fprint(w, `{"feed":"Example","submitted":[{"id":"j","title":"T","link":"L"}],"skipped":[]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	digest, err := c.Digest(ctx, []domain.JobID{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "Script.", digest.Script)

	res, err := c.IngestFeed(ctx, "https://example.com/rss", "", 3)
	require.NoError(t, err)
	assert.Equal(t, "Example", res.Feed)
	require.Len(t, res.Submitted, 1)
	assert.Equal(t, domain.JobID("j"), res.Submitted[0].ID)
}
