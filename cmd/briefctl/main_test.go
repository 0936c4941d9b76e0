package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/manthysbr/briefing/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, srv *httptest.Server, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--server", srv.URL}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestSubmit_FromStdin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req domain.SubmitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "article body", req.Text)
		assert.Equal(t, "short", req.Mode)
		assert.Equal(t, "Wire", req.Source)
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, `{"id":"job-7","status":"processing","input_tokens":2}`)
	}))
	defer srv.Close()

	out, err := execute(t, srv, "article body", "submit", "--mode", "short", "--source", "Wire")
	require.NoError(t, err)
	assert.Equal(t, "job-7\n", out)
}

func TestSubmit_TooShortPrintsCannedText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"too_short","summary":"Too short.","input_tokens":1}`)
	}))
	defer srv.Close()

	out, err := execute(t, srv, "hi", "submit")
	require.NoError(t, err)
	assert.Equal(t, "Too short.\n", out)
}

func TestSubmit_WaitReportsFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/jobs", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, `{"id":"job-9","status":"processing","input_tokens":5}`)
	})
	mux.HandleFunc("GET /v1/jobs/{id}/events", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "event: status\ndata: {\"status\":\"error\",\"progress\":100}\n\n")
	})
	mux.HandleFunc("GET /v1/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"job-9","status":"error","output":"generation failed on chunk 1: boom"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := execute(t, srv, "some article", "submit", "--wait")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generation failed on chunk 1")
}

func TestDigest_DefaultsToCompletedJobs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/jobs", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"jobs":[{"id":"a"},{"id":"b"}],"count":2}`)
	})
	mux.HandleFunc("POST /v1/digest", func(w http.ResponseWriter, r *http.Request) {
		var body map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"a", "b"}, body["job_ids"])
		fmt.Fprint(w, `{"script":"Starting with X: Y. Z.","included":["a"]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out, err := execute(t, srv, "", "digest")
	require.NoError(t, err)
	assert.Equal(t, "Starting with X: Y. Z.\n", out)
}

func TestDelete_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"job not found"}`)
	}))
	defer srv.Close()

	_, err := execute(t, srv, "", "delete", "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete ghost")
}

func TestFeed_RejectsLimit(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := execute(t, srv, "", "feed", "https://example.com/rss", "--limit", "99")
	require.Error(t, err)
}
