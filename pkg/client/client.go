// Package client is a small HTTP client for the briefing kernel API.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/manthysbr/briefing/internal/adapters/feeds"
	"github.com/manthysbr/briefing/internal/core/domain"
	"github.com/manthysbr/briefing/internal/core/services"
)

const DefaultServer = "http://localhost:8080"

// APIError is a non-2xx reply from the kernel.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("kernel returned %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the kernel.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// SubmitResponse mirrors the body of POST /v1/jobs.
type SubmitResponse struct {
	ID          domain.JobID `json:"id"`
	Status      string       `json:"status"`
	Summary     string       `json:"summary"`
	InputTokens int          `json:"input_tokens"`
}

// TooShort reports whether the kernel answered with the canned result.
func (r SubmitResponse) TooShort() bool {
	return r.Status == "too_short"
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultServer
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

func (c *Client) Submit(ctx context.Context, req domain.SubmitRequest) (SubmitResponse, error) {
	var out SubmitResponse
	err := c.do(ctx, http.MethodPost, "/v1/jobs", req, &out)
	return out, err
}

func (c *Client) Get(ctx context.Context, id domain.JobID) (domain.Job, error) {
	var out domain.Job
	err := c.do(ctx, http.MethodGet, "/v1/jobs/"+url.PathEscape(string(id)), nil, &out)
	return out, err
}

func (c *Client) Delete(ctx context.Context, id domain.JobID) error {
	return c.do(ctx, http.MethodDelete, "/v1/jobs/"+url.PathEscape(string(id)), nil, nil)
}

// ListCompleted returns done jobs, oldest first.
func (c *Client) ListCompleted(ctx context.Context) ([]domain.JobSummary, error) {
	var out struct {
		Jobs []domain.JobSummary `json:"jobs"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/jobs", nil, &out)
	return out.Jobs, err
}

// ListAll returns every retained job regardless of state.
func (c *Client) ListAll(ctx context.Context) ([]domain.Job, error) {
	var out struct {
		Jobs []domain.Job `json:"jobs"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/jobs?all=true", nil, &out)
	return out.Jobs, err
}

func (c *Client) Digest(ctx context.Context, ids []domain.JobID) (services.DigestResult, error) {
	var out services.DigestResult
	err := c.do(ctx, http.MethodPost, "/v1/digest", map[string]any{"job_ids": ids}, &out)
	return out, err
}

func (c *Client) IngestFeed(ctx context.Context, feedURL, mode string, limit int) (feeds.IngestResult, error) {
	body := map[string]any{"url": feedURL}
	if mode != "" {
		body["mode"] = mode
	}
	if limit > 0 {
		body["limit"] = limit
	}
	var out feeds.IngestResult
	err := c.do(ctx, http.MethodPost, "/v1/feeds", body, &out)
	return out, err
}

// Wait follows the job's event stream until it is terminal, then returns the
// final record. onProgress may be nil.
func (c *Client) Wait(ctx context.Context, id domain.JobID, onProgress func(services.StatusPayload)) (domain.Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/jobs/"+url.PathEscape(string(id))+"/events", nil)
	if err != nil {
		return domain.Job{}, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Job{}, fmt.Errorf("kernel connection failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.Job{}, readError(resp)
	}

	event := ""
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: ") && event == string(services.EventTypeStatus):
			var p services.StatusPayload
			if json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &p) == nil && onProgress != nil {
				onProgress(p)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return domain.Job{}, fmt.Errorf("event stream broken: %w", err)
	}
	return c.Get(ctx, id)
}

// Poll is the fallback when streaming is unavailable.
func (c *Client) Poll(ctx context.Context, id domain.JobID, every time.Duration) (domain.Job, error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		job, err := c.Get(ctx, id)
		if err != nil || job.Status.Terminal() {
			return job, err
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("kernel connection failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func readError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
