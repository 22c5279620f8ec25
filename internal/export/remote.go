package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RenderError is a non-2xx answer from the render service.
type RenderError struct {
	StatusCode int
	Body       string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render request failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable is true for server errors. Client errors are permanent.
func (e *RenderError) IsRetryable() bool {
	return e.StatusCode >= 500
}

const defaultPollInterval = time.Second

// RemoteRenderer hands the job to an external render service and polls it
// until the job finishes.
type RemoteRenderer struct {
	baseURL      string
	token        string
	httpClient   *http.Client
	pollInterval time.Duration
	logger       *slog.Logger
}

func NewRemoteRenderer(baseURL, token string, logger *slog.Logger) *RemoteRenderer {
	return &RemoteRenderer{
		baseURL:      baseURL,
		token:        token,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		pollInterval: defaultPollInterval,
		logger:       logger,
	}
}

// SetPollInterval overrides how often job status is fetched.
func (r *RemoteRenderer) SetPollInterval(d time.Duration) {
	if d > 0 {
		r.pollInterval = d
	}
}

type renderJob struct {
	ID       string  `json:"id"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	URL      string  `json:"url"`
	Error    string  `json:"error"`
}

func (r *RemoteRenderer) Export(ctx context.Context, req Request, progress func(float64)) (Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("marshal render request: %w", err)
	}

	var job renderJob
	if err := r.do(ctx, http.MethodPost, "/api/renders", body, &job); err != nil {
		return Result{}, err
	}

	if r.logger != nil {
		r.logger.Info("render submitted",
			"export_id", req.ExportID,
			"render_id", job.ID,
			"format", req.Settings.Format,
			"resolution", req.Settings.Resolution,
		)
	}

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		report(progress, job.Progress)
		switch job.Status {
		case "completed":
			report(progress, 100)
			return Result{URL: job.URL}, nil
		case "failed":
			return Result{}, fmt.Errorf("render %s failed: %s", job.ID, job.Error)
		}

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			r.cancelRemote(job.ID)
			return Result{}, ctx.Err()
		}

		if err := r.do(ctx, http.MethodGet, "/api/renders/"+job.ID, nil, &job); err != nil {
			if ctx.Err() != nil {
				r.cancelRemote(job.ID)
				return Result{}, ctx.Err()
			}
			return Result{}, err
		}
	}
}

func (r *RemoteRenderer) cancelRemote(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.do(ctx, http.MethodDelete, "/api/renders/"+id, nil, nil); err != nil && r.logger != nil {
		r.logger.Warn("failed to cancel remote render", "render_id", id, "error", err)
	}
}

func (r *RemoteRenderer) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RenderError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode render response: %w", err)
	}
	return nil
}
