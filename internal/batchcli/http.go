package batchcli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// apiError mirrors the service's error body.
type apiError struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// client talks to the batch endpoints.
type client struct {
	base string
	http *http.Client
}

func newClient(base string, timeout time.Duration) *client {
	return &client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// health checks the metrics endpoint answers.
func (c *client) health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/healthz", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

// submit posts body and reports whether the service replayed an earlier job.
func (c *client) submit(ctx context.Context, body []byte, mode, key string) (Job, bool, error) {
	u := c.base + "/api/batches"
	if mode != "" {
		u += "?mode=" + url.QueryEscape(mode)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return Job{}, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	job, status, err := c.doJob(req)
	if err != nil {
		return Job{}, false, err
	}
	return job, status == http.StatusOK, nil
}

// get fetches the current job state.
func (c *client) get(ctx context.Context, id string) (Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/batches/"+url.PathEscape(id), http.NoBody)
	if err != nil {
		return Job{}, err
	}
	job, _, err := c.doJob(req)
	return job, err
}

func (c *client) doJob(req *http.Request) (Job, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return Job{}, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Job{}, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var e apiError
		_ = json.Unmarshal(data, &e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		if e.Details != "" {
			return Job{}, resp.StatusCode, fmt.Errorf("%s %s: %d %s: %s", req.Method, req.URL.Path, resp.StatusCode, e.Error, e.Details)
		}
		return Job{}, resp.StatusCode, fmt.Errorf("%s %s: %d %s", req.Method, req.URL.Path, resp.StatusCode, e.Error)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return Job{}, resp.StatusCode, fmt.Errorf("decode job: %w", err)
	}
	job.Raw = data
	return job, resp.StatusCode, nil
}
