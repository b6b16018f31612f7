// Package apify runs TikTok scraping actors through the Apify REST API and
// returns their dataset items untouched.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/tokscope/internal/adapters/fetch"
	"github.com/okian/tokscope/internal/domain/video"
	"github.com/okian/tokscope/pkg/logger"
	"github.com/okian/tokscope/pkg/metrics"
)

const (
	service              = "apify"
	defaultBaseURL       = "https://api.apify.com/v2"
	defaultSearchActor   = "novi/fast-tiktok-scraper"
	defaultVideoActor    = "novi/fast-tiktok-api"
	defaultTimeout       = 5 * time.Minute
	defaultWaitForFinish = 60 * time.Second
)

// Run statuses reported by the platform.
const (
	StatusReady     = "READY"
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusTimedOut  = "TIMED-OUT"
	StatusAborted   = "ABORTED"
)

// Run is the subset of an actor run object the client reads.
type Run struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	DefaultDatasetID string `json:"defaultDatasetId"`
}

// Terminal reports whether the run will not change status any more.
func (r Run) Terminal() bool {
	switch r.Status {
	case StatusSucceeded, StatusFailed, StatusTimedOut, StatusAborted:
		return true
	}
	return false
}

// Client starts actor runs, waits for them, and reads their datasets.
type Client struct {
	token         string
	baseURL       string
	searchActor   string
	videoActor    string
	timeout       time.Duration
	waitForFinish time.Duration
	http          *http.Client
	log           logger.Logger
}

// New returns a Client authenticated with token.
func New(token string, opts ...Option) *Client {
	c := &Client{
		token:         token,
		baseURL:       defaultBaseURL,
		searchActor:   defaultSearchActor,
		videoActor:    defaultVideoActor,
		timeout:       defaultTimeout,
		waitForFinish: defaultWaitForFinish,
		http:          &http.Client{Timeout: defaultWaitForFinish + 30*time.Second},
		log:           logger.Get().Named(service),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")
	return c
}

// SearchVideos runs the search actor with p as its input.
func (c *Client) SearchVideos(ctx context.Context, p video.SearchParams) ([]video.Raw, error) {
	items, err := c.RunActor(ctx, c.searchActor, p)
	if err != nil {
		return nil, err
	}
	metrics.RecordVideosScraped(len(items))
	return items, nil
}

type videoInput struct {
	Type                 string   `json:"type"`
	URLs                 []string `json:"urls"`
	Limit                int      `json:"limit"`
	IsDownloadVideo      bool     `json:"isDownloadVideo"`
	IsDownloadVideoCover bool     `json:"isDownloadVideoCover"`
}

// FetchVideo runs the single-video actor for a TikTok page URL and returns
// the first dataset item.
func (c *Client) FetchVideo(ctx context.Context, pageURL string) (video.Raw, error) {
	items, err := c.RunActor(ctx, c.videoActor, videoInput{
		Type:                 "VIDEO",
		URLs:                 []string{pageURL},
		Limit:                1,
		IsDownloadVideo:      true,
		IsDownloadVideoCover: true,
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNoVideoData
	}
	return items[0], nil
}

// RunActor starts actor with input, waits until the run is terminal and
// returns the default dataset items.
func (c *Client) RunActor(ctx context.Context, actor string, input any) ([]video.Raw, error) {
	if c.token == "" {
		return nil, ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	items, err := c.runActor(ctx, actor, input)
	metrics.RecordVendorCall(service, "run_actor", err, time.Since(start))
	if err != nil {
		c.log.Error(ctx, "actor run failed",
			logger.String("actor", actor),
			logger.Duration("elapsed", time.Since(start)),
			logger.Error(err))
		return nil, err
	}
	c.log.Info(ctx, "actor run finished",
		logger.String("actor", actor),
		logger.Int("items", len(items)),
		logger.Duration("elapsed", time.Since(start)))
	return items, nil
}

func (c *Client) runActor(ctx context.Context, actor string, input any) ([]video.Raw, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode input: %w", err)
	}

	var started struct {
		Data Run `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/acts/"+actorPath(actor)+"/runs", nil, body, &started); err != nil {
		return nil, fmt.Errorf("start %s: %w", actor, err)
	}
	c.log.Debug(ctx, "actor run started",
		logger.String("actor", actor),
		logger.String("run_id", started.Data.ID))

	run, err := c.wait(ctx, started.Data)
	if err != nil {
		return nil, err
	}
	if run.Status != StatusSucceeded {
		return nil, fmt.Errorf("%w: run %s ended %s", ErrRunFailed, run.ID, run.Status)
	}
	return c.datasetItems(ctx, run.DefaultDatasetID)
}

func (c *Client) wait(ctx context.Context, run Run) (Run, error) {
	q := url.Values{"waitForFinish": {strconv.Itoa(int(c.waitForFinish.Seconds()))}}
	for !run.Terminal() {
		if err := ctx.Err(); err != nil {
			return run, fmt.Errorf("wait for run %s: %w", run.ID, err)
		}
		var polled struct {
			Data Run `json:"data"`
		}
		if err := c.do(ctx, http.MethodGet, "/actor-runs/"+url.PathEscape(run.ID), q, nil, &polled); err != nil {
			return run, fmt.Errorf("poll run %s: %w", run.ID, err)
		}
		run = polled.Data
	}
	return run, nil
}

func (c *Client) datasetItems(ctx context.Context, datasetID string) ([]video.Raw, error) {
	q := url.Values{"clean": {"true"}, "format": {"json"}}
	var items []video.Raw
	if err := c.do(ctx, http.MethodGet, "/datasets/"+url.PathEscape(datasetID)+"/items", q, nil, &items); err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", datasetID, err)
	}
	if items == nil {
		items = []video.Raw{}
	}
	return items, nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body []byte, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var rdr io.Reader = http.NoBody
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", service, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fetch.ReadStatusError(service, resp)
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// actorPath converts "user/name" into the "user~name" form used in URLs.
func actorPath(actor string) string {
	return url.PathEscape(strings.ReplaceAll(actor, "/", "~"))
}
