// Package model contains the batch job models passed between the API, the
// queue and the worker.
package model

import (
	"encoding/json"
	"time"

	"github.com/okian/tokscope/internal/domain/insights"
)

// Mode selects what a batch does with each video.
type Mode string

// Batch modes.
const (
	ModeAnalyze    Mode = "analyze"
	ModeTranscribe Mode = "transcribe"
)

// Status is the lifecycle state of a batch job.
type Status string

// Job states. Queued and running jobs are live; the others are terminal.
const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transitions happen.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Item is one video of a batch.
type Item struct {
	VideoID  string `json:"videoId"`
	VideoURL string `json:"videoUrl"`
	Desc     string `json:"desc"`
	// Record is the submitted record. Transcribe mode extracts audio from it.
	Record map[string]any `json:"-"`
}

// ItemResult is the outcome of one item. Result holds the analysis or
// transcription JSON when Error is empty.
type ItemResult struct {
	VideoID    string          `json:"videoId"`
	VideoURL   string          `json:"videoUrl"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	DurationMs int64           `json:"durationMs"`
}

// Task is what flows through the batch queue.
type Task struct {
	JobID string
	Mode  Mode
	Items []Item
}

// Insights are computed when an analyze batch completes.
type Insights struct {
	Clusters  insights.ClusterGraph `json:"clusters"`
	Dashboard insights.Summary      `json:"dashboard"`
	Aggregate insights.Aggregate    `json:"aggregate"`
}

// Job is the externally visible state of a batch.
type Job struct {
	ID         string       `json:"id"`
	Mode       Mode         `json:"mode"`
	Status     Status       `json:"status"`
	Total      int          `json:"total"`
	Processed  int          `json:"processed"`
	Failed     int          `json:"failed"`
	Results    []ItemResult `json:"results"`
	Insights   *Insights    `json:"insights,omitempty"`
	Error      string       `json:"error,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
	StartedAt  time.Time    `json:"startedAt,omitzero"`
	FinishedAt time.Time    `json:"finishedAt,omitzero"`
}
