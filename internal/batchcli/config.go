// Package batchcli submits a file of videos to a running tokscope service
// as one batch job and follows it to completion.
package batchcli

import (
	"encoding/json"
	"time"
)

// Config holds configuration for one submission.
type Config struct {
	BaseURL        string        // Base URL of the service
	InputFile      string        // JSON array of records or {"videos": [...]}
	Mode           string        // analyze or transcribe; empty keeps the file's mode
	IdempotencyKey string        // Sent as Idempotency-Key when set
	PollInterval   time.Duration // Delay between status polls
	Timeout        time.Duration // HTTP request timeout
	OutputFile     string        // Where to write the final job JSON; empty skips it
	Verbose        bool          // Log every poll
}

// Job is the subset of the job document the CLI reads. Raw keeps the whole
// document for the output file.
type Job struct {
	ID        string `json:"id"`
	Mode      string `json:"mode"`
	Status    string `json:"status"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	Error     string `json:"error"`
	Insights  *struct {
		Clusters struct {
			Clusters []struct {
				Label string `json:"label"`
				Size  int    `json:"size"`
			} `json:"clusters"`
		} `json:"clusters"`
	} `json:"insights"`

	Raw json.RawMessage `json:"-"`
}

// Terminal reports whether the job has stopped changing.
func (j Job) Terminal() bool {
	return j.Status == "completed" || j.Status == "failed"
}

// Stats summarizes a run.
type Stats struct {
	Submitted time.Time
	Finished  time.Time
	Polls     int
	Replayed  bool
}
