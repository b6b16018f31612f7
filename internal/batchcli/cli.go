package batchcli

import "os"

// ShowHelp prints usage information for the batch submit tool.
func ShowHelp() {
	os.Stdout.WriteString(`tokscope batch submit
=====================

Submits a JSON file of TikTok video records as one batch job, polls until the
job completes and prints a summary.

Usage:
  go run ./cmd/batch-submit -input videos.json [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -input string
        JSON array of records, or {"videos": [...], "mode": "..."}
  -mode string
        analyze or transcribe (default: the file's mode, else analyze)
  -key string
        Idempotency key; resubmitting with the same key returns the same job
  -poll duration
        Poll interval (default 2s)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Write the final job JSON to this file
  -verbose
        Log every poll
  -help
        Show this help message

Examples:
  go run ./cmd/batch-submit -input trending.json
  go run ./cmd/batch-submit -input trending.json -mode transcribe -output out/job.json
`)
}
