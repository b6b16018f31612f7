package apify

import "errors"

// Sentinel kinds for actor runs.
var (
	ErrNotConfigured = errors.New("apify token is not configured")
	ErrRunFailed     = errors.New("actor run failed")
	ErrNoVideoData   = errors.New("no video data found")
)
