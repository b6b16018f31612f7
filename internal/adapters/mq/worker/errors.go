package worker

import "errors"

// ErrStopped fails a job that was interrupted by shutdown.
var ErrStopped = errors.New("worker stopped")
