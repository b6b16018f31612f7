package queue

import "errors"

// Enqueue failures.
var (
	ErrFull   = errors.New("batch queue is full")
	ErrClosed = errors.New("batch queue is closed")
)
