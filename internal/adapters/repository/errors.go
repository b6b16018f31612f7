package repository

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrNotFound = errors.New("video not found")
	ErrClosed   = errors.New("video cache closed")
)
