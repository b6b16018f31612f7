package storage

import "errors"

// Sentinel kinds for object storage.
var (
	ErrNotFound      = errors.New("object not found")
	ErrNotConfigured = errors.New("object storage is not configured")
	ErrInvalidKey    = errors.New("invalid object key")
	ErrUnknownKind   = errors.New("unknown media kind")
)
