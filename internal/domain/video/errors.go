package video

import "errors"

// Sentinel kinds for video record handling.
var (
	ErrNoVideoURL   = errors.New("no video URL found")
	ErrMissingType  = errors.New("missing required parameter: type")
	ErrInvalidType  = errors.New("invalid search type")
	ErrInvalidLimit = errors.New("invalid maxItems")
	ErrInvalidFlag  = errors.New("invalid search option")
)
