package service

import "errors"

// Sentinel kinds returned to the API layer.
var (
	ErrMissingURL       = errors.New("video URL is required")
	ErrInvalidURL       = errors.New("invalid URL format")
	ErrMissingVideoID   = errors.New("missing videoId parameter")
	ErrNoVideoData      = errors.New("no video data provided")
	ErrNoDownloadURL    = errors.New("no video download URL found")
	ErrAudioExtraction  = errors.New("failed to extract audio from video")
	ErrTranscription    = errors.New("failed to transcribe audio")
	ErrNoComments       = errors.New("failed to generate comments")
	ErrNotStarted       = errors.New("service is not started")
	ErrQueueFull        = errors.New("batch queue is full")
	ErrJobNotFound      = errors.New("batch job not found")
	ErrExtractorMissing = errors.New("audio extractor is not configured")
	ErrStorageMissing   = errors.New("storage is not configured")
)
