package api

import (
	"errors"
	"net/http"

	"github.com/okian/tokscope/internal/adapters/apify"
	"github.com/okian/tokscope/internal/adapters/gemini"
	"github.com/okian/tokscope/internal/adapters/storage"
	service "github.com/okian/tokscope/internal/app"
	"github.com/okian/tokscope/internal/domain/comments"
	"github.com/okian/tokscope/internal/domain/model"
	"github.com/okian/tokscope/internal/domain/transcript"
	"github.com/okian/tokscope/internal/domain/video"
)

// User-facing error messages.
const (
	msgInvalidBody        = "Invalid request body"
	msgSearchFailed       = "Failed to fetch TikTok videos from Apify"
	msgMissingType        = "Missing required parameter: type"
	msgVideoURLRequired   = "Video URL is required"
	msgInvalidURL         = "Invalid URL format"
	msgGeminiMissing      = "Google API Key is not configured"
	msgApifyMissing       = "Apify API token is not configured"
	msgAccessDenied       = "Could not access video content"
	msgAnalyzeFailed      = "Failed to analyze video"
	msgNoVideoData        = "No video data found"
	msgNoDownloadURL      = "No video download URL found"
	msgAnalysisRequired   = "Video analysis is required"
	msgCommentsFailed     = "Failed to generate comments"
	msgNoAudioFile        = "No audio file provided"
	msgNoProvider         = "Neither OpenAI nor Groq API key is configured"
	msgTranscribeFailed   = "Failed to transcribe audio"
	msgNoVideoProvided    = "No video data provided"
	msgNoVideoURL         = "Could not extract video URL from TikTok data"
	msgExtractFailed      = "Failed to extract audio from video"
	msgMissingVideoID     = "Missing videoId parameter"
	msgTranscriptNotFound = "Transcription not found for this video"
	msgTranscriptFailed   = "Failed to load transcription"
	msgDirectoriesFailed  = "Failed to create directories"
	msgStorageMissing     = "Storage is not configured"
	msgUnknownMediaKind   = "Media kind must be videos or audios"
	msgMediaNotFound      = "Media file not found"
	msgMediaFailed        = "Media storage request failed"
	msgNoFile             = "No file provided"
	msgBatchInvalid       = "Invalid batch submission"
	msgBatchTooLarge      = "Too many videos in batch"
	msgQueueFull          = "Batch queue is full, retry later"
	msgBatchNotFound      = "Batch job not found"
	msgBatchFailed        = "Failed to submit batch"
	msgNotStarted         = "Service is not ready"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// classify maps a service error to a status and message. fallback is the
// message used for unexpected failures.
func classify(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, msgNotStarted
	case errors.Is(err, gemini.ErrNotConfigured):
		return http.StatusInternalServerError, msgGeminiMissing
	case errors.Is(err, apify.ErrNotConfigured):
		return http.StatusInternalServerError, msgApifyMissing
	case errors.Is(err, transcript.ErrNotConfigured):
		return http.StatusInternalServerError, msgNoProvider
	case errors.Is(err, service.ErrStorageMissing), errors.Is(err, storage.ErrNotConfigured):
		return http.StatusInternalServerError, msgStorageMissing
	case errors.Is(err, service.ErrMissingURL):
		return http.StatusBadRequest, msgVideoURLRequired
	case errors.Is(err, service.ErrInvalidURL):
		return http.StatusBadRequest, msgInvalidURL
	case errors.Is(err, video.ErrMissingType):
		return http.StatusBadRequest, msgMissingType
	case errors.Is(err, video.ErrInvalidType), errors.Is(err, video.ErrInvalidLimit), errors.Is(err, video.ErrInvalidFlag):
		return http.StatusBadRequest, msgInvalidBody
	case errors.Is(err, comments.ErrNoAnalysis):
		return http.StatusBadRequest, msgAnalysisRequired
	case errors.Is(err, service.ErrNoVideoData):
		return http.StatusBadRequest, msgNoVideoProvided
	case errors.Is(err, video.ErrNoVideoURL):
		return http.StatusBadRequest, msgNoVideoURL
	case errors.Is(err, service.ErrMissingVideoID):
		return http.StatusBadRequest, msgMissingVideoID
	case errors.Is(err, apify.ErrNoVideoData):
		return http.StatusNotFound, msgNoVideoData
	case errors.Is(err, service.ErrNoDownloadURL):
		return http.StatusNotFound, msgNoDownloadURL
	case errors.Is(err, service.ErrAudioExtraction), errors.Is(err, service.ErrExtractorMissing):
		return http.StatusInternalServerError, msgExtractFailed
	case errors.Is(err, service.ErrTranscription):
		return http.StatusInternalServerError, msgTranscribeFailed
	case errors.Is(err, service.ErrNoComments):
		return http.StatusInternalServerError, msgCommentsFailed
	case errors.Is(err, storage.ErrUnknownKind):
		return http.StatusBadRequest, msgUnknownMediaKind
	case errors.Is(err, model.ErrEmptyBatch), errors.Is(err, model.ErrInvalidBatch), errors.Is(err, model.ErrInvalidMode):
		return http.StatusBadRequest, msgBatchInvalid
	case errors.Is(err, model.ErrTooManyItems):
		return http.StatusRequestEntityTooLarge, msgBatchTooLarge
	case errors.Is(err, service.ErrQueueFull):
		return http.StatusTooManyRequests, msgQueueFull
	case errors.Is(err, service.ErrJobNotFound):
		return http.StatusNotFound, msgBatchNotFound
	case gemini.IsAccessDenied(err):
		return http.StatusForbidden, msgAccessDenied
	}
	return http.StatusInternalServerError, fallback
}

// ErrBadRequest marks a body that could not be decoded.
var ErrBadRequest = errors.New("bad request")
