package transcript

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/tokscope/pkg/logger"
	"github.com/okian/tokscope/pkg/metrics"
)

// Sentinel kinds for the transcription chain.
var (
	ErrNotConfigured = errors.New("neither OpenAI nor Groq API key is configured")
)

// Provider is a speech-to-text backend.
type Provider interface {
	Name() string
	Configured() bool
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Request describes one transcription.
type Request struct {
	Audio    []byte
	Filename string
	VideoID  string
	// Caption feeds OnScreenText when known.
	Caption string
}

// Service tries the primary provider and falls back to the secondary.
type Service struct {
	primary  Provider
	fallback Provider
	log      logger.Logger
}

// NewService wires primary and fallback. Either may be nil or unconfigured.
func NewService(primary, fallback Provider) *Service {
	return &Service{
		primary:  primary,
		fallback: fallback,
		log:      logger.Get().Named("transcript"),
	}
}

// Configured reports whether at least one provider has a key.
func (s *Service) Configured() bool {
	return usable(s.primary) || usable(s.fallback)
}

func usable(p Provider) bool { return p != nil && p.Configured() }

// Transcribe runs the chain and builds the stored document.
func (s *Service) Transcribe(ctx context.Context, req Request) (Result, error) {
	if !s.Configured() {
		return Result{}, ErrNotConfigured
	}

	var primaryErr error
	if usable(s.primary) {
		text, err := s.primary.Transcribe(ctx, req.Audio, req.Filename)
		if err == nil {
			return Build(text, req.Caption, false), nil
		}
		primaryErr = err
		s.log.Warn(ctx, "primary transcription failed, trying fallback",
			logger.String("video_id", req.VideoID),
			logger.String("provider", s.primary.Name()),
			logger.Error(err))
	}

	if !usable(s.fallback) {
		return Result{}, fmt.Errorf("transcribe %s: %w", req.VideoID, primaryErr)
	}
	text, err := s.fallback.Transcribe(ctx, req.Audio, req.Filename)
	if err != nil {
		return Result{}, fmt.Errorf("transcribe %s: %w", req.VideoID, errors.Join(primaryErr, err))
	}
	if primaryErr != nil {
		metrics.RecordTranscriptionFallback()
	}
	return Build(text, req.Caption, true), nil
}
