package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/tokscope/internal/domain/transcript"
	"github.com/okian/tokscope/internal/domain/video"
	"github.com/okian/tokscope/pkg/logger"
)

const (
	defaultAudioName = "audio.mp3"
	unknownVideoID   = "unknown_video"
)

// Extraction is the outcome of ExtractAndTranscribe.
type Extraction struct {
	VideoID       string            `json:"videoId"`
	VideoURL      string            `json:"videoUrl"`
	Transcription transcript.Result `json:"transcription"`
}

// Directory reports one bootstrapped data directory.
type Directory struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

func (s *Service) transcriptionReady() error {
	if s.transcriber == nil || !s.transcriber.Configured() {
		return transcript.ErrNotConfigured
	}
	return nil
}

// TranscribeUpload transcribes an uploaded audio file and stores the result.
func (s *Service) TranscribeUpload(ctx context.Context, audio []byte, filename, videoID string) (transcript.Result, error) {
	if err := s.transcriptionReady(); err != nil {
		return transcript.Result{}, err
	}
	if filename == "" {
		filename = defaultAudioName
	}
	if videoID == "" {
		videoID = unknownVideoID
	}

	res, err := s.transcriber.Transcribe(ctx, transcript.Request{
		Audio:    audio,
		Filename: filename,
		VideoID:  videoID,
	})
	if err != nil {
		return transcript.Result{}, fmt.Errorf("%w: %w", ErrTranscription, err)
	}
	s.saveTranscript(ctx, videoID, res)
	return res, nil
}

// ExtractAndTranscribe pulls the audio track out of a video and transcribes
// it. input is a raw video record or a URL string.
func (s *Service) ExtractAndTranscribe(ctx context.Context, input any) (Extraction, error) {
	if err := s.transcriptionReady(); err != nil {
		return Extraction{}, err
	}
	if input == nil {
		return Extraction{}, ErrNoVideoData
	}
	if s.extractor == nil {
		return Extraction{}, ErrExtractorMissing
	}

	videoURL, err := video.ExtractPlayURL(input)
	if err != nil {
		return Extraction{}, err
	}
	videoID, desc := unknownVideoID, ""
	if r, ok := input.(map[string]any); ok {
		if id := video.ID(r); id != "" {
			videoID = id
		}
		desc, _ = r["desc"].(string)
	}

	res, err := s.extractAndTranscribe(ctx, videoURL, videoID, desc)
	if err != nil {
		return Extraction{}, err
	}
	s.saveTranscript(ctx, videoID, res)
	return Extraction{VideoID: videoID, VideoURL: videoURL, Transcription: res}, nil
}

func (s *Service) extractAndTranscribe(ctx context.Context, videoURL, videoID, desc string) (transcript.Result, error) {
	audio, err := s.extractor.Extract(ctx, videoURL, videoID)
	if err != nil {
		return transcript.Result{}, fmt.Errorf("%w: %w", ErrAudioExtraction, err)
	}
	res, err := s.transcriber.Transcribe(ctx, transcript.Request{
		Audio:    audio,
		Filename: videoID + ".mp3",
		VideoID:  videoID,
		Caption:  desc,
	})
	if err != nil {
		return transcript.Result{}, fmt.Errorf("%w: %w", ErrTranscription, err)
	}
	return res, nil
}

// saveTranscript stores res. A failed save does not fail the request.
func (s *Service) saveTranscript(ctx context.Context, videoID string, res transcript.Result) {
	if s.transcripts == nil {
		return
	}
	if err := s.transcripts.Save(ctx, videoID, res); err != nil {
		s.logger.Warn(ctx, "cannot save transcript",
			logger.String("video_id", videoID),
			logger.Error(err))
	}
}

// GetTranscript loads a stored transcript.
func (s *Service) GetTranscript(ctx context.Context, videoID string) (transcript.Result, error) {
	if strings.TrimSpace(videoID) == "" {
		return transcript.Result{}, ErrMissingVideoID
	}
	if s.transcripts == nil {
		return transcript.Result{}, ErrStorageMissing
	}
	return s.transcripts.Load(ctx, videoID)
}

// EnsureDirectories creates the local data directories.
func (s *Service) EnsureDirectories(ctx context.Context) ([]Directory, error) {
	var (
		out  []Directory
		errs []error
	)
	for _, name := range []string{"transcriptions", "data", "audio"} {
		p := filepath.Join(s.dataDir, name)
		if err := os.MkdirAll(p, 0o755); err != nil {
			errs = append(errs, err)
			s.logger.Error(ctx, "cannot create directory", logger.String("path", p), logger.Error(err))
		}
		_, statErr := os.Stat(p)
		out = append(out, Directory{Path: p, Exists: statErr == nil})
	}
	return out, errors.Join(errs...)
}
