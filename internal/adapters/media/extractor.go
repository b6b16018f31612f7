// Package media pulls the audio track out of a video with ffmpeg.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/okian/tokscope/internal/adapters/fetch"
	"github.com/okian/tokscope/pkg/executor"
	"github.com/okian/tokscope/pkg/logger"
	"github.com/okian/tokscope/pkg/metrics"
)

// ErrExtract wraps every failure of the download or ffmpeg step.
var ErrExtract = errors.New("failed to extract audio from video")

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Extractor downloads a video and converts it to mp3.
type Extractor struct {
	exec       executor.Executor
	downloader *fetch.Client
	ffmpeg     string
	tempDir    string
	log        logger.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithExecutor replaces the command runner.
func WithExecutor(e executor.Executor) Option {
	return func(x *Extractor) {
		if e != nil {
			x.exec = e
		}
	}
}

// WithDownloader replaces the video downloader.
func WithDownloader(d *fetch.Client) Option {
	return func(x *Extractor) {
		if d != nil {
			x.downloader = d
		}
	}
}

// WithFFmpeg sets the ffmpeg binary path.
func WithFFmpeg(path string) Option {
	return func(x *Extractor) {
		if path != "" {
			x.ffmpeg = path
		}
	}
}

// WithTempDir sets the scratch directory root.
func WithTempDir(dir string) Option {
	return func(x *Extractor) { x.tempDir = dir }
}

// New builds an Extractor.
func New(opts ...Option) *Extractor {
	x := &Extractor{
		exec:       executor.New(),
		downloader: fetch.New(fetch.WithService("video download")),
		ffmpeg:     "ffmpeg",
		log:        logger.Get().Named("media"),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Extract returns the mp3 audio of the video at videoURL. Scratch files are
// removed before returning.
func (x *Extractor) Extract(ctx context.Context, videoURL, videoID string) ([]byte, error) {
	start := time.Now()
	audio, err := x.extract(ctx, videoURL, videoID)
	metrics.RecordVendorCall("ffmpeg", "extract_audio", err, time.Since(start))
	if err != nil {
		x.log.Error(ctx, "audio extraction failed",
			logger.String("video_id", videoID),
			logger.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrExtract, err)
	}
	x.log.Info(ctx, "audio extracted",
		logger.String("video_id", videoID),
		logger.Int("bytes", len(audio)),
		logger.Duration("elapsed", time.Since(start)))
	return audio, nil
}

func (x *Extractor) extract(ctx context.Context, videoURL, videoID string) ([]byte, error) {
	video, err := x.downloader.Download(ctx, videoURL)
	if err != nil {
		return nil, fmt.Errorf("download video: %w", err)
	}

	if x.tempDir != "" {
		if err := os.MkdirAll(x.tempDir, 0o750); err != nil {
			return nil, fmt.Errorf("create temp root: %w", err)
		}
	}
	dir, err := os.MkdirTemp(x.tempDir, "tokscope-audio-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	name := "tiktok_" + unsafeName.ReplaceAllString(videoID, "_")
	videoPath := filepath.Join(dir, name+".mp4")
	audioPath := filepath.Join(dir, name+".mp3")
	if err := os.WriteFile(videoPath, video, 0o600); err != nil {
		return nil, fmt.Errorf("write video: %w", err)
	}

	args := []string{
		"-i", videoPath,
		"-q:a", "0",
		"-map", "a",
		"-f", "mp3",
		"-y",
		audioPath,
	}
	if _, err := x.exec.Execute(ctx, x.ffmpeg, args...); err != nil {
		return nil, fmt.Errorf("ffmpeg: %w", err)
	}

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	return audio, nil
}
