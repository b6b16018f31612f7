package service

import (
	"context"

	"github.com/okian/tokscope/internal/adapters/gemini"
	"github.com/okian/tokscope/internal/adapters/storage"
	"github.com/okian/tokscope/internal/domain/transcript"
	"github.com/okian/tokscope/internal/domain/video"
)

// Scraper runs the scraping actors.
type Scraper interface {
	SearchVideos(ctx context.Context, params video.SearchParams) ([]video.Raw, error)
	FetchVideo(ctx context.Context, pageURL string) (video.Raw, error)
}

// Analyzer runs generative analyses.
type Analyzer interface {
	AnalyzeVideo(ctx context.Context, videoURL, description string) (gemini.Analysis, error)
	AnalyzeForComments(ctx context.Context, videoURL, description string) (gemini.Analysis, error)
	Generate(ctx context.Context, prompt string) (string, error)
}

// Transcriber turns audio into a transcript document.
type Transcriber interface {
	Configured() bool
	Transcribe(ctx context.Context, req transcript.Request) (transcript.Result, error)
}

// AudioExtractor pulls an mp3 track out of a video URL.
type AudioExtractor interface {
	Extract(ctx context.Context, videoURL, videoID string) ([]byte, error)
}

// TranscriptStore persists transcript documents.
type TranscriptStore interface {
	Save(ctx context.Context, videoID string, res transcript.Result) error
	Load(ctx context.Context, videoID string) (transcript.Result, error)
}

// MediaLibrary stores user media.
type MediaLibrary interface {
	Upload(ctx context.Context, kind, filename string, data []byte, contentType string) (storage.Object, error)
	List(ctx context.Context, kind string) ([]storage.Object, error)
	Delete(ctx context.Context, kind, name string) error
}
