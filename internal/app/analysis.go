package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/okian/tokscope/internal/adapters/apify"
	"github.com/okian/tokscope/internal/adapters/gemini"
	"github.com/okian/tokscope/internal/domain/comments"
	"github.com/okian/tokscope/internal/domain/video"
	"github.com/okian/tokscope/pkg/logger"
	"github.com/okian/tokscope/pkg/metrics"
)

// NormalizeVideoURL requires an absolute URL and upgrades http to https.
func NormalizeVideoURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMissingURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}
	u.Scheme = "https"
	return u.String(), nil
}

// AnalyzeVideo runs the full analysis prompt on one video. Concurrent calls
// for the same video and description share one model call.
func (s *Service) AnalyzeVideo(ctx context.Context, videoURL, videoID, desc string) (gemini.Analysis, error) {
	if s.analyzer == nil {
		return gemini.Analysis{}, gemini.ErrNotConfigured
	}
	u, err := NormalizeVideoURL(videoURL)
	if err != nil {
		return gemini.Analysis{}, err
	}

	// The shared call outlives any one caller; each caller still stops
	// waiting when its own ctx ends.
	flight := s.flights.DoChan(u+"\x00"+desc, func() (any, error) {
		res, err := s.analyzer.AnalyzeVideo(context.WithoutCancel(ctx), u, desc)
		metrics.RecordAnalysis("video", err)
		return res, err
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return gemini.Analysis{}, ctx.Err()
	case res = <-flight:
	}
	if res.Err != nil {
		s.logger.Warn(ctx, "video analysis failed",
			logger.String("video_id", videoID),
			logger.Bool("access_denied", gemini.IsAccessDenied(res.Err)),
			logger.Bool("shared", res.Shared),
			logger.Error(res.Err))
		return gemini.Analysis{}, res.Err
	}
	return res.Val.(gemini.Analysis), nil
}

// CommentsVideo fetches a TikTok page's video record and analyzes it with
// the comment-oriented prompt.
func (s *Service) CommentsVideo(ctx context.Context, pageURL string) (video.Raw, gemini.Analysis, error) {
	if strings.TrimSpace(pageURL) == "" {
		return nil, gemini.Analysis{}, ErrMissingURL
	}
	if s.scraper == nil {
		return nil, gemini.Analysis{}, apify.ErrNotConfigured
	}
	if s.analyzer == nil {
		return nil, gemini.Analysis{}, gemini.ErrNotConfigured
	}

	record, err := s.scraper.FetchVideo(ctx, pageURL)
	if err != nil {
		return nil, gemini.Analysis{}, err
	}
	dl, err := video.ExtractDownloadURL(record)
	if err != nil {
		return record, gemini.Analysis{}, fmt.Errorf("%w: %w", ErrNoDownloadURL, err)
	}
	desc, _ := record["desc"].(string)

	analysis, err := s.analyzer.AnalyzeForComments(ctx, dl, desc)
	metrics.RecordAnalysis("comments", err)
	if err != nil {
		return record, gemini.Analysis{}, err
	}
	return record, analysis, nil
}

// GenerateComments asks the model for comments on an analyzed video.
func (s *Service) GenerateComments(ctx context.Context, analysis, desc, author string) ([]string, error) {
	prompt, err := comments.Prompt(analysis, desc, author)
	if err != nil {
		return nil, err
	}
	if s.analyzer == nil {
		return nil, gemini.ErrNotConfigured
	}

	text, err := s.analyzer.Generate(ctx, prompt)
	metrics.RecordAnalysis("generate", err)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoComments
	}
	return comments.Parse(text), nil
}
