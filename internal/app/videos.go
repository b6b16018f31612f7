package service

import (
	"context"
	"fmt"

	"github.com/okian/tokscope/internal/adapters/apify"
	"github.com/okian/tokscope/internal/adapters/repository"
	"github.com/okian/tokscope/internal/domain/video"
	"github.com/okian/tokscope/pkg/logger"
)

func (s *Service) videoCache() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cache == nil {
		return nil, ErrNotStarted
	}
	return s.cache, nil
}

// Search runs the search actor, reshapes its records, caps them at the
// requested count and replaces the video cache with the result.
func (s *Service) Search(ctx context.Context, req video.SearchRequest) ([]video.Video, error) {
	params, err := req.Params()
	if err != nil {
		return nil, err
	}
	if s.scraper == nil {
		return nil, apify.ErrNotConfigured
	}
	cache, err := s.videoCache()
	if err != nil {
		return nil, err
	}

	raws, err := s.scraper.SearchVideos(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", params.Type, err)
	}
	videos := video.Truncate(video.ProcessAll(raws), params.MaxItems)

	if err := cache.Replace(ctx, video.ToCachedAll(videos)); err != nil {
		s.logger.Warn(ctx, "cannot cache search results", logger.Error(err))
	}
	s.logger.Info(ctx, "search finished",
		logger.String("type", params.Type),
		logger.Int("records", len(raws)),
		logger.Int("videos", len(videos)))
	return videos, nil
}

// AllVideos returns the cached results of the last search.
func (s *Service) AllVideos(ctx context.Context) ([]video.Cached, error) {
	cache, err := s.videoCache()
	if err != nil {
		return nil, err
	}
	return cache.All(ctx)
}
