package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/tokscope/internal/domain/video"
	"github.com/okian/tokscope/pkg/logger"
	"github.com/okian/tokscope/pkg/metrics"
)

// VideoStore is an in-memory Store with an optional Mirror.
type VideoStore struct {
	mu     sync.RWMutex
	videos []video.Cached
	byID   map[string]int

	mirror                Mirror
	metricsUpdateInterval time.Duration
	log                   logger.Logger

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewVideoStore builds the cache, loads the mirror if any, and starts the
// background goroutines. They stop when ctx ends or Close is called.
func NewVideoStore(ctx context.Context, opts ...Option) *VideoStore {
	s := &VideoStore{
		byID:                  map[string]int{},
		metricsUpdateInterval: 5 * time.Second,
		log:                   logger.Get().Named("video_cache"),
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.mirror != nil {
		s.reload(ctx)
		if w, ok := s.mirror.(Watcher); ok {
			s.startWatcher(ctx, w)
		}
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Replace implements Store.
func (s *VideoStore) Replace(ctx context.Context, videos []video.Cached) error {
	select {
	case <-s.stopChan:
		return ErrClosed
	default:
	}
	s.set(videos)

	if s.mirror != nil {
		err := s.mirror.Save(ctx, s.snapshot())
		metrics.RecordCacheMirror(s.mirror.Name(), "save", err)
		if err != nil {
			s.log.Warn(ctx, "cache mirror save failed",
				logger.String("mirror", s.mirror.Name()),
				logger.Error(err))
		}
	}
	return nil
}

func (s *VideoStore) set(videos []video.Cached) {
	cp := make([]video.Cached, len(videos))
	copy(cp, videos)
	idx := make(map[string]int, len(cp))
	for i, v := range cp {
		idx[v.ID] = i
	}

	s.mu.Lock()
	s.videos = cp
	s.byID = idx
	s.mu.Unlock()
	metrics.UpdateVideosCached(len(cp))
}

func (s *VideoStore) snapshot() []video.Cached {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]video.Cached, len(s.videos))
	copy(out, s.videos)
	return out
}

// All implements Store.
func (s *VideoStore) All(_ context.Context) ([]video.Cached, error) {
	return s.snapshot(), nil
}

// Get implements Store.
func (s *VideoStore) Get(_ context.Context, id string) (video.Cached, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return video.Cached{}, ErrNotFound
	}
	return s.videos[i], nil
}

// Count implements Store.
func (s *VideoStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.videos)
}

// reload replaces the in-memory set with the mirror's copy. An empty or
// unreadable mirror leaves the cache as it is.
func (s *VideoStore) reload(ctx context.Context) {
	videos, err := s.mirror.Load(ctx)
	metrics.RecordCacheMirror(s.mirror.Name(), "load", err)
	if err != nil {
		s.log.Warn(ctx, "cache mirror load failed",
			logger.String("mirror", s.mirror.Name()),
			logger.Error(err))
		return
	}
	if videos == nil {
		return
	}
	s.set(videos)
	s.log.Info(ctx, "video cache loaded from mirror",
		logger.String("mirror", s.mirror.Name()),
		logger.Int("videos", len(videos)))
}

func (s *VideoStore) startWatcher(ctx context.Context, w Watcher) {
	ctx, cancel := context.WithCancel(ctx)
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		select {
		case <-ctx.Done():
		case <-s.stopChan:
		}
		cancel()
	}()
	go func() {
		defer s.wg.Done()
		err := w.Watch(ctx, func() { s.reload(ctx) })
		if err != nil && ctx.Err() == nil {
			s.log.Warn(ctx, "cache mirror watch stopped",
				logger.String("mirror", s.mirror.Name()),
				logger.Error(err))
		}
	}()
}

func (s *VideoStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateVideosCached(s.Count(ctx))
			}
		}
	}()
}

// Close stops the background goroutines.
func (s *VideoStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}
