// Package service orchestrates the scraping, analysis, transcription and
// storage adapters behind the HTTP API, and runs batch jobs.
package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/tokscope/internal/adapters/mq/queue"
	"github.com/okian/tokscope/internal/adapters/mq/worker"
	"github.com/okian/tokscope/internal/adapters/repository"
	"github.com/okian/tokscope/internal/domain/dedupe"
	"github.com/okian/tokscope/internal/domain/model"
	"github.com/okian/tokscope/pkg/logger"
	"github.com/okian/tokscope/pkg/metrics"
)

// Service implements the API dependencies.
type Service struct {
	mu sync.RWMutex

	scraper     Scraper
	analyzer    Analyzer
	transcriber Transcriber
	extractor   AudioExtractor
	transcripts TranscriptStore
	media       MediaLibrary
	cache       repository.Store

	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	pool    *worker.Pool
	jobs    *jobRegistry
	flights singleflight.Group

	// submitMu makes claiming a key and registering its job one step.
	submitMu sync.Mutex

	workerCount   int
	queueSize     int
	batchDelay    time.Duration
	maxBatchItems int
	dedupeSize    int
	maxJobs       int
	dataDir       string

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithScraper sets the scraping client.
func WithScraper(s Scraper) Option { return func(svc *Service) { svc.scraper = s } }

// WithAnalyzer sets the generative analysis client.
func WithAnalyzer(a Analyzer) Option { return func(svc *Service) { svc.analyzer = a } }

// WithTranscriber sets the transcription chain.
func WithTranscriber(t Transcriber) Option { return func(svc *Service) { svc.transcriber = t } }

// WithExtractor sets the audio extractor.
func WithExtractor(x AudioExtractor) Option { return func(svc *Service) { svc.extractor = x } }

// WithTranscriptStore sets where transcripts are kept.
func WithTranscriptStore(t TranscriptStore) Option { return func(svc *Service) { svc.transcripts = t } }

// WithMediaLibrary sets the media buckets.
func WithMediaLibrary(m MediaLibrary) Option { return func(svc *Service) { svc.media = m } }

// WithVideoCache sets the process-wide video cache.
func WithVideoCache(c repository.Store) Option { return func(svc *Service) { svc.cache = c } }

// WithWorkerCount sets the number of batch workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize bounds the number of queued batch jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithBatchDelay sets the pause between batch items.
func WithBatchDelay(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.batchDelay = d
		}
	}
}

// WithMaxBatchItems bounds the videos of one batch.
func WithMaxBatchItems(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBatchItems = n
		}
	}
}

// WithDedupeSize bounds the remembered idempotency keys.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxJobs bounds the finished jobs kept for polling.
func WithMaxJobs(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxJobs = n
		}
	}
}

// WithDataDir sets the local data root.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.dataDir = dir
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Without WithVideoCache an unmirrored cache is used.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   1,
		queueSize:     16,
		batchDelay:    time.Second,
		maxBatchItems: 200,
		dedupeSize:    10000,
		maxJobs:       500,
		dataDir:       "public",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.jobs = newJobRegistry(s.maxJobs)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start creates the batch queue and starts the workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if s.cache == nil {
		s.cache = repository.NewVideoStore(ctx)
	}

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.batchDelay, s.queue, batchHandler{s}, batchTracker{s})
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Duration("batch_delay", s.batchDelay),
		logger.Bool("scraper", s.scraper != nil),
		logger.Bool("analyzer", s.analyzer != nil),
		logger.Bool("transcriber", s.transcriber != nil && s.transcriber.Configured()),
	)
	return nil
}

// Stop drains the workers and closes the cache.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.logger.Info(ctx, "stopping service")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker shutdown incomplete", logger.Error(err))
	}
	if ids := s.jobs.failQueued(worker.ErrStopped.Error()); len(ids) > 0 {
		for range ids {
			metrics.RecordBatchJob(string(model.StatusFailed))
		}
		s.logger.Warn(ctx, "queued batches dropped at shutdown", logger.Int("jobs", len(ids)))
	}
	if closer, ok := s.cache.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	s.started = false
	s.logger.Info(ctx, "service stopped")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":                 s.started,
		"workerCount":             s.workerCount,
		"queueCapacity":           s.queueSize,
		"batchDelayMs":            s.batchDelay.Milliseconds(),
		"idempotencyKeys":         s.deduper.Size(),
		"jobs":                    s.jobs.countByStatus(),
		"scraperConfigured":       s.scraper != nil,
		"analyzerConfigured":      s.analyzer != nil,
		"transcriptionConfigured": s.transcriber != nil && s.transcriber.Configured(),
		"storageConfigured":       s.transcripts != nil,
	}
	if s.started {
		queued := s.queue.Len(ctx)
		cached := s.cache.Count(ctx)
		stats["queueLength"] = queued
		stats["videosCached"] = cached
		metrics.UpdateQueueSize(queued, s.queueSize)
		metrics.UpdateVideosCached(cached)
	}
	return stats
}
