package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/okian/tokscope/internal/adapters/apify"
	"github.com/okian/tokscope/internal/adapters/gemini"
	"github.com/okian/tokscope/internal/adapters/http/api"
	"github.com/okian/tokscope/internal/adapters/http/swagger"
	"github.com/okian/tokscope/internal/adapters/media"
	"github.com/okian/tokscope/internal/adapters/repository"
	"github.com/okian/tokscope/internal/adapters/storage"
	"github.com/okian/tokscope/internal/adapters/whisper"
	app "github.com/okian/tokscope/internal/app"
	"github.com/okian/tokscope/internal/config"
	"github.com/okian/tokscope/internal/domain/transcript"
	"github.com/okian/tokscope/pkg/logger"
	"github.com/okian/tokscope/pkg/metrics"
)

// HTTP server timeout constants. Writes are long because analysis and
// transcription wait on vendors.
const (
	readTimeout               = 30 * time.Second
	writeTimeout              = 10 * time.Minute
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "tokscope stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	svc, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	if _, err := svc.EnsureDirectories(ctx); err != nil {
		log.Warn(ctx, "failed to create data directories", logger.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		svc.Stop(stopCtx)
	}()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		return fmt.Errorf("http server: %w", err)
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// newHandler mounts the docs and the business API on one mux.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc,
		api.WithDataDir(cfg.DataDir),
		api.WithRateLimit(cfg.RateLimitPerMinute, time.Minute),
	).Register(ctx, mux)
	return mux
}

// buildService wires the adapters the configuration enables. Missing vendor
// keys leave the matching routes answering "not configured".
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	files, err := storage.NewFiles(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open data dir: %w", err)
	}
	var (
		backends = []storage.ObjectStore{}
		objects  storage.ObjectStore = files
	)
	if cfg.Supabase.Enabled() {
		sb, err := storage.NewSupabase(cfg.Supabase.URL, cfg.Supabase.Key)
		if err != nil {
			return nil, fmt.Errorf("connect supabase: %w", err)
		}
		backends = append(backends, sb)
		objects = sb
	}
	backends = append(backends, files)

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithDataDir(cfg.DataDir),
		app.WithQueueSize(cfg.Batch.QueueSize),
		app.WithBatchDelay(cfg.Batch.Delay),
		app.WithMaxBatchItems(cfg.Batch.MaxItems),
		app.WithTranscriptStore(storage.NewTranscriptStore(cfg.Supabase.TranscriptBucket, backends...)),
		app.WithMediaLibrary(storage.NewMediaLibrary(objects, cfg.Supabase.VideoBucket, cfg.Supabase.AudioBucket)),
		app.WithExtractor(media.New(
			media.WithFFmpeg(cfg.FFmpeg.Path),
			media.WithTempDir(filepath.Join(cfg.DataDir, "audio")),
		)),
		app.WithTranscriber(transcript.NewService(
			whisper.New("openai", cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.OpenAI.Model,
				whisper.WithResponseFormat(cfg.OpenAI.ResponseFormat)),
			whisper.New("groq", cfg.Groq.BaseURL, cfg.Groq.APIKey, cfg.Groq.Model,
				whisper.WithResponseFormat(cfg.Groq.ResponseFormat)),
		)),
	}

	if cfg.Apify.Token != "" {
		opts = append(opts, app.WithScraper(apify.New(cfg.Apify.Token,
			apify.WithBaseURL(cfg.Apify.BaseURL),
			apify.WithActors(cfg.Apify.SearchActor, cfg.Apify.VideoActor),
			apify.WithTimeout(cfg.Apify.Timeout),
		)))
	} else {
		log.Warn(ctx, "apify token missing; search is disabled")
	}

	analyzer, err := gemini.New(ctx, cfg.Gemini.APIKey,
		gemini.WithModel(cfg.Gemini.Model),
		gemini.WithBaseURL(cfg.Gemini.BaseURL),
	)
	switch {
	case errors.Is(err, gemini.ErrNotConfigured):
		log.Warn(ctx, "gemini api key missing; analysis is disabled")
	case err != nil:
		return nil, err
	default:
		opts = append(opts, app.WithAnalyzer(analyzer))
	}

	mirror, err := buildMirror(cfg, objects)
	if err != nil {
		return nil, err
	}
	cacheOpts := []repository.Option{repository.WithLogger(log.Named("video_cache"))}
	if mirror != nil {
		cacheOpts = append(cacheOpts, repository.WithMirror(mirror))
		log.Info(ctx, "video cache mirrored", logger.String("mirror", mirror.Name()))
	}
	opts = append(opts, app.WithVideoCache(repository.NewVideoStore(ctx, cacheOpts...)))

	return app.New(opts...), nil
}

// buildMirror returns the configured cache mirror, or nil for none.
func buildMirror(cfg *config.Config, objects storage.ObjectStore) (repository.Mirror, error) {
	switch cfg.Cache.Mirror {
	case config.MirrorFile:
		return repository.NewFileMirror(filepath.Join(cfg.DataDir, "data", "videos.json")), nil
	case config.MirrorBucket:
		return repository.NewBucketMirror(objects, cfg.Supabase.CacheBucket), nil
	case config.MirrorRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		return repository.NewRedisMirror(client, cfg.Cache.Key), nil
	case "", config.MirrorNone:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: unknown cache mirror %q", config.ErrInvalidConfig, cfg.Cache.Mirror)
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes the queue and cache gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats updates the gauges as a side effect.
			_ = svc.GetStats(ctx)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
