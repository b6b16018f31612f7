// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/okian/tokscope/internal/adapters/gemini"
	"github.com/okian/tokscope/internal/adapters/storage"
	service "github.com/okian/tokscope/internal/app"
	"github.com/okian/tokscope/internal/domain/insights"
	"github.com/okian/tokscope/internal/domain/model"
	"github.com/okian/tokscope/internal/domain/transcript"
	"github.com/okian/tokscope/internal/domain/video"
	"github.com/okian/tokscope/pkg/logger"
)

const maxJSONBody = 8 << 20

// Dependencies required by HTTP handlers. *service.Service implements it.
type Dependencies interface {
	Search(ctx context.Context, req video.SearchRequest) ([]video.Video, error)
	AllVideos(ctx context.Context) ([]video.Cached, error)

	AnalyzeVideo(ctx context.Context, videoURL, videoID, desc string) (gemini.Analysis, error)
	CommentsVideo(ctx context.Context, pageURL string) (video.Raw, gemini.Analysis, error)
	GenerateComments(ctx context.Context, analysis, desc, author string) ([]string, error)

	TranscribeUpload(ctx context.Context, audio []byte, filename, videoID string) (transcript.Result, error)
	ExtractAndTranscribe(ctx context.Context, input any) (service.Extraction, error)
	GetTranscript(ctx context.Context, videoID string) (transcript.Result, error)
	EnsureDirectories(ctx context.Context) ([]service.Directory, error)

	UploadMedia(ctx context.Context, kind, filename string, data []byte, contentType string) (storage.Object, error)
	ListMedia(ctx context.Context, kind string) ([]storage.Object, error)
	DeleteMedia(ctx context.Context, kind, name string) error

	Clusters(req service.InsightsRequest) insights.ClusterGraph
	Dashboard(req service.InsightsRequest) insights.Summary

	SubmitBatch(ctx context.Context, body []byte, mode, idempotencyKey string) (model.Job, bool, error)
	GetBatch(ctx context.Context, id string) (model.Job, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps   Dependencies
	stats  *StatsHandler
	health *HealthHandler

	dataDir   string
	rateLimit int
	rateEvery time.Duration
	log       logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithDataDir serves dir under /files/.
func WithDataDir(dir string) Option {
	return func(s *Server) { s.dataDir = dir }
}

// WithRateLimit throttles vendor-backed routes to n requests per window per
// client IP. n <= 0 disables throttling.
func WithRateLimit(n int, window time.Duration) Option {
	return func(s *Server) {
		s.rateLimit = n
		if window > 0 {
			s.rateEvery = window
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:      deps,
		stats:     NewStatsHandler(statsProvider),
		health:    NewHealthHandler(),
		rateEvery: time.Minute,
		log:       logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	limited := s.limiter()
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(h, endpoint))
	}
	vendor := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.Handle(pattern, limited(MetricsMiddleware(h, endpoint)))
	}

	route("GET /healthz", "healthz", s.health.HandleHealth)
	route("GET /stats", "stats", s.stats.HandleStats)

	vendor("POST /api/search", "search", s.handleSearch)
	route("GET /api/get-all-videos", "get_all_videos", s.handleAllVideos)

	vendor("POST /api/analyze-video", "analyze_video", s.handleAnalyzeVideo)
	vendor("POST /api/ai-comments/video", "ai_comments_video", s.handleCommentsVideo)
	vendor("POST /api/ai-comments/generate", "ai_comments_generate", s.handleGenerateComments)

	vendor("POST /api/transcribe", "transcribe", s.handleTranscribe)
	vendor("POST /api/extract-audio", "extract_audio", s.handleExtractAudio)
	route("GET /api/get-transcript", "get_transcript", s.handleGetTranscript)
	route("GET /api/create-directories", "create_directories", s.handleCreateDirectories)
	route("POST /api/create-directories", "create_directories", s.handleCreateDirectories)

	route("POST /api/media/{kind}", "media_upload", s.handleMediaUpload)
	route("GET /api/media/{kind}", "media_list", s.handleMediaList)
	route("DELETE /api/media/{kind}/{name}", "media_delete", s.handleMediaDelete)

	route("POST /api/insights/clusters", "insights_clusters", s.handleClusters)
	route("POST /api/insights/dashboard", "insights_dashboard", s.handleDashboard)

	vendor("POST /api/batches", "batch_submit", s.handleSubmitBatch)
	route("GET /api/batches/{id}", "batch_get", s.handleGetBatch)

	if s.dataDir != "" {
		mux.Handle("GET /files/", http.StripPrefix("/files/", http.FileServer(http.Dir(s.dataDir))))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := errorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// fail classifies err, logs server-side failures and writes the response.
func (s *Server) fail(ctx context.Context, w http.ResponseWriter, op string, err error, fallback string) {
	status, msg := classify(err, fallback)
	if status >= http.StatusInternalServerError {
		s.log.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
	}
	writeError(w, status, msg, err)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(ErrBadRequest, err)
	}
	return nil
}
