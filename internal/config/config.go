// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Nested sections map to env names with a double underscore, e.g.
//   TOKSCOPE_GEMINI__API_KEY -> gemini.api_key.
package config

import "time"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DataDir is the root for local transcripts, mirrors and scratch audio.
	DataDir string `koanf:"data_dir"`

	// RateLimitPerMinute throttles vendor-backed routes per client IP. Zero disables it.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`

	Apify    ApifyConfig    `koanf:"apify"`
	Gemini   GeminiConfig   `koanf:"gemini"`
	OpenAI   WhisperConfig  `koanf:"openai"`
	Groq     WhisperConfig  `koanf:"groq"`
	Supabase SupabaseConfig `koanf:"supabase"`
	Cache    CacheConfig    `koanf:"cache"`
	Batch    BatchConfig    `koanf:"batch"`
	FFmpeg   FFmpegConfig   `koanf:"ffmpeg"`
}

// ApifyConfig configures the scraping actors.
type ApifyConfig struct {
	Token       string        `koanf:"token"`
	BaseURL     string        `koanf:"base_url"`
	SearchActor string        `koanf:"search_actor"`
	VideoActor  string        `koanf:"video_actor"`
	Timeout     time.Duration `koanf:"timeout"`
}

// GeminiConfig configures the generative analysis client.
type GeminiConfig struct {
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`
	BaseURL string `koanf:"base_url"`
}

// WhisperConfig configures an OpenAI-compatible transcription endpoint.
type WhisperConfig struct {
	APIKey         string `koanf:"api_key"`
	BaseURL        string `koanf:"base_url"`
	Model          string `koanf:"model"`
	ResponseFormat string `koanf:"response_format"`
}

// SupabaseConfig configures object storage.
type SupabaseConfig struct {
	URL              string `koanf:"url"`
	Key              string `koanf:"key"`
	TranscriptBucket string `koanf:"transcript_bucket"`
	VideoBucket      string `koanf:"video_bucket"`
	AudioBucket      string `koanf:"audio_bucket"`
	CacheBucket      string `koanf:"cache_bucket"`
}

// Enabled reports whether both URL and key are present.
func (s SupabaseConfig) Enabled() bool { return s.URL != "" && s.Key != "" }

// CacheConfig selects where the video cache is mirrored.
type CacheConfig struct {
	// Mirror is one of none, file, bucket, redis.
	Mirror        string `koanf:"mirror"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	Key           string `koanf:"key"`
}

// BatchConfig bounds the batch queue and paces vendor calls.
type BatchConfig struct {
	QueueSize int           `koanf:"queue_size"`
	Delay     time.Duration `koanf:"delay"`
	MaxItems  int           `koanf:"max_items"`
}

// FFmpegConfig points at the ffmpeg binary.
type FFmpegConfig struct {
	Path string `koanf:"path"`
}

// Mirror kinds accepted by CacheConfig.Mirror.
const (
	MirrorNone   = "none"
	MirrorFile   = "file"
	MirrorBucket = "bucket"
	MirrorRedis  = "redis"
)

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		DataDir:            "public",
		RateLimitPerMinute: 60,
		Apify: ApifyConfig{
			BaseURL:     "https://api.apify.com/v2",
			SearchActor: "novi/fast-tiktok-scraper",
			VideoActor:  "novi/fast-tiktok-api",
			Timeout:     5 * time.Minute,
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.0-flash",
		},
		OpenAI: WhisperConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "whisper-1",
			ResponseFormat: "json",
		},
		Groq: WhisperConfig{
			BaseURL:        "https://api.groq.com/openai/v1",
			Model:          "whisper-large-v3",
			ResponseFormat: "verbose_json",
		},
		Supabase: SupabaseConfig{
			TranscriptBucket: "temporary_files",
			VideoBucket:      "videos",
			AudioBucket:      "audios",
			CacheBucket:      "temporary_files",
		},
		Cache: CacheConfig{
			Mirror: MirrorNone,
			Key:    "tokscope:videos",
		},
		Batch: BatchConfig{
			QueueSize: 16,
			Delay:     time.Second,
			MaxItems:  200,
		},
		FFmpeg: FFmpegConfig{
			Path: "ffmpeg",
		},
	}
}
