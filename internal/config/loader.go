package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix = "TOKSCOPE_"
	envConfig = "TOKSCOPE_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if TOKSCOPE_CONFIG is set
//  3. env (prefix TOKSCOPE_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// TOKSCOPE_BATCH__QUEUE_SIZE -> batch.queue_size
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Batch.Delay <= 0:
		return fmt.Errorf("%w: batch.delay must be positive", ErrInvalidConfig)
	case c.Batch.QueueSize <= 0:
		return fmt.Errorf("%w: batch.queue_size must be positive", ErrInvalidConfig)
	}

	switch c.Cache.Mirror {
	case "", MirrorNone, MirrorFile:
	case MirrorBucket:
		if !c.Supabase.Enabled() {
			return fmt.Errorf("%w: cache.mirror=bucket requires supabase.url and supabase.key", ErrInvalidConfig)
		}
	case MirrorRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("%w: cache.mirror=redis requires cache.redis_addr", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown cache.mirror %q", ErrInvalidConfig, c.Cache.Mirror)
	}
	return nil
}
