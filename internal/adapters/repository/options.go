package repository

import (
	"time"

	"github.com/okian/tokscope/pkg/logger"
)

// Option applies a configuration option to the VideoStore.
type Option func(*VideoStore)

// WithMirror mirrors every Replace to m and loads from it at start.
func WithMirror(m Mirror) Option {
	return func(s *VideoStore) {
		s.mirror = m
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *VideoStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *VideoStore) {
		if l != nil {
			s.log = l
		}
	}
}
