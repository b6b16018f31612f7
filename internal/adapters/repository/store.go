// Package repository holds the process-wide video cache and its optional
// mirrors.
package repository

import (
	"context"

	"github.com/okian/tokscope/internal/domain/video"
)

// Store is the video cache. The last Replace wins.
type Store interface {
	// Replace swaps the whole collection.
	Replace(ctx context.Context, videos []video.Cached) error
	// All returns the cached videos in insertion order.
	All(ctx context.Context) ([]video.Cached, error)
	// Get returns one video. Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, id string) (video.Cached, error)
	// Count returns the number of cached videos.
	Count(ctx context.Context) int
}

// Mirror persists the cache outside the process.
type Mirror interface {
	Name() string
	Load(ctx context.Context) ([]video.Cached, error)
	Save(ctx context.Context, videos []video.Cached) error
}

// Watcher is a Mirror that can report changes made by other processes.
type Watcher interface {
	Watch(ctx context.Context, changed func()) error
}
