package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/google/renameio/v2"
	"github.com/redis/go-redis/v9"

	"github.com/okian/tokscope/internal/adapters/storage"
	"github.com/okian/tokscope/internal/domain/video"
)

// CacheObjectKey is where the bucket mirror keeps the cache.
const CacheObjectKey = "cache/videos.json"

func encode(videos []video.Cached) ([]byte, error) {
	if videos == nil {
		videos = []video.Cached{}
	}
	data, err := json.Marshal(videos)
	if err != nil {
		return nil, fmt.Errorf("encode videos: %w", err)
	}
	return data, nil
}

func decode(data []byte) ([]video.Cached, error) {
	var videos []video.Cached
	if err := json.Unmarshal(data, &videos); err != nil {
		return nil, fmt.Errorf("decode videos: %w", err)
	}
	return videos, nil
}

// FileMirror keeps the cache in a JSON file and watches it for writes from
// other processes.
type FileMirror struct {
	path string
}

// NewFileMirror mirrors to path.
func NewFileMirror(path string) *FileMirror {
	return &FileMirror{path: path}
}

// Name implements Mirror.
func (m *FileMirror) Name() string { return "file" }

// Load implements Mirror. A missing file is an empty mirror.
func (m *FileMirror) Load(_ context.Context) ([]video.Cached, error) {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", m.path, err)
	}
	return decode(data)
}

// Save implements Mirror.
func (m *FileMirror) Save(_ context.Context, videos []video.Cached) error {
	data, err := encode(videos)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create mirror dir: %w", err)
	}
	if err := renameio.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", m.path, err)
	}
	return nil
}

// Watch implements Watcher. Writes are atomic renames, so the parent
// directory is watched and events are filtered by file name.
func (m *FileMirror) Watch(ctx context.Context, changed func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create mirror dir: %w", err)
	}
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	target := filepath.Clean(m.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				changed()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", m.path, err)
		}
	}
}

// BucketMirror keeps the cache as one object in a storage bucket.
type BucketMirror struct {
	store  storage.ObjectStore
	bucket string
}

// NewBucketMirror mirrors to CacheObjectKey in bucket.
func NewBucketMirror(store storage.ObjectStore, bucket string) *BucketMirror {
	return &BucketMirror{store: store, bucket: bucket}
}

// Name implements Mirror.
func (m *BucketMirror) Name() string { return "bucket" }

// Load implements Mirror.
func (m *BucketMirror) Load(ctx context.Context) ([]video.Cached, error) {
	data, err := m.store.Download(ctx, m.bucket, CacheObjectKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decode(data)
}

// Save implements Mirror.
func (m *BucketMirror) Save(ctx context.Context, videos []video.Cached) error {
	data, err := encode(videos)
	if err != nil {
		return err
	}
	return m.store.Upload(ctx, m.bucket, CacheObjectKey, data, "application/json")
}

// RedisMirror keeps the cache as one JSON string so several instances can
// share it.
type RedisMirror struct {
	client redis.UniversalClient
	key    string
}

// NewRedisMirror mirrors to key on client.
func NewRedisMirror(client redis.UniversalClient, key string) *RedisMirror {
	return &RedisMirror{client: client, key: key}
}

// Name implements Mirror.
func (m *RedisMirror) Name() string { return "redis" }

// Load implements Mirror.
func (m *RedisMirror) Load(ctx context.Context) ([]video.Cached, error) {
	data, err := m.client.Get(ctx, m.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", m.key, err)
	}
	return decode(data)
}

// Save implements Mirror.
func (m *RedisMirror) Save(ctx context.Context, videos []video.Cached) error {
	data, err := encode(videos)
	if err != nil {
		return err
	}
	if err := m.client.Set(ctx, m.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", m.key, err)
	}
	return nil
}
