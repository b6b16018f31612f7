// Package storage keeps transcripts, media files and cache mirrors in object
// storage: Supabase Storage buckets or a local directory tree.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
)

// Object describes a stored object.
type Object struct {
	Name      string    `json:"name"`
	Key       string    `json:"key"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
	PublicURL string    `json:"publicUrl"`
}

// ObjectStore is a bucket/key blob store.
type ObjectStore interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	// List returns the objects directly under prefix.
	List(ctx context.Context, bucket, prefix string) ([]Object, error)
	Remove(ctx context.Context, bucket string, keys ...string) error
	PublicURL(bucket, key string) string
}

// cleanKey rejects keys that would escape the bucket.
func cleanKey(key string) (string, error) {
	k := strings.TrimPrefix(key, "/")
	if k == "" || strings.Contains(k, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(k, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return path.Clean(k), nil
}

func cleanBucket(bucket string) error {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return fmt.Errorf("%w: bucket %q", ErrInvalidKey, bucket)
	}
	return nil
}
