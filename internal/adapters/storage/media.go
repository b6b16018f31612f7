package storage

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Media kinds and their default buckets.
const (
	KindVideos = "videos"
	KindAudios = "audios"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// MediaLibrary uploads, lists and deletes user media files.
type MediaLibrary struct {
	store   ObjectStore
	buckets map[string]string
	now     func() time.Time
}

// NewMediaLibrary maps kinds to buckets on store.
func NewMediaLibrary(store ObjectStore, videoBucket, audioBucket string) *MediaLibrary {
	return &MediaLibrary{
		store: store,
		buckets: map[string]string{
			KindVideos: videoBucket,
			KindAudios: audioBucket,
		},
		now: time.Now,
	}
}

func (m *MediaLibrary) bucket(kind string) (string, error) {
	b, ok := m.buckets[kind]
	if !ok || b == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return b, nil
}

// Upload stores data under a timestamped copy of filename.
func (m *MediaLibrary) Upload(ctx context.Context, kind, filename string, data []byte, contentType string) (Object, error) {
	b, err := m.bucket(kind)
	if err != nil {
		return Object{}, err
	}
	name := unsafeName.ReplaceAllString(path.Base(strings.ReplaceAll(filename, "\\", "/")), "_")
	if name == "" || name == "." || name == "_" {
		name = "upload"
	}
	key := strconv.FormatInt(m.now().UnixMilli(), 10) + "-" + name
	if err := m.store.Upload(ctx, b, key, data, contentType); err != nil {
		return Object{}, err
	}
	return Object{
		Name:      key,
		Key:       key,
		Size:      int64(len(data)),
		UpdatedAt: m.now().UTC(),
		PublicURL: m.store.PublicURL(b, key),
	}, nil
}

// List returns the files of kind.
func (m *MediaLibrary) List(ctx context.Context, kind string) ([]Object, error) {
	b, err := m.bucket(kind)
	if err != nil {
		return nil, err
	}
	return m.store.List(ctx, b, "")
}

// Delete removes name from kind.
func (m *MediaLibrary) Delete(ctx context.Context, kind, name string) error {
	b, err := m.bucket(kind)
	if err != nil {
		return err
	}
	return m.store.Remove(ctx, b, name)
}
