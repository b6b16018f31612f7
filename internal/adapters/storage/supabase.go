package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	storage_go "github.com/supabase-community/storage-go"
	supabase "github.com/supabase-community/supabase-go"

	"github.com/okian/tokscope/pkg/logger"
	"github.com/okian/tokscope/pkg/metrics"
)

const (
	storagePath = "/storage/v1"
	listLimit   = 1000
)

// Supabase stores objects in Supabase Storage buckets.
//
// The storage client applies upload headers to its shared transport, so
// uploads go through their own client under a mutex while reads, lists and
// deletes use a second client that never changes its headers.
type Supabase struct {
	uploadMu sync.Mutex
	uploader *storage_go.Client
	api      *storage_go.Client
	url      string
	log      logger.Logger
}

// NewSupabase connects to the project at url with key.
func NewSupabase(url, key string) (*Supabase, error) {
	if url == "" || key == "" {
		return nil, ErrNotConfigured
	}
	url = strings.TrimRight(url, "/")
	sb, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize supabase client: %w", err)
	}
	return &Supabase{
		uploader: sb.Storage,
		api:      storage_go.NewClient(url+storagePath, key, map[string]string{"apikey": key}),
		url:      url,
		log:      logger.Get().Named("supabase"),
	}, nil
}

// Name implements ObjectStore.
func (s *Supabase) Name() string { return "supabase" }

// Upload implements ObjectStore. Existing objects are overwritten.
func (s *Supabase) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	k, err := s.check(ctx, bucket, key)
	if err != nil {
		return err
	}
	upsert := true
	opts := storage_go.FileOptions{Upsert: &upsert}
	if contentType != "" {
		opts.ContentType = &contentType
	}

	start := time.Now()
	s.uploadMu.Lock()
	_, err = s.uploader.UploadFile(bucket, k, bytes.NewReader(data), opts)
	s.uploadMu.Unlock()
	metrics.RecordVendorCall("supabase", "upload", err, time.Since(start))
	if err != nil {
		return s.wrap("upload", bucket, k, err)
	}
	s.log.Debug(ctx, "object uploaded",
		logger.String("bucket", bucket),
		logger.String("key", k),
		logger.Int("bytes", len(data)))
	return nil
}

// Download implements ObjectStore.
func (s *Supabase) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	k, err := s.check(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	data, err := s.api.DownloadFile(bucket, k)
	metrics.RecordVendorCall("supabase", "download", err, time.Since(start))
	if err != nil {
		return nil, s.wrap("download", bucket, k, err)
	}
	return data, nil
}

// List implements ObjectStore.
func (s *Supabase) List(ctx context.Context, bucket, prefix string) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cleanBucket(bucket); err != nil {
		return nil, err
	}
	prefix = strings.Trim(prefix, "/")

	start := time.Now()
	files, err := s.api.ListFiles(bucket, prefix, storage_go.FileSearchOptions{
		Limit:         listLimit,
		SortByOptions: storage_go.SortBy{Column: "name", Order: "asc"},
	})
	metrics.RecordVendorCall("supabase", "list", err, time.Since(start))
	if err != nil {
		return nil, s.wrap("list", bucket, prefix, err)
	}

	out := make([]Object, 0, len(files))
	for _, f := range files {
		// Folders come back without an id.
		if f.Id == "" {
			continue
		}
		key := f.Name
		if prefix != "" {
			key = prefix + "/" + f.Name
		}
		obj := Object{
			Name:      f.Name,
			Key:       key,
			Size:      metadataSize(f.Metadata),
			PublicURL: s.PublicURL(bucket, key),
		}
		if t, err := time.Parse(time.RFC3339, f.UpdatedAt); err == nil {
			obj.UpdatedAt = t
		}
		out = append(out, obj)
	}
	return out, nil
}

// Remove implements ObjectStore.
func (s *Supabase) Remove(ctx context.Context, bucket string, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := cleanBucket(bucket); err != nil {
		return err
	}
	clean := make([]string, 0, len(keys))
	for _, key := range keys {
		k, err := cleanKey(key)
		if err != nil {
			return err
		}
		clean = append(clean, k)
	}
	if len(clean) == 0 {
		return nil
	}
	start := time.Now()
	removed, err := s.api.RemoveFile(bucket, clean)
	metrics.RecordVendorCall("supabase", "remove", err, time.Since(start))
	if err != nil {
		return s.wrap("remove", bucket, strings.Join(clean, ","), err)
	}
	if len(removed) == 0 {
		return fmt.Errorf("remove %s/%s: %w", bucket, strings.Join(clean, ","), ErrNotFound)
	}
	return nil
}

// PublicURL implements ObjectStore.
func (s *Supabase) PublicURL(bucket, key string) string {
	return s.url + storagePath + "/object/public/" + bucket + "/" + strings.TrimPrefix(key, "/")
}

func (s *Supabase) check(ctx context.Context, bucket, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := cleanBucket(bucket); err != nil {
		return "", err
	}
	return cleanKey(key)
}

func (s *Supabase) wrap(op, bucket, key string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%s %s/%s: %w", op, bucket, key, ErrNotFound)
	}
	return fmt.Errorf("supabase %s %s/%s: %w", op, bucket, key, err)
}

func isNotFound(err error) bool {
	var se *storage_go.StorageError
	if errors.As(err, &se) {
		if se.Status == http.StatusNotFound {
			return true
		}
		msg := strings.ToLower(se.Message)
		return strings.Contains(msg, "not found") || strings.Contains(msg, "not_found")
	}
	return false
}

func metadataSize(md any) int64 {
	m, ok := md.(map[string]any)
	if !ok {
		return 0
	}
	switch v := m["size"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	}
	return 0
}
