package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/renameio/v2"
)

const defaultFilesURL = "/files"

// Files stores objects as <root>/<bucket>/<key>. Writes are atomic.
type Files struct {
	root    string
	baseURL string
}

// FilesOption configures a Files store.
type FilesOption func(*Files)

// WithPublicBase sets the URL prefix PublicURL hands out, default "/files".
func WithPublicBase(u string) FilesOption {
	return func(f *Files) {
		if u != "" {
			f.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// NewFiles roots a store at dir, creating it if needed.
func NewFiles(dir string, opts ...FilesOption) (*Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	f := &Files{root: dir, baseURL: defaultFilesURL}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Root returns the directory the store writes under.
func (f *Files) Root() string { return f.root }

// Name implements ObjectStore.
func (f *Files) Name() string { return "files" }

func (f *Files) path(bucket, key string) (string, error) {
	if err := cleanBucket(bucket); err != nil {
		return "", err
	}
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(f.root, bucket, filepath.FromSlash(k)), nil
}

// Upload implements ObjectStore.
func (f *Files) Upload(ctx context.Context, bucket, key string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := f.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create dir for %s/%s: %w", bucket, key, err)
	}
	if err := renameio.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("write %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Download implements ObjectStore.
func (f *Files) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := f.path(bucket, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s/%s: %w", bucket, key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// List implements ObjectStore.
func (f *Files) List(ctx context.Context, bucket, prefix string) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cleanBucket(bucket); err != nil {
		return nil, err
	}
	prefix = strings.Trim(prefix, "/")
	dir := filepath.Join(f.root, bucket)
	if prefix != "" {
		k, err := cleanKey(prefix)
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(dir, filepath.FromSlash(k))
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Object{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s/%s: %w", bucket, prefix, err)
	}

	out := make([]Object, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		key := e.Name()
		if prefix != "" {
			key = path.Join(prefix, e.Name())
		}
		out = append(out, Object{
			Name:      e.Name(),
			Key:       key,
			Size:      info.Size(),
			UpdatedAt: info.ModTime().UTC(),
			PublicURL: f.PublicURL(bucket, key),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Remove implements ObjectStore.
func (f *Files) Remove(ctx context.Context, bucket string, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, key := range keys {
		p, err := f.path(bucket, key)
		if err != nil {
			return err
		}
		err = os.Remove(p)
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s/%s: %w", bucket, key, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("remove %s/%s: %w", bucket, key, err)
		}
	}
	return nil
}

// PublicURL implements ObjectStore.
func (f *Files) PublicURL(bucket, key string) string {
	segs := strings.Split(strings.TrimPrefix(key, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return f.baseURL + "/" + url.PathEscape(bucket) + "/" + strings.Join(segs, "/")
}
