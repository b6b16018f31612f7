package service

import (
	"context"

	"github.com/okian/tokscope/internal/adapters/storage"
)

func (s *Service) mediaLibrary() (MediaLibrary, error) {
	if s.media == nil {
		return nil, ErrStorageMissing
	}
	return s.media, nil
}

// UploadMedia stores a video or audio file.
func (s *Service) UploadMedia(ctx context.Context, kind, filename string, data []byte, contentType string) (storage.Object, error) {
	m, err := s.mediaLibrary()
	if err != nil {
		return storage.Object{}, err
	}
	return m.Upload(ctx, kind, filename, data, contentType)
}

// ListMedia lists the files of a media kind.
func (s *Service) ListMedia(ctx context.Context, kind string) ([]storage.Object, error) {
	m, err := s.mediaLibrary()
	if err != nil {
		return nil, err
	}
	return m.List(ctx, kind)
}

// DeleteMedia removes one file.
func (s *Service) DeleteMedia(ctx context.Context, kind, name string) error {
	m, err := s.mediaLibrary()
	if err != nil {
		return err
	}
	return m.Delete(ctx, kind, name)
}
