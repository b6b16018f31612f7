package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/okian/tokscope/internal/domain/transcript"
	"github.com/okian/tokscope/pkg/logger"
)

const transcriptPrefix = "transcriptions"

var unsafeID = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// TranscriptKey returns the object key of a video's transcript.
func TranscriptKey(videoID string) string {
	return transcriptPrefix + "/" + unsafeID.ReplaceAllString(videoID, "_") + ".json"
}

// TranscriptStore saves transcript documents to every backend and reads
// from the first one that has them.
type TranscriptStore struct {
	backends []ObjectStore
	bucket   string
	log      logger.Logger
}

// NewTranscriptStore writes to bucket on each backend, in order of preference.
func NewTranscriptStore(bucket string, backends ...ObjectStore) *TranscriptStore {
	live := make([]ObjectStore, 0, len(backends))
	for _, b := range backends {
		if b != nil {
			live = append(live, b)
		}
	}
	return &TranscriptStore{
		backends: live,
		bucket:   bucket,
		log:      logger.Get().Named("transcripts"),
	}
}

// Save writes res for videoID. It fails only when no backend accepted it.
func (s *TranscriptStore) Save(ctx context.Context, videoID string, res transcript.Result) error {
	if len(s.backends) == 0 {
		return ErrNotConfigured
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}

	key := TranscriptKey(videoID)
	var errs []error
	for _, b := range s.backends {
		if err := b.Upload(ctx, s.bucket, key, data, "application/json"); err != nil {
			s.log.Warn(ctx, "transcript save failed",
				logger.String("backend", b.Name()),
				logger.String("key", key),
				logger.Error(err))
			errs = append(errs, err)
		}
	}
	if len(errs) == len(s.backends) {
		return fmt.Errorf("save transcript %s: %w", videoID, errors.Join(errs...))
	}
	return nil
}

// Load reads the transcript of videoID.
func (s *TranscriptStore) Load(ctx context.Context, videoID string) (transcript.Result, error) {
	key := TranscriptKey(videoID)
	var lastErr error = ErrNotFound
	for _, b := range s.backends {
		data, err := b.Download(ctx, s.bucket, key)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				lastErr = err
				s.log.Warn(ctx, "transcript load failed",
					logger.String("backend", b.Name()),
					logger.String("key", key),
					logger.Error(err))
			}
			continue
		}
		var res transcript.Result
		if err := json.Unmarshal(data, &res); err != nil {
			return transcript.Result{}, fmt.Errorf("decode transcript %s: %w", videoID, err)
		}
		return res, nil
	}
	return transcript.Result{}, fmt.Errorf("load transcript %s: %w", videoID, lastErr)
}
