package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/tokscope/internal/domain/video"
)

// Submission errors.
var (
	ErrEmptyBatch   = errors.New("no videos provided")
	ErrInvalidBatch = errors.New("invalid batch body")
	ErrInvalidMode  = errors.New("invalid batch mode")
	ErrTooManyItems = errors.New("too many videos in batch")
)

// Submission is a decoded batch request.
type Submission struct {
	Mode   Mode
	Videos []video.Raw
}

// ParseMode maps "" to ModeAnalyze and rejects unknown modes.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAnalyze:
		return ModeAnalyze, nil
	case ModeTranscribe:
		return ModeTranscribe, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// ParseSubmission accepts a JSON array of records or {"videos": [...],
// "mode": "..."}. A non-empty modeOverride wins over the body's mode.
func ParseSubmission(body []byte, modeOverride string) (Submission, error) {
	body = bytes.TrimSpace(body)
	var (
		videos []video.Raw
		mode   string
	)
	switch {
	case len(body) == 0:
		return Submission{}, ErrEmptyBatch
	case body[0] == '[':
		if err := json.Unmarshal(body, &videos); err != nil {
			return Submission{}, fmt.Errorf("%w: %w", ErrInvalidBatch, err)
		}
	default:
		var obj struct {
			Videos []video.Raw `json:"videos"`
			Mode   string      `json:"mode"`
		}
		if err := json.Unmarshal(body, &obj); err != nil {
			return Submission{}, fmt.Errorf("%w: %w", ErrInvalidBatch, err)
		}
		videos, mode = obj.Videos, obj.Mode
	}
	if modeOverride != "" {
		mode = modeOverride
	}

	m, err := ParseMode(mode)
	if err != nil {
		return Submission{}, err
	}
	kept := videos[:0]
	for _, v := range videos {
		if v != nil {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return Submission{}, ErrEmptyBatch
	}
	return Submission{Mode: m, Videos: kept}, nil
}

// Items turns the submitted records into batch items. Records without a
// playable URL keep an empty VideoURL; the worker reports them as failures.
func (s Submission) Items() []Item {
	items := make([]Item, len(s.Videos))
	for i, r := range s.Videos {
		id := video.ID(r)
		if id == "" {
			id = fmt.Sprintf("video-%d", i+1)
		}
		u, _ := video.ExtractPlayURL(r)
		desc, _ := r["desc"].(string)
		items[i] = Item{VideoID: id, VideoURL: u, Desc: desc, Record: r}
	}
	return items
}
