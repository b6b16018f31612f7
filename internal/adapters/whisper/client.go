// Package whisper talks to OpenAI-compatible /audio/transcriptions endpoints
// (OpenAI and Groq).
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/okian/tokscope/internal/adapters/fetch"
	"github.com/okian/tokscope/pkg/logger"
	"github.com/okian/tokscope/pkg/metrics"
)

const (
	defaultTimeout  = 5 * time.Minute
	transcribePath  = "/audio/transcriptions"
	defaultFilename = "audio.mp3"
)

// ErrNoKey is returned by a client built without an API key.
var ErrNoKey = errors.New("transcription API key is missing or invalid")

// Client uploads audio and returns the recognized text.
type Client struct {
	name           string
	baseURL        string
	key            string
	model          string
	responseFormat string
	http           *http.Client
	log            logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithResponseFormat sets response_format (json, verbose_json, text).
func WithResponseFormat(f string) Option {
	return func(c *Client) { c.responseFormat = f }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New builds a client named name (used in logs, metrics and errors). Quotes
// around key are stripped.
func New(name, baseURL, key, model string, opts ...Option) *Client {
	c := &Client{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     strings.NewReplacer(`"`, "", `'`, "").Replace(strings.TrimSpace(key)),
		model:   model,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     logger.Get().Named(name),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the provider name.
func (c *Client) Name() string { return c.name }

// Configured reports whether the client has a key.
func (c *Client) Configured() bool { return c != nil && c.key != "" }

// Transcribe sends audio as filename and returns the text field of the reply.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if !c.Configured() {
		return "", ErrNoKey
	}
	start := time.Now()
	text, err := c.transcribe(ctx, audio, filename)
	metrics.RecordVendorCall(c.name, "transcribe", err, time.Since(start))
	metrics.RecordTranscription(c.name, err)
	if err != nil {
		c.log.Warn(ctx, "transcription failed",
			logger.String("model", c.model),
			logger.Int("bytes", len(audio)),
			logger.Error(err))
		return "", err
	}
	c.log.Info(ctx, "transcription finished",
		logger.String("model", c.model),
		logger.Int("chars", len(text)),
		logger.Duration("elapsed", time.Since(start)))
	return text, nil
}

func (c *Client) transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if filename == "" {
		filename = defaultFilename
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("model", c.model); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if c.responseFormat != "" {
		if err := mw.WriteField("response_format", c.responseFormat); err != nil {
			return "", fmt.Errorf("write response_format field: %w", err)
		}
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", fmt.Errorf("write file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+transcribePath, &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fetch.ReadStatusError(c.name, resp)
	}
	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%s: decode response: %w", c.name, err)
	}
	return out.Text, nil
}
