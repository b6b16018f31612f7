// Package gemini sends TikTok videos to Gemini for multimodal analysis and
// runs plain text generations.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/okian/tokscope/internal/adapters/fetch"
	"github.com/okian/tokscope/pkg/logger"
	"github.com/okian/tokscope/pkg/metrics"
)

const (
	service      = "gemini"
	defaultModel = "gemini-2.0-flash"
	videoMIME    = "video/mp4"
)

// generator is the slice of genai.Models the analyzer uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Analysis is the extracted text plus the untouched model response.
type Analysis struct {
	Text string                         `json:"text"`
	Raw  *genai.GenerateContentResponse `json:"rawResponse"`
}

// Analyzer wraps a Gemini client.
type Analyzer struct {
	models     generator
	model      string
	downloader *fetch.Client
	log        logger.Logger
}

// New connects to the Gemini API with apiKey.
func New(ctx context.Context, apiKey string, opts ...Option) (*Analyzer, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	o := options{
		model:      defaultModel,
		downloader: fetch.New(fetch.WithService("video download")),
		log:        logger.Get().Named(service),
	}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: o.httpClient,
	}
	if o.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: o.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Analyzer{
		models:     client.Models,
		model:      o.model,
		downloader: o.downloader,
		log:        o.log,
	}, nil
}

// Model returns the configured model name.
func (a *Analyzer) Model() string { return a.model }

// AnalyzeVideo runs the seven-section analysis, with the caption as context.
func (a *Analyzer) AnalyzeVideo(ctx context.Context, videoURL, description string) (Analysis, error) {
	return a.analyze(ctx, videoURL, withContext(VideoPrompt, description))
}

// AnalyzeForComments runs the comment-oriented analysis.
func (a *Analyzer) AnalyzeForComments(ctx context.Context, videoURL, description string) (Analysis, error) {
	return a.analyze(ctx, videoURL, withContext(CommentsPrompt, description))
}

func (a *Analyzer) analyze(ctx context.Context, videoURL, prompt string) (Analysis, error) {
	data, err := a.downloader.Download(ctx, videoURL)
	if err != nil {
		return Analysis{}, fmt.Errorf("fetch video: %w", err)
	}
	a.log.Debug(ctx, "video downloaded",
		logger.String("url", stripQuery(videoURL)),
		logger.Int("bytes", len(data)))

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, videoMIME),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}
	return a.generate(ctx, "analyze_video", contents)
}

// Generate runs a text-only prompt and returns the text.
func (a *Analyzer) Generate(ctx context.Context, prompt string) (string, error) {
	res, err := a.generate(ctx, "generate", genai.Text(prompt))
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

func (a *Analyzer) generate(ctx context.Context, op string, contents []*genai.Content) (Analysis, error) {
	start := time.Now()
	resp, err := a.models.GenerateContent(ctx, a.model, contents, nil)
	metrics.RecordVendorCall(service, op, err, time.Since(start))
	if err != nil {
		a.log.Error(ctx, "generate content failed",
			logger.String("model", a.model),
			logger.String("operation", op),
			logger.Error(err))
		return Analysis{}, fmt.Errorf("generate content: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return Analysis{Raw: resp}, ErrNoText
	}
	a.log.Info(ctx, "generation finished",
		logger.String("operation", op),
		logger.Int("chars", len(text)),
		logger.Duration("elapsed", time.Since(start)))
	return Analysis{Text: text, Raw: resp}, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

func stripQuery(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}
