package gemini

import (
	"net/http"

	"github.com/okian/tokscope/internal/adapters/fetch"
	"github.com/okian/tokscope/pkg/logger"
)

// Option configures an Analyzer.
type Option func(*options)

type options struct {
	model      string
	baseURL    string
	httpClient *http.Client
	downloader *fetch.Client
	log        logger.Logger
}

// WithModel selects the model, default gemini-2.0-flash.
func WithModel(m string) Option {
	return func(o *options) {
		if m != "" {
			o.model = m
		}
	}
}

// WithBaseURL points the client at another API root.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithHTTPClient sets the client used for API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithDownloader sets the client used to fetch videos.
func WithDownloader(d *fetch.Client) Option {
	return func(o *options) {
		if d != nil {
			o.downloader = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}
