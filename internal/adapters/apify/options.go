package apify

import (
	"net/http"
	"time"

	"github.com/okian/tokscope/pkg/logger"
)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root, e.g. for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient replaces the transport client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithActors sets the search and single-video actor ids ("user/name").
func WithActors(search, video string) Option {
	return func(c *Client) {
		if search != "" {
			c.searchActor = search
		}
		if video != "" {
			c.videoActor = video
		}
	}
}

// WithTimeout bounds a whole actor run including polling.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithWaitForFinish sets the server-side wait per poll request.
func WithWaitForFinish(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.waitForFinish = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}
