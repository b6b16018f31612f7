// Package fetch holds the outbound HTTP plumbing shared by the vendor adapters:
// browser-like media downloads and uniform upstream status errors.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	maxErrorBody      = 512
	defaultTimeout    = 2 * time.Minute
	defaultMaxBody    = 200 << 20
	maxRedirects      = 10
	browserUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	browserAcceptLang = "en-US,en;q=0.9"
)

// Client downloads media from CDNs that reject non-browser user agents.
type Client struct {
	http    *http.Client
	maxBody int64
	service string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithMaxBody caps the number of bytes Download will read.
func WithMaxBody(n int64) Option {
	return func(cl *Client) {
		if n > 0 {
			cl.maxBody = n
		}
	}
}

// WithService names the upstream in StatusError values.
func WithService(name string) Option {
	return func(cl *Client) {
		if name != "" {
			cl.service = name
		}
	}
}

// New builds a download client.
func New(opts ...Option) *Client {
	c := &Client{
		http: &http.Client{
			Timeout: defaultTimeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		maxBody: defaultMaxBody,
		service: "download",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Download GETs url with browser headers and returns the body.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	SetBrowserHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.service, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ReadStatusError(c.service, resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", c.service, err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%s: %w (%d bytes)", c.service, ErrTooLarge, c.maxBody)
	}
	return body, nil
}

// SetBrowserHeaders makes req look like a desktop browser fetch.
func SetBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", browserAcceptLang)
	req.Header.Set("Connection", "keep-alive")
}

// ReadStatusError drains a failed response into a StatusError.
func ReadStatusError(service string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody*2))
	return &StatusError{Service: service, StatusCode: resp.StatusCode, Body: string(body)}
}
