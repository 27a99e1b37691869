// Package fetch retrieves source pages for ingestion and reduces them to
// their visible text.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/poiesic/pitwall/httpclient"
)

const (
	// DefaultTimeout bounds a single page fetch, including reading the body.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies the fetcher to source sites.
	DefaultUserAgent = "pitwall/1.0 (+https://github.com/poiesic/pitwall)"

	maxBodyBytes = 10 << 20
)

// HTTPFetcher downloads a page and extracts its visible text.
// Failures are logged and reported as empty text, never as errors.
type HTTPFetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	logger    *slog.Logger
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher) error

// WithTimeout sets the per-fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		f.timeout = d
		return nil
	}
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *HTTPFetcher) error {
		if client == nil {
			return errors.New("http client cannot be nil")
		}
		f.client = client
		return nil
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) error {
		f.userAgent = ua
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *HTTPFetcher) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		f.logger = logger.With("component", "fetcher")
		return nil
	}
}

// NewHTTPFetcher creates a fetcher. The default client does not retry.
func NewHTTPFetcher(opts ...Option) (*HTTPFetcher, error) {
	f := &HTTPFetcher{
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
		logger:    slog.Default().With("component", "fetcher"),
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	if f.client == nil {
		f.client = httpclient.New(
			httpclient.WithRetryMax(0),
			httpclient.WithTimeout(f.timeout),
			httpclient.WithLogger(f.logger),
		)
	}
	return f, nil
}

// Fetch returns the visible text of the page at url, or "" on any failure.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) string {
	text, err := f.fetch(ctx, url)
	if err != nil {
		f.logger.Warn("fetch failed, skipping source", "url", url, "err", err)
		return ""
	}
	f.logger.Debug("fetched source", "url", url, "chars", len(text))
	return text
}

func (f *HTTPFetcher) fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "", "text/html", "application/xhtml+xml", "text/plain":
	default:
		return "", fmt.Errorf("unsupported content type %q", mediaType)
	}

	// Pages declaring a legacy charset are decoded to UTF-8 before parsing.
	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodyBytes), contentType)
	if err != nil {
		return "", fmt.Errorf("decode %s body: %w", contentType, err)
	}
	if mediaType == "text/plain" {
		raw, err := io.ReadAll(body)
		if err != nil {
			return "", err
		}
		return normalizeLines(string(raw)), nil
	}
	return ExtractText(body)
}

// normalizeLines collapses whitespace inside each line and keeps at most one
// blank line between lines of text.
func normalizeLines(s string) string {
	var out []string
	blank := false
	for line := range strings.Lines(s) {
		l := strings.Join(strings.Fields(line), " ")
		if l == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}
