// Package httpclient builds the retrying HTTP clients shared by the page
// fetcher and the Astra Data API store.
package httpclient

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const (
	DefaultRetryMax     = 3
	DefaultTimeout      = 30 * time.Second
	MaxIdleConns        = 100
	MaxIdleConnsPerHost = 20
	IdleConnTimeout     = 30 * time.Second
)

// Option configures a client built by New.
type Option func(*retryablehttp.Client)

// WithRetryMax sets the maximum number of retries. Zero disables retrying.
func WithRetryMax(n int) Option {
	return func(c *retryablehttp.Client) {
		c.RetryMax = n
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *retryablehttp.Client) {
		c.HTTPClient.Timeout = d
		if t, ok := c.HTTPClient.Transport.(*http.Transport); ok {
			t.ResponseHeaderTimeout = d
		}
	}
}

// WithRetryPolicy replaces the retry policy.
func WithRetryPolicy(policy retryablehttp.CheckRetry) Option {
	return func(c *retryablehttp.Client) {
		c.CheckRetry = policy
	}
}

// WithWaitBounds sets the minimum and maximum backoff between attempts.
func WithWaitBounds(minWait, maxWait time.Duration) Option {
	return func(c *retryablehttp.Client) {
		c.RetryWaitMin = minWait
		c.RetryWaitMax = maxWait
	}
}

// WithLogger sets the logger used for request and retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *retryablehttp.Client) {
		c.Logger = &leveledLogger{logger: logger}
	}
}

// New returns an *http.Client whose transport retries transient failures
// with exponential backoff.
func New(opts ...Option) *http.Client {
	client := &retryablehttp.Client{
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
				MaxIdleConns:          MaxIdleConns,
				MaxIdleConnsPerHost:   MaxIdleConnsPerHost,
				IdleConnTimeout:       IdleConnTimeout,
				ResponseHeaderTimeout: DefaultTimeout,
			},
		},
		Logger:       &leveledLogger{logger: slog.Default().With("component", "http-client")},
		RetryWaitMin: 1 * time.Second,
		RetryWaitMax: 30 * time.Second,
		RetryMax:     DefaultRetryMax,
		Backoff:      retryablehttp.DefaultBackoff,
		CheckRetry:   IgnoreBadRequestRetryPolicy,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client.StandardClient()
}

// IgnoreBadRequestRetryPolicy retries like retryablehttp.DefaultRetryPolicy but
// never retries a cancelled context or a 4xx response other than 429.
func IgnoreBadRequestRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	if resp != nil && resp.StatusCode >= 400 && resp.StatusCode < 500 &&
		resp.StatusCode != http.StatusTooManyRequests {
		return false, nil
	}

	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}
