package gateway

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"time"
)

// RateLimiter paces outbound requests. Satisfied by ratelimit.Limiter.
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// Client provides access to the local gateway REST API.
type Client struct {
	baseURL    string
	accountID  string
	httpClient *http.Client
	logger     *slog.Logger
	limiter    RateLimiter

	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new gateway REST client.
func NewClient(baseURL, accountID string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   baseURL,
		accountID: accountID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:       slog.Default(),
		maxRetries:   3,
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = backoff
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimiter paces requests through the given limiter.
func WithRateLimiter(l RateLimiter) ClientOption {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithInsecureTLS skips certificate verification. The local gateway
// serves a self-signed certificate, so this is the common setting.
func WithInsecureTLS() ClientOption {
	return func(c *Client) {
		c.httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
}

// AccountID returns the brokerage account the client was built for.
func (c *Client) AccountID() string {
	return c.accountID
}
