// Package httpclient provides the shared HTTP client for the data connectors:
// retries with backoff, a client-side rate limit, and a simple circuit
// breaker so a dead vendor fails fast instead of burning the whole run.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Config holds HTTP client tuning.
type Config struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// RateLimit is requests per second against the vendor.
	RateLimit float64
	// BreakerMax is the consecutive-failure count that opens the breaker.
	BreakerMax int
}

// DefaultConfig returns tuning suited to free-tier financial data APIs.
func DefaultConfig() Config {
	return Config{
		Timeout:      30 * time.Second,
		MaxRetries:   4,
		RetryWaitMin: 200 * time.Millisecond,
		RetryWaitMax: 10 * time.Second,
		RateLimit:    5.0,
		BreakerMax:   5,
	}
}

// Client is a rate-limited retrying HTTP client. Safe for use from the
// pipeline's concurrent workers.
type Client struct {
	client     *retryablehttp.Client
	limiter    *rate.Limiter
	breakerMax int
	log        *logrus.Entry

	mu          sync.Mutex
	consecutive int
	open        bool
	lastErr     error
}

// New creates a connector HTTP client.
func New(cfg Config, log *logrus.Entry) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.RetryMax = cfg.MaxRetries
	rc.RetryWaitMin = cfg.RetryWaitMin
	rc.RetryWaitMax = cfg.RetryWaitMax
	rc.CheckRetry = retryPolicy
	rc.Logger = nil

	return &Client{
		client:     rc,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		breakerMax: cfg.BreakerMax,
		log:        log,
	}
}

// GetJSON fetches a URL and returns the response body. Non-2xx statuses are
// errors; the caller owns interpretation of the payload.
func (c *Client) GetJSON(ctx context.Context, url string) ([]byte, error) {
	c.mu.Lock()
	if c.open {
		lastErr := c.lastErr
		c.mu.Unlock()
		return nil, fmt.Errorf("circuit breaker open: %v", lastErr)
	}
	c.mu.Unlock()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.recordFailure(err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
		c.recordFailure(err)
		return nil, err
	}

	c.mu.Lock()
	c.consecutive = 0
	c.open = false
	c.mu.Unlock()
	return io.ReadAll(resp.Body)
}

func (c *Client) recordFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutive++
	c.lastErr = err
	if c.consecutive >= c.breakerMax && !c.open {
		c.open = true
		c.log.WithField("consecutive_errors", c.consecutive).Warnf("circuit breaker opened: %v", err)
	}
}

// Close releases idle connections.
func (c *Client) Close() {
	c.client.HTTPClient.CloseIdleConnections()
}

// retryPolicy retries network errors, 429s, and 5xx gateway-class statuses.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, err
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true, nil
	}
	return false, nil
}
