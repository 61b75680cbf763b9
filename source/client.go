package source

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/poiesic/editais/core"
)

// ClientConfig configures the resilient HTTP client of one adapter.
type ClientConfig struct {
	BaseURL            string
	Timeout            time.Duration
	Retry              RetryPolicy
	RateLimitPerSecond float64
	UserAgent          string
}

// Client is the HTTP client shared by all portal adapters. It layers a
// minimum inter-request interval (rate-limit floor), classified retries
// with backoff, and a circuit breaker on top of resty.
//
// The rate limiter and breaker state are per-instance: construct one Client
// per adapter and share nothing between portals.
type Client struct {
	http    *resty.Client
	source  core.SourceName
	retry   RetryPolicy
	breaker *Breaker
	logger  *slog.Logger

	// Rate-limit floor state, written under mu per request slot.
	minInterval time.Duration
	mu          sync.Mutex
	nextSlot    time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger sets a custom logger. Default is slog.Default().
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// WithBreaker sets a custom circuit breaker. Default opens after 5
// consecutive failures with a 30s cooldown.
func WithBreaker(b *Breaker) ClientOption {
	return func(c *Client) {
		if b != nil {
			c.breaker = b
		}
	}
}

// NewClient creates a resilient client for one portal.
func NewClient(source core.SourceName, cfg ClientConfig, opts ...ClientOption) *Client {
	httpClient := resty.New().SetBaseURL(cfg.BaseURL)
	if cfg.Timeout > 0 {
		httpClient.SetTimeout(cfg.Timeout)
	}
	if cfg.UserAgent != "" {
		httpClient.SetHeader("User-Agent", cfg.UserAgent)
	}
	// Retries are classified by our own policy, not resty's.
	httpClient.SetRetryCount(0)

	var minInterval time.Duration
	if cfg.RateLimitPerSecond > 0 {
		minInterval = time.Duration(float64(time.Second) / cfg.RateLimitPerSecond)
	}

	c := &Client{
		http:        httpClient,
		source:      source,
		retry:       cfg.Retry,
		breaker:     NewBreaker(5, 30*time.Second),
		logger:      slog.Default(),
		minInterval: minInterval,
	}
	if c.retry.MaxAttempts == 0 {
		c.retry = DefaultRetryPolicy()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Breaker exposes the client's circuit breaker so adapters can report
// health from its state.
func (c *Client) Breaker() *Breaker {
	return c.breaker
}

// Get fetches path with the given query parameters under the full
// resilience stack. Returns the response body on success; the terminal
// error is always a *SourceAPIError (or a context error).
func (c *Client) Get(ctx context.Context, path string, query map[string]string) ([]byte, error) {
	if !c.breaker.Allow() {
		return nil, &SourceAPIError{Source: c.source, Attempts: 0, Err: ErrCircuitOpen}
	}

	var (
		body       []byte
		lastStatus int
		attempts   int
	)

	err := c.retry.Do(ctx, func() Outcome {
		attempts++
		if err := c.waitTurn(ctx); err != nil {
			return TerminalFailure(err)
		}

		resp, err := c.http.R().SetContext(ctx).SetQueryParams(query).Get(path)
		if err != nil {
			// Transport-level failures (DNS, reset, timeout) are retryable.
			lastStatus = 0
			return RetryableFailure(err)
		}

		lastStatus = resp.StatusCode()
		switch {
		case resp.IsSuccess():
			body = resp.Body()
			return Succeeded()
		case lastStatus == 429:
			wait := retryAfter(resp.Header().Get("Retry-After"), c.retry.RetryAfterDefault)
			return RetryableAfter(fmt.Errorf("rate limited by %s", c.source), wait)
		case retryableStatus(lastStatus):
			return RetryableFailure(fmt.Errorf("transient status %d from %s", lastStatus, c.source))
		default:
			// 400, 404 and friends: the request itself is wrong, do not retry.
			return TerminalFailure(fmt.Errorf("terminal status %d from %s", lastStatus, c.source))
		}
	})

	if err != nil {
		c.breaker.RecordFailure()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &SourceAPIError{Source: c.source, StatusCode: lastStatus, Attempts: attempts, Err: err}
	}

	c.breaker.RecordSuccess()
	return body, nil
}

// Ping performs a cheap canary request against the base URL. Used by health
// checks before a full fetch.
func (c *Client) Ping(ctx context.Context, path string) Health {
	start := time.Now()
	resp, err := c.http.R().SetContext(ctx).Get(path)
	if err != nil {
		return HealthUnavailable
	}
	if !resp.IsSuccess() {
		return HealthUnavailable
	}
	if time.Since(start) > 2*time.Second {
		return HealthDegraded
	}
	return HealthAvailable
}

// waitTurn enforces the minimum inter-request interval. Each caller claims
// the next free slot under the lock, then sleeps outside it, so concurrent
// callers queue up at minInterval spacing instead of stampeding.
func (c *Client) waitTurn(ctx context.Context) error {
	if c.minInterval <= 0 {
		return nil
	}

	c.mu.Lock()
	now := time.Now()
	slot := c.nextSlot
	if slot.Before(now) {
		slot = now
	}
	c.nextSlot = slot.Add(c.minInterval)
	c.mu.Unlock()

	wait := time.Until(slot)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// retryableStatus reports whether an HTTP status is worth retrying.
func retryableStatus(status int) bool {
	switch status {
	case 408, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// retryAfter parses a Retry-After header in delta-seconds form. Anything
// else (including HTTP-date forms) falls back to the default.
func retryAfter(header string, fallback time.Duration) time.Duration {
	if header == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
