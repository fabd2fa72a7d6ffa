package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/eladgov/jobscan/internal/model"
)

// Client is a rate-limited HTTP client with exponential-backoff retry.
// A single global pacing gate spaces out all outbound calls regardless of
// destination; concurrent callers queue on it implicitly. Transient failures
// (network errors, 5xx, 429) are retried up to the attempt ceiling; other 4xx
// responses return immediately. Exhausted retries yield a *model.FetchError
// carrying the URL and final cause; Fetch never panics past its caller.
type Client struct {
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int // additional attempts after the first failure
	baseDelay  time.Duration
	logger     *slog.Logger
}

// New creates a Client that enforces minSpacing between consecutive calls and
// retries transient failures maxRetries times, starting at baseDelay and
// doubling on each subsequent retry.
func New(minSpacing time.Duration, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *Client {
	if minSpacing <= 0 {
		minSpacing = 500 * time.Millisecond
	}
	if baseDelay <= 0 {
		baseDelay = 2 * time.Second
	}
	return &Client{
		http:       &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(minSpacing), 1),
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// Fetch GETs url and returns the response body. On failure the returned error
// is a *model.FetchError wrapping the final cause.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, err := c.attempt(ctx, url)
	if err == nil {
		return body, nil
	}

	var lastErr = err
	for attempt := 1; attempt <= c.maxRetries && isRetryable(lastErr); attempt++ {
		delay := c.backoffDelay(attempt, lastErr)

		c.logger.Warn("retrying after transient error",
			"url", url,
			"attempt", attempt,
			"max_retries", c.maxRetries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return nil, &model.FetchError{URL: url, Err: ctx.Err()}
		case <-time.After(delay):
		}

		body, err = c.attempt(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
	}

	return nil, &model.FetchError{URL: url, Err: lastErr}
}

func (c *Client) attempt(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	return io.ReadAll(resp.Body)
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// If the error includes a Retry-After duration (HTTP 429), that takes precedence.
func (c *Client) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	// Exponential: baseDelay * 2^(attempt-1)
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)

	return delay
}

// isRetryable returns true if the error represents a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context cancellation is never retried.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == http.StatusTooManyRequests {
			return true
		}
		if httpErr.StatusCode >= 500 {
			return true
		}
		// Other 4xx responses are not retryable.
		return false
	}

	// Non-HTTP errors (network, DNS, timeout) are retryable.
	return true
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
