package github

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// retryable reports whether repeating the request may succeed.
func retryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Status {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// withRetry runs fn up to maxRetries extra times, doubling the wait after
// each retryable failure.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil || !retryable(lastErr) {
			return lastErr
		}
		if attempt < c.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff << attempt):
			}
		}
	}
	return lastErr
}
