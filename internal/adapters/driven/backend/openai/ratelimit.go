package openai

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// ProactiveRate is the proactive throttle rate in requests per second.
	// A personal assistant fires requests at human speed; this only guards
	// against scripted bursts.
	ProactiveRate = 2.0

	// ProactiveBurst allows a short burst before throttling kicks in.
	ProactiveBurst = 4

	// HeaderRetryAfter is the retry-after header (seconds).
	HeaderRetryAfter = "Retry-After"
)

// RateLimiter combines proactive token-bucket throttling with reactive
// handling of Retry-After responses from the API.
type RateLimiter struct {
	mu         sync.Mutex
	retryAfter time.Time
	bucket     *rate.Limiter
}

// NewRateLimiter creates a limiter with proactive throttling.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		bucket: rate.NewLimiter(rate.Limit(ProactiveRate), ProactiveBurst),
	}
}

// Wait blocks until it's safe to make a request.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	retryAfter := r.retryAfter
	r.mu.Unlock()

	if time.Now().Before(retryAfter) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(retryAfter)):
		}
	}

	return nil
}

// UpdateFromResponse records a Retry-After backoff from a 429 response.
func (r *RateLimiter) UpdateFromResponse(resp *http.Response) {
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		return
	}

	retryAfter := resp.Header.Get(HeaderRetryAfter)
	if retryAfter == "" {
		return
	}
	seconds, err := strconv.Atoi(retryAfter)
	if err != nil {
		return
	}

	r.mu.Lock()
	r.retryAfter = time.Now().Add(time.Duration(seconds) * time.Second)
	r.mu.Unlock()
}

// RetryAt returns when the next request is allowed after a backoff.
func (r *RateLimiter) RetryAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retryAfter
}
