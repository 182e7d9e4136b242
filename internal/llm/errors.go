package llm

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	// ErrNotConfigured means no API key is set for any backend.
	ErrNotConfigured = errors.New("llm: no provider configured")

	// ErrRateLimited is returned by Limited when the local budget is spent.
	ErrRateLimited = errors.New("llm: local rate limit exceeded")

	// ErrEmptyAnswer is returned when the provider answered with no text.
	ErrEmptyAnswer = errors.New("llm: empty answer")
)

// HTTPError is a non-200 response from a provider API.
type HTTPError struct {
	Status     int
	Body       string
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
}

// ParseRetryAfter reads a Retry-After header given in seconds. Zero when absent
// or in HTTP-date form.
func ParseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
