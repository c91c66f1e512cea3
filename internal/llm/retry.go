package llm

import (
	"regexp"
	"strconv"
	"time"
)

// RetryConfig tunes the backoff applied between retried completions.
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
}

// DefaultRetryConfig is a bounded-attempts, exponential-backoff policy for
// LLM requests.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        5,
		InitialBackoff:    2 * time.Second,
		MaxBackoff:        60 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Backoff computes the wait before the given attempt (0-indexed). If
// retryAfter is non-zero (the API supplied one, e.g. via a 429 response),
// it is used as the base instead of InitialBackoff.
func (c RetryConfig) Backoff(attempt int, retryAfter time.Duration) time.Duration {
	base := c.InitialBackoff
	if retryAfter > 0 {
		base = retryAfter
	}

	multiplier := 1.0
	for i := 0; i < attempt; i++ {
		multiplier *= c.BackoffMultiplier
	}

	backoff := time.Duration(float64(base) * multiplier)
	if backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}
	return backoff
}

// retryAfterRegex extracts a server-suggested delay from error text such as
// "please retry after 30s" or "retry-after: 30".
var retryAfterRegex = regexp.MustCompile(`(?i)retry[-_ ]?after[:\s]+(\d+(?:\.\d+)?)\s*s?`)

// extractRetryAfter returns the suggested delay embedded in errText, or 0
// if none is found.
func extractRetryAfter(errText string) time.Duration {
	matches := retryAfterRegex.FindStringSubmatch(errText)
	if len(matches) < 2 {
		return 0
	}
	seconds, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
