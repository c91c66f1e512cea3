package llm

import (
	"testing"
	"time"
)

func TestBackoffGrowsExponentiallyAndCaps(t *testing.T) {
	cfg := RetryConfig{
		MaxRetries:        5,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        10 * time.Second,
		BackoffMultiplier: 2.0,
	}

	if got := cfg.Backoff(0, 0); got != 1*time.Second {
		t.Fatalf("attempt 0: expected 1s, got %v", got)
	}
	if got := cfg.Backoff(1, 0); got != 2*time.Second {
		t.Fatalf("attempt 1: expected 2s, got %v", got)
	}
	if got := cfg.Backoff(2, 0); got != 4*time.Second {
		t.Fatalf("attempt 2: expected 4s, got %v", got)
	}
	if got := cfg.Backoff(10, 0); got != cfg.MaxBackoff {
		t.Fatalf("attempt 10: expected cap at %v, got %v", cfg.MaxBackoff, got)
	}
}

func TestBackoffPrefersServerSuppliedRetryAfter(t *testing.T) {
	cfg := DefaultRetryConfig()
	got := cfg.Backoff(0, 30*time.Second)
	if got != 30*time.Second {
		t.Fatalf("expected retryAfter to override InitialBackoff, got %v", got)
	}
}

func TestExtractRetryAfterParsesSeconds(t *testing.T) {
	cases := []struct {
		text string
		want time.Duration
	}{
		{"rate limited, retry after: 12s", 12 * time.Second},
		{"please wait, Retry-After 3.5s", 3500 * time.Millisecond},
		{"no hint here", 0},
	}
	for _, tc := range cases {
		if got := extractRetryAfter(tc.text); got != tc.want {
			t.Errorf("extractRetryAfter(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestErrorIsRetryableOnlyForConnectionTimeoutRateLimited(t *testing.T) {
	retryable := []Kind{ConnectionError, Timeout, RateLimited}
	for _, k := range retryable {
		e := &Error{Kind: k}
		if !e.IsRetryable() {
			t.Errorf("expected %s to be retryable", k)
		}
	}

	notRetryable := []Kind{ModelError, InvalidResponse, ParseError, ValidationError,
		RefinementError, MaxRetriesExceeded, DocumentationError, ConfigError,
		ContextTooLarge, FeatureNotAvailable}
	for _, k := range notRetryable {
		e := &Error{Kind: k}
		if e.IsRetryable() {
			t.Errorf("expected %s not to be retryable", k)
		}
	}
}

func TestErrorUnwrapReturnsUnderlyingErr(t *testing.T) {
	inner := &Error{Kind: ModelError, Message: "boom"}
	outer := &Error{Kind: RefinementError, Message: "wrapping", Err: inner}
	if outer.Unwrap() != inner {
		t.Fatalf("expected Unwrap to return the wrapped error")
	}
}
