package llm

import (
	"context"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeConfig configures a Claude-backed Model.
type ClaudeConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Retry       RetryConfig
}

// Claude wraps github.com/anthropics/anthropic-sdk-go behind the Model
// capability interface. Retry/backoff uses bounded attempts, exponential
// backoff, and honors a server-suggested retry-after when present.
type Claude struct {
	cfg    ClaudeConfig
	client anthropic.Client
}

// NewClaude constructs a Claude Model. It does not contact the API; IsReady
// reports whether an API key is configured.
func NewClaude(cfg ClaudeConfig) *Claude {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-sonnet-latest"
	}
	if cfg.Retry == (RetryConfig{}) {
		cfg.Retry = DefaultRetryConfig()
	}
	return &Claude{
		cfg:    cfg,
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
	}
}

func (c *Claude) ModelName() string { return c.cfg.Model }
func (c *Claude) MaxTokens() int    { return c.cfg.MaxTokens }
func (c *Claude) IsReady() bool     { return c.cfg.APIKey != "" }

// Complete sends prompt as a single user message, retrying on
// connection/timeout/rate-limit errors up to Retry.MaxRetries times.
func (c *Claude) Complete(ctx context.Context, prompt string) (string, error) {
	if !c.IsReady() {
		return "", &Error{Kind: ConfigError, Message: "no Claude API key configured"}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: int64(c.cfg.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if c.cfg.Temperature > 0 {
		params.Temperature = anthropic.Float(c.cfg.Temperature)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retry.MaxRetries; attempt++ {
		resp, err := c.client.Messages.New(ctx, params)
		if err == nil {
			return extractText(resp)
		}

		classified := classify(err)
		lastErr = classified
		if !classified.IsRetryable() || attempt == c.cfg.Retry.MaxRetries {
			return "", classified
		}

		backoff := c.cfg.Retry.Backoff(attempt, classified.RetryAfter)
		select {
		case <-ctx.Done():
			return "", &Error{Kind: Timeout, Message: "context cancelled during retry wait", Err: ctx.Err()}
		case <-time.After(backoff):
		}
	}

	return "", &Error{Kind: MaxRetriesExceeded, Message: "exhausted retries", Err: lastErr}
}

func extractText(resp *anthropic.Message) (string, error) {
	if resp == nil {
		return "", &Error{Kind: InvalidResponse, Message: "nil response"}
	}
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", &Error{Kind: InvalidResponse, Message: "empty response content"}
	}
	return b.String(), nil
}

// classify maps a raw SDK error to the closed taxonomy by inspecting its
// message, since the SDK does not expose typed sentinel errors for every
// status.
func classify(err error) *Error {
	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "429") || strings.Contains(lower, "rate_limit") || strings.Contains(lower, "rate limit"):
		return &Error{Kind: RateLimited, Message: msg, RetryAfter: extractRetryAfter(msg), Err: err}
	case strings.Contains(lower, "deadline exceeded") || strings.Contains(lower, "timeout"):
		return &Error{Kind: Timeout, Message: msg, Err: err}
	case strings.Contains(lower, "connection") || strings.Contains(lower, "eof") || strings.Contains(lower, "dial"):
		return &Error{Kind: ConnectionError, Message: msg, Err: err}
	case strings.Contains(lower, "context_length") || strings.Contains(lower, "too many tokens") || strings.Contains(lower, "maximum context"):
		return &Error{Kind: ContextTooLarge, Message: msg, Err: err}
	case strings.Contains(lower, "overloaded") || strings.Contains(lower, "internal_server_error") || strings.Contains(lower, "5"+"00"):
		return &Error{Kind: ModelError, Message: msg, Err: err}
	default:
		return &Error{Kind: ModelError, Message: msg, Err: err}
	}
}

var _ Model = (*Claude)(nil)
