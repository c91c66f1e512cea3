// Package llm implements the LLM capability interface used by the
// optional Refine pipeline stage, plus a concrete implementation backed by
// github.com/anthropics/anthropic-sdk-go.
package llm

import "context"

// Model is the capability surface the core depends on. The pipeline's
// Refine stage is skipped entirely when no Model is configured; nothing in
// internal/inference or internal/matcher imports this package.
type Model interface {
	Complete(ctx context.Context, prompt string) (string, error)
	ModelName() string
	MaxTokens() int
	IsReady() bool
}
