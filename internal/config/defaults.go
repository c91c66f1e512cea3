package config

import (
	"github.com/flowforge/ingestcore/internal/inference"
	"github.com/flowforge/ingestcore/internal/matcher"
)

// DefaultProfile returns a new Profile populated with the built-in defaults.
// This profile is used as the base when no ingestcore.toml is present or when
// a named profile omits fields.
//
// Callers receive a fresh copy each time; mutating the returned value does
// not affect subsequent calls.
func DefaultProfile() *Profile {
	infCfg := inference.DefaultConfig()
	matCfg := matcher.DefaultConfig()

	return &Profile{
		StorePath: "staging.duckdb",
		Source: SourceConfig{
			Type:           "local",
			Root:           ".",
			Pattern:        "**/*.json",
			GitTrackedOnly: false,
			SkipLargeFiles: 100 * 1024 * 1024,
			Workers:        4,
			BatchSize:      500,
			Dedup:          "both",
		},
		Inference: InferenceConfig{
			SampleSize:                infCfg.SampleSize,
			MinFieldFrequency:         infCfg.MinFieldFrequency,
			DetectFormats:             infCfg.DetectFormats,
			MaxDepth:                  infCfg.MaxDepth,
			CollectExamples:           infCfg.CollectExamples,
			MaxExamples:               infCfg.MaxExamples,
			AssumeNullable:            infCfg.AssumeNullable,
			FormatConfidenceThreshold: infCfg.FormatConfidenceThreshold,
		},
		Matcher: MatcherConfig{
			MinConfidence:        matCfg.MinConfidence,
			CaseInsensitive:      matCfg.CaseInsensitive,
			FuzzyMatching:        matCfg.FuzzyMatching,
			MaxEditDistance:      matCfg.MaxEditDistance,
			SuggestTypeCoercions: matCfg.SuggestTypeCoercions,
			TrackExtras:          matCfg.TrackExtras,
			TrackGaps:            matCfg.TrackGaps,
			SuggestionLimit:      matCfg.SuggestionLimit,
		},
		Transform: TransformConfig{
			Format: "sql",
		},
		Model: ModelConfig{
			Enabled:     false,
			APIKeyEnv:   "ANTHROPIC_API_KEY",
			Name:        "claude-3-5-sonnet-latest",
			MaxTokens:   4096,
			Temperature: 0,
		},
		OutputPath:          "schema.json",
		TransformOutputPath: "transform.sql",
		Ignore: []string{
			".git",
			"node_modules",
			"dist",
			"build",
			".ingestcore",
		},
	}
}
