package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/flowforge/ingestcore/internal/codec"
	"github.com/flowforge/ingestcore/internal/config"
	"github.com/flowforge/ingestcore/internal/format"
	"github.com/flowforge/ingestcore/internal/ingest"
	"github.com/flowforge/ingestcore/internal/inference"
	"github.com/flowforge/ingestcore/internal/llm"
	"github.com/flowforge/ingestcore/internal/matcher"
	"github.com/flowforge/ingestcore/internal/schema"
	"github.com/flowforge/ingestcore/internal/staging"
	"github.com/flowforge/ingestcore/internal/transform"
)

// resolveProfile runs the layered config resolution (defaults, global
// config, repo config, env, flags) using the process-wide flagValues as the
// highest-precedence layer.
func resolveProfile() (*config.ResolvedConfig, error) {
	return config.Resolve(config.ResolveOptions{
		ProfileName: flagValues.Profile,
		Flags:       flagValues.ToProfile(),
	})
}

// openStagingStore opens (and, if absent, initializes) the staging store at
// profile.StorePath.
func openStagingStore(profile *config.Profile) (*staging.Store, error) {
	path := profile.StorePath
	if path == "" {
		path = config.DefaultStorePath
	}
	store, err := staging.Open(path, nil)
	if err != nil {
		return nil, err
	}
	initialized, err := store.IsInitialized(context.Background())
	if err != nil {
		store.Close()
		return nil, err
	}
	if !initialized {
		if err := store.Init(context.Background()); err != nil {
			store.Close()
			return nil, err
		}
	}
	return store, nil
}

// buildSource constructs the ingest.Source named by cfg.Type. Only "local"
// is backed by a real implementation in this binary; object_store and
// remote_volume sources require a caller-supplied client (an S3 or volume
// SDK handle) that the CLI has no way to construct from a TOML profile
// alone, so they're surfaced as a usage error here and left to library
// callers that can supply one.
func buildSource(cfg config.SourceConfig) (ingest.Source, error) {
	switch cfg.Type {
	case "", "local":
		return ingest.NewLocal(ingest.LocalConfig{
			Root:           cfg.Root,
			GitTrackedOnly: cfg.GitTrackedOnly,
			SkipLargeFiles: cfg.SkipLargeFiles,
		})
	case "object_store", "remote_volume":
		return nil, fmt.Errorf("source type %q requires a client constructed outside the CLI; use the ingest package directly", cfg.Type)
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Type)
	}
}

// toInferenceConfig adapts the resolved profile's InferenceConfig into
// inference.Config, falling back to inference.DefaultConfig for
// MinFieldFrequency, MaxDepth, MaxExamples and FormatConfidenceThreshold
// when they are zero. The other fields are taken as given.
func toInferenceConfig(c config.InferenceConfig) inference.Config {
	d := inference.DefaultConfig()
	out := inference.Config{
		SampleSize:                c.SampleSize,
		MinFieldFrequency:         c.MinFieldFrequency,
		DetectFormats:             c.DetectFormats,
		MaxDepth:                  c.MaxDepth,
		CollectExamples:           c.CollectExamples,
		MaxExamples:               c.MaxExamples,
		AssumeNullable:            c.AssumeNullable,
		FormatConfidenceThreshold: c.FormatConfidenceThreshold,
	}
	if out.MinFieldFrequency == 0 {
		out.MinFieldFrequency = d.MinFieldFrequency
	}
	if out.MaxDepth == 0 {
		out.MaxDepth = d.MaxDepth
	}
	if out.MaxExamples == 0 {
		out.MaxExamples = d.MaxExamples
	}
	if out.FormatConfidenceThreshold == 0 {
		out.FormatConfidenceThreshold = d.FormatConfidenceThreshold
	}
	return out
}

// toMatcherConfig adapts the resolved profile's MatcherConfig into
// matcher.Config, falling back to matcher.DefaultConfig for MinConfidence,
// MaxEditDistance and SuggestionLimit when they are zero. The boolean
// fields are taken as given.
func toMatcherConfig(c config.MatcherConfig) matcher.Config {
	d := matcher.DefaultConfig()
	out := matcher.Config{
		MinConfidence:        c.MinConfidence,
		CaseInsensitive:      c.CaseInsensitive,
		FuzzyMatching:        c.FuzzyMatching,
		MaxEditDistance:      c.MaxEditDistance,
		SuggestTypeCoercions: c.SuggestTypeCoercions,
		TrackExtras:          c.TrackExtras,
		TrackGaps:            c.TrackGaps,
		SuggestionLimit:      c.SuggestionLimit,
	}
	if out.MinConfidence == 0 {
		out.MinConfidence = d.MinConfidence
	}
	if out.MaxEditDistance == 0 {
		out.MaxEditDistance = d.MaxEditDistance
	}
	if out.SuggestionLimit == 0 {
		out.SuggestionLimit = d.SuggestionLimit
	}
	return out
}

// buildModel constructs the Refine stage's llm.Model from ModelConfig. It
// returns nil (not an error) when the model is disabled, since an absent
// Model is how the pipeline skips Refine.
func buildModel(c config.ModelConfig) llm.Model {
	if !c.Enabled {
		return nil
	}
	apiKeyEnv := c.APIKeyEnv
	if apiKeyEnv == "" {
		apiKeyEnv = "ANTHROPIC_API_KEY"
	}
	return llm.NewClaude(llm.ClaudeConfig{
		APIKey:      os.Getenv(apiKeyEnv),
		Model:       c.Name,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	})
}

// loadTargetSchema reads and decodes the target schema document at path,
// returning its root InferredType for use as pipeline.RunConfig.TargetSchema.
func loadTargetSchema(path string) (*schema.InferredType, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading target schema %s: %w", path, err)
	}
	model, inferred, err := (codec.JSONCodec{}).Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding target schema %s: %w", path, err)
	}
	if inferred != nil {
		return &inferred.Root, nil
	}
	return dataModelToInferredType(model), nil
}

// dataModelToInferredType projects a DataModel's first table into an
// InferredType, so a previously-exported DataModel can itself be used as a
// target schema for a later pipeline run's Map stage.
func dataModelToInferredType(model *codec.DataModel) *schema.InferredType {
	if model == nil || len(model.Tables) == 0 {
		t := schema.Unknown()
		return &t
	}
	props := make(map[string]*schema.InferredField, len(model.Tables[0].Columns))
	for _, col := range model.Tables[0].Columns {
		props[col.Name] = &schema.InferredField{
			Type:     schema.String(format.None),
			Required: !col.Nullable,
			Nullable: col.Nullable,
		}
	}
	t := schema.Object(props)
	return &t
}

// resolveTransformFormat maps a string flag/profile value to a
// transform.Format, defaulting to SQL.
func resolveTransformFormat(s string) transform.Format {
	switch transform.Format(s) {
	case transform.SQL, transform.Filter, transform.Script, transform.DistributedBatch:
		return transform.Format(s)
	default:
		return transform.SQL
	}
}
