package config

// Config is the top-level configuration type parsed from an ingestcore.toml
// file. It holds a map of named profiles keyed by profile name. Profile names
// are case-sensitive. The special name "default" is the built-in fallback
// profile.
type Config struct {
	// Profile maps profile names to their configuration. Access via
	// cfg.Profile["default"] or cfg.Profile["finvault"].
	Profile map[string]*Profile `toml:"profile"`
}

// Profile defines all settings for a single named profile. Fields with zero
// values are considered unset and will be filled in by the merge/inheritance
// pipeline. The Extends field enables profile inheritance.
type Profile struct {
	// Extends is the name of a parent profile to inherit from. When set,
	// all unset fields in this profile are filled from the named parent.
	Extends *string `toml:"extends"`

	// StorePath is the DuckDB staging database file. ":memory:" opens an
	// in-memory store.
	StorePath string `toml:"store_path"`

	Source     SourceConfig     `toml:"source"`
	Inference  InferenceConfig  `toml:"inference"`
	Matcher    MatcherConfig    `toml:"matcher"`
	Transform  TransformConfig  `toml:"transform"`
	Model      ModelConfig      `toml:"model"`

	// TargetSchemaPath, when set, is the path to a JSON document describing
	// the target schema the Map stage should match the inferred schema
	// against. Empty skips the Map (and, transitively, Generate) stage.
	TargetSchemaPath string `toml:"target_schema_path"`

	// OutputPath is where the Export stage writes its output: the mapping
	// encoded as a DataModel when the Map stage produced one, otherwise the
	// inferred schema.
	OutputPath string `toml:"output_path"`

	// TransformOutputPath is where the Generate stage writes its rendered
	// transform script.
	TransformOutputPath string `toml:"transform_output_path"`

	// Ignore is a list of doublestar glob patterns. Validate checks their
	// syntax; discovery does not apply them: the local source skips only
	// its built-in default paths and what .stagingignore files exclude.
	Ignore []string `toml:"ignore"`
}

// SourceConfig selects and configures the ingestion Source.
type SourceConfig struct {
	// Type is one of "local", "object_store", "remote_volume".
	Type string `toml:"type"`

	// Root is the local directory root (Type == "local").
	Root string `toml:"root"`

	// Pattern is the doublestar glob files must match to be staged.
	Pattern string `toml:"pattern"`

	// Partition labels records ingested from this source, for multi-source
	// staging stores.
	Partition string `toml:"partition"`

	// GitTrackedOnly restricts local discovery to git-tracked files.
	GitTrackedOnly bool `toml:"git_tracked_only"`

	// SkipLargeFiles, in bytes, skips files larger than this during local
	// discovery. 0 disables the limit.
	SkipLargeFiles int64 `toml:"skip_large_files"`

	// Workers bounds the ingestion pipeline's parallel hash/parse phases.
	Workers int `toml:"workers"`

	// BatchSize bounds how many records are buffered before an insert.
	BatchSize int `toml:"batch_size"`

	// Dedup is one of "none", "by_path", "by_content", "both".
	Dedup string `toml:"dedup"`
}

// InferenceConfig mirrors internal/inference.Config.
type InferenceConfig struct {
	SampleSize                int     `toml:"sample_size"`
	MinFieldFrequency         float64 `toml:"min_field_frequency"`
	DetectFormats             bool    `toml:"detect_formats"`
	MaxDepth                  int     `toml:"max_depth"`
	CollectExamples           bool    `toml:"collect_examples"`
	MaxExamples               int     `toml:"max_examples"`
	AssumeNullable            bool    `toml:"assume_nullable"`
	FormatConfidenceThreshold float64 `toml:"format_confidence_threshold"`
}

// MatcherConfig mirrors internal/matcher.Config.
type MatcherConfig struct {
	MinConfidence        float64 `toml:"min_confidence"`
	CaseInsensitive      bool    `toml:"case_insensitive"`
	FuzzyMatching        bool    `toml:"fuzzy_matching"`
	MaxEditDistance      int     `toml:"max_edit_distance"`
	SuggestTypeCoercions bool    `toml:"suggest_type_coercions"`
	TrackExtras          bool    `toml:"track_extras"`
	TrackGaps            bool    `toml:"track_gaps"`
	SuggestionLimit      int     `toml:"suggestion_limit"`
}

// TransformConfig selects the Generate stage's output shape.
type TransformConfig struct {
	// Format is one of "sql", "filter", "script", "distributed_batch".
	Format string `toml:"format"`
}

// ModelConfig configures the optional Refine stage's LLM backend.
type ModelConfig struct {
	// Enabled gates whether the Refine stage runs at all. When false (the
	// default), Refine is skipped regardless of the other fields here.
	Enabled bool `toml:"enabled"`

	// APIKeyEnv names the environment variable holding the Anthropic API
	// key. Defaults to "ANTHROPIC_API_KEY" when empty.
	APIKeyEnv string `toml:"api_key_env"`

	// Name is the Claude model identifier, e.g. "claude-3-5-sonnet-latest".
	Name string `toml:"name"`

	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
}
