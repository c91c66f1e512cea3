package inference

// Config holds the tunables for an Engine. Invalid numeric ranges are
// clamped at construction rather than rejected.
type Config struct {
	// SampleSize caps how many records are actually merged into the schema;
	// 0 means merge every record passed to AddRecord/AddBatch.
	SampleSize int

	// MinFieldFrequency, in [0,1]. Fields whose occurrences divided by the
	// number of records merged (not every record seen) fall below this
	// threshold are marked optional during Finalize.
	MinFieldFrequency float64

	// DetectFormats enables format.Detect on leaf strings.
	DetectFormats bool

	// MaxDepth bounds object/array nesting. Exceeding it aborts the
	// offending record with MaxDepthExceededError.
	MaxDepth int

	// CollectExamples enables storing up to MaxExamples deduplicated
	// example values per field.
	CollectExamples bool

	// MaxExamples caps stored examples per field; 0 disables examples
	// regardless of CollectExamples.
	MaxExamples int

	// AssumeNullable forces every field's Nullable to true during Finalize.
	AssumeNullable bool

	// FormatConfidenceThreshold, in [0,1]. A field's detected format is
	// dropped to format.None if the fraction of its sampled string values
	// matching it
	// falls below this threshold.
	FormatConfidenceThreshold float64
}

// DefaultConfig returns the engine's default configuration.
func DefaultConfig() Config {
	cfg := Config{
		SampleSize:                0,
		MinFieldFrequency:         0,
		DetectFormats:             true,
		MaxDepth:                  64,
		CollectExamples:           true,
		MaxExamples:               5,
		AssumeNullable:            false,
		FormatConfidenceThreshold: 0.8,
	}
	cfg.clamp()
	return cfg
}

// clamp normalizes out-of-range numeric fields in place.
func (c *Config) clamp() {
	c.MinFieldFrequency = clamp01(c.MinFieldFrequency)
	c.FormatConfidenceThreshold = clamp01(c.FormatConfidenceThreshold)
	if c.MaxDepth < 1 {
		c.MaxDepth = 1
	}
	if c.SampleSize < 0 {
		c.SampleSize = 0
	}
	if c.MaxExamples < 0 {
		c.MaxExamples = 0
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
