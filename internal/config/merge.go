package config

// mergeProfile creates a new Profile by applying override on top of base.
// The merge rules are:
//   - String scalars: use override if non-empty; otherwise keep base.
//   - Int/float scalars: use override if non-zero; otherwise keep base.
//   - Bool scalars: always use override (false is a valid override value).
//   - Slice fields: use override slice if it is non-nil and non-empty;
//     otherwise keep base slice.
//   - Nested structs: merged field-by-field with the same rules.
//
// Neither base nor override is mutated. A fresh Profile is always returned.
// The Extends field is always cleared on the returned profile.
func mergeProfile(base, override *Profile) *Profile {
	return &Profile{
		StorePath:           mergeString(base.StorePath, override.StorePath),
		Source:              mergeSource(base.Source, override.Source),
		Inference:           mergeInference(base.Inference, override.Inference),
		Matcher:             mergeMatcher(base.Matcher, override.Matcher),
		Transform:           TransformConfig{Format: mergeString(base.Transform.Format, override.Transform.Format)},
		Model:               mergeModel(base.Model, override.Model),
		TargetSchemaPath:    mergeString(base.TargetSchemaPath, override.TargetSchemaPath),
		OutputPath:          mergeString(base.OutputPath, override.OutputPath),
		TransformOutputPath: mergeString(base.TransformOutputPath, override.TransformOutputPath),
		Ignore:              mergeSlice(base.Ignore, override.Ignore),
		Extends:             nil,
	}
}

func mergeSource(base, override SourceConfig) SourceConfig {
	return SourceConfig{
		Type:           mergeString(base.Type, override.Type),
		Root:           mergeString(base.Root, override.Root),
		Pattern:        mergeString(base.Pattern, override.Pattern),
		Partition:      mergeString(base.Partition, override.Partition),
		GitTrackedOnly: override.GitTrackedOnly,
		SkipLargeFiles: mergeInt64(base.SkipLargeFiles, override.SkipLargeFiles),
		Workers:        mergeInt(base.Workers, override.Workers),
		BatchSize:      mergeInt(base.BatchSize, override.BatchSize),
		Dedup:          mergeString(base.Dedup, override.Dedup),
	}
}

func mergeInference(base, override InferenceConfig) InferenceConfig {
	return InferenceConfig{
		SampleSize:                mergeInt(base.SampleSize, override.SampleSize),
		MinFieldFrequency:         mergeFloat(base.MinFieldFrequency, override.MinFieldFrequency),
		DetectFormats:             override.DetectFormats,
		MaxDepth:                  mergeInt(base.MaxDepth, override.MaxDepth),
		CollectExamples:           override.CollectExamples,
		MaxExamples:               mergeInt(base.MaxExamples, override.MaxExamples),
		AssumeNullable:            override.AssumeNullable,
		FormatConfidenceThreshold: mergeFloat(base.FormatConfidenceThreshold, override.FormatConfidenceThreshold),
	}
}

func mergeMatcher(base, override MatcherConfig) MatcherConfig {
	return MatcherConfig{
		MinConfidence:        mergeFloat(base.MinConfidence, override.MinConfidence),
		CaseInsensitive:      override.CaseInsensitive,
		FuzzyMatching:        override.FuzzyMatching,
		MaxEditDistance:      mergeInt(base.MaxEditDistance, override.MaxEditDistance),
		SuggestTypeCoercions: override.SuggestTypeCoercions,
		TrackExtras:          override.TrackExtras,
		TrackGaps:            override.TrackGaps,
		SuggestionLimit:      mergeInt(base.SuggestionLimit, override.SuggestionLimit),
	}
}

func mergeModel(base, override ModelConfig) ModelConfig {
	return ModelConfig{
		Enabled:     override.Enabled,
		APIKeyEnv:   mergeString(base.APIKeyEnv, override.APIKeyEnv),
		Name:        mergeString(base.Name, override.Name),
		MaxTokens:   mergeInt(base.MaxTokens, override.MaxTokens),
		Temperature: mergeFloat(base.Temperature, override.Temperature),
	}
}

// mergeString returns override if non-empty, otherwise base.
func mergeString(base, override string) string {
	if override != "" {
		return override
	}
	return base
}

// mergeInt returns override if non-zero, otherwise base.
func mergeInt(base, override int) int {
	if override != 0 {
		return override
	}
	return base
}

func mergeInt64(base, override int64) int64 {
	if override != 0 {
		return override
	}
	return base
}

func mergeFloat(base, override float64) float64 {
	if override != 0 {
		return override
	}
	return base
}

// mergeSlice returns a copy of override if it is non-nil and non-empty,
// otherwise returns a copy of base. Copies are made at the boundary to
// prevent callers from sharing slice backing arrays.
func mergeSlice(base, override []string) []string {
	if len(override) > 0 {
		result := make([]string, len(override))
		copy(result, override)
		return result
	}
	if len(base) > 0 {
		result := make([]string, len(base))
		copy(result, base)
		return result
	}
	return nil
}
