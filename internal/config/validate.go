package config

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// validSourceTypes lists the only accepted values for SourceConfig.Type.
var validSourceTypes = map[string]bool{
	"local":         true,
	"object_store":  true,
	"remote_volume": true,
	"":              true,
}

// validDedupModes lists the only accepted values for SourceConfig.Dedup.
var validDedupModes = map[string]bool{
	"none":       true,
	"by_path":    true,
	"by_content": true,
	"both":       true,
	"":           true,
}

// validTransformFormats lists the only accepted values for
// TransformConfig.Format.
var validTransformFormats = map[string]bool{
	"sql":               true,
	"filter":            true,
	"script":            true,
	"distributed_batch": true,
	"":                  true,
}

// Validate inspects every profile in cfg and returns a slice of
// ValidationErrors describing hard errors and warnings found in the
// configuration. It does not stop at the first error; all profiles are
// checked and all findings are accumulated before returning.
//
// The returned slice is nil when no issues are found. Validate does not
// modify cfg.
func Validate(cfg *Config) []ValidationError {
	if cfg == nil {
		return nil
	}

	var results []ValidationError
	for name, p := range cfg.Profile {
		results = append(results, validateProfile(name, p)...)
	}
	return results
}

func validateProfile(name string, p *Profile) []ValidationError {
	var results []ValidationError
	field := func(suffix string) string { return fmt.Sprintf("profile.%s.%s", name, suffix) }

	if !validSourceTypes[p.Source.Type] {
		results = append(results, ValidationError{
			Severity: "error",
			Field:    field("source.type"),
			Message:  fmt.Sprintf("unknown source type %q", p.Source.Type),
			Suggest:  "use one of: local, object_store, remote_volume",
		})
	}

	if !validDedupModes[p.Source.Dedup] {
		results = append(results, ValidationError{
			Severity: "error",
			Field:    field("source.dedup"),
			Message:  fmt.Sprintf("unknown dedup mode %q", p.Source.Dedup),
			Suggest:  "use one of: none, by_path, by_content, both",
		})
	}

	if !validTransformFormats[p.Transform.Format] {
		results = append(results, ValidationError{
			Severity: "error",
			Field:    field("transform.format"),
			Message:  fmt.Sprintf("unknown transform format %q", p.Transform.Format),
			Suggest:  "use one of: sql, filter, script, distributed_batch",
		})
	}

	if p.Source.Pattern != "" && !doublestar.ValidatePattern(p.Source.Pattern) {
		results = append(results, ValidationError{
			Severity: "error",
			Field:    field("source.pattern"),
			Message:  fmt.Sprintf("invalid glob pattern %q", p.Source.Pattern),
		})
	}

	for _, pattern := range p.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			results = append(results, ValidationError{
				Severity: "warning",
				Field:    field("ignore"),
				Message:  fmt.Sprintf("invalid ignore pattern %q", pattern),
			})
		}
	}

	if p.Source.Workers < 0 {
		results = append(results, ValidationError{
			Severity: "error",
			Field:    field("source.workers"),
			Message:  "workers must not be negative",
		})
	}

	if p.Source.BatchSize < 0 {
		results = append(results, ValidationError{
			Severity: "error",
			Field:    field("source.batch_size"),
			Message:  "batch_size must not be negative",
		})
	}

	if p.Matcher.MinConfidence < 0 || p.Matcher.MinConfidence > 1 {
		results = append(results, ValidationError{
			Severity: "warning",
			Field:    field("matcher.min_confidence"),
			Message:  "min_confidence is expected to be in [0,1]",
			Suggest:  "values outside this range are clamped at match time",
		})
	}

	if p.Model.Enabled && p.Model.Name == "" {
		results = append(results, ValidationError{
			Severity: "error",
			Field:    field("model.name"),
			Message:  "model is enabled but no model name is configured",
		})
	}

	return results
}
