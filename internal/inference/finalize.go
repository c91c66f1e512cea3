package inference

import (
	"github.com/flowforge/ingestcore/internal/format"
	"github.com/flowforge/ingestcore/internal/schema"
)

// Finalize produces the InferredSchema for everything accumulated so far,
// applying the three Config-driven adjustment passes in a fixed order:
// minimum-frequency demotion, forced nullability, and format-confidence
// pruning. The Engine remains usable afterward; Finalize may be called
// repeatedly (e.g. for progress reporting) without losing accumulated state.
func (e *Engine) Finalize() (*schema.InferredSchema, error) {
	root := e.root

	if e.sampledCount == 0 {
		root = schema.Unknown()
	} else {
		root = e.applyMinFieldFrequency(root)
		if e.cfg.AssumeNullable {
			root = e.applyAssumeNullable(root)
		}
		if e.cfg.DetectFormats && e.cfg.FormatConfidenceThreshold > 0 {
			root = e.applyFormatConfidence(root, "")
		}
	}

	return &schema.InferredSchema{
		Root:        root,
		RecordCount: e.recordCount,
		FieldStats:  e.fieldStats,
	}, nil
}

// applyMinFieldFrequency demotes object fields to optional when their
// observed occurrence count, relative to the number of records actually
// merged (sampledCount), falls below Config.MinFieldFrequency.
func (e *Engine) applyMinFieldFrequency(t schema.InferredType) schema.InferredType {
	if e.cfg.MinFieldFrequency <= 0 {
		return e.walkDescend(t, e.applyMinFieldFrequency)
	}

	switch t.Kind {
	case schema.KindObject:
		props := make(map[string]*schema.InferredField, len(t.Properties))
		for name, field := range t.Properties {
			freq := float64(field.Occurrences) / float64(e.sampledCount)
			required := field.Required && freq >= e.cfg.MinFieldFrequency
			props[name] = &schema.InferredField{
				Type:        e.applyMinFieldFrequency(field.Type),
				Required:    required,
				Nullable:    field.Nullable,
				Occurrences: field.Occurrences,
				Examples:    field.Examples,
				Description: field.Description,
			}
		}
		return schema.Object(props)
	default:
		return e.walkDescend(t, e.applyMinFieldFrequency)
	}
}

// applyAssumeNullable forces every object field's Nullable flag to true.
func (e *Engine) applyAssumeNullable(t schema.InferredType) schema.InferredType {
	switch t.Kind {
	case schema.KindObject:
		props := make(map[string]*schema.InferredField, len(t.Properties))
		for name, field := range t.Properties {
			props[name] = &schema.InferredField{
				Type:        e.applyAssumeNullable(field.Type),
				Required:    field.Required,
				Nullable:    true,
				Occurrences: field.Occurrences,
				Examples:    field.Examples,
				Description: field.Description,
			}
		}
		return schema.Object(props)
	default:
		return e.walkDescend(t, e.applyAssumeNullable)
	}
}

// applyFormatConfidence drops a leaf string's detected Format back to
// format.None if the fraction of sampled values actually matching that
// format falls below Config.FormatConfidenceThreshold.
func (e *Engine) applyFormatConfidence(t schema.InferredType, path string) schema.InferredType {
	if t.Kind == schema.KindString && t.Format != format.None {
		samples := e.formatSamples[path]
		if format.Confidence(samples, t.Format) < e.cfg.FormatConfidenceThreshold {
			t.Format = format.None
		}
		return t
	}

	switch t.Kind {
	case schema.KindObject:
		props := make(map[string]*schema.InferredField, len(t.Properties))
		for name, field := range t.Properties {
			childPath := name
			if path != "" {
				childPath = path + "." + name
			}
			props[name] = &schema.InferredField{
				Type:        e.applyFormatConfidence(field.Type, childPath),
				Required:    field.Required,
				Nullable:    field.Nullable,
				Occurrences: field.Occurrences,
				Examples:    field.Examples,
				Description: field.Description,
			}
		}
		return schema.Object(props)
	case schema.KindArray:
		if t.Items != nil {
			items := e.applyFormatConfidence(*t.Items, path)
			t.Items = &items
		}
		return t
	case schema.KindMixed:
		variants := make([]schema.InferredType, len(t.Variants))
		for i, v := range t.Variants {
			variants[i] = e.applyFormatConfidence(v, path)
		}
		t.Variants = variants
		return t
	default:
		return t
	}
}

// walkDescend applies fn to Array/Mixed children, leaving leaf kinds
// untouched. Object is handled by each pass's own switch case since the
// three passes attach different per-field metadata.
func (e *Engine) walkDescend(t schema.InferredType, fn func(schema.InferredType) schema.InferredType) schema.InferredType {
	switch t.Kind {
	case schema.KindArray:
		if t.Items != nil {
			items := fn(*t.Items)
			t.Items = &items
		}
		return t
	case schema.KindMixed:
		variants := make([]schema.InferredType, len(t.Variants))
		for i, v := range t.Variants {
			variants[i] = fn(v)
		}
		t.Variants = variants
		return t
	default:
		return t
	}
}
