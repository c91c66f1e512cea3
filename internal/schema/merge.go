package schema

import (
	"encoding/json"

	"github.com/flowforge/ingestcore/internal/format"
)

// Merge computes the lattice join of two InferredTypes. Merge is
// commutative: Merge(a, b) == Merge(b, a) for every pair of inputs, up to
// Mixed canonicalization (duplicate elimination, flattening, and variant
// order).
func Merge(a, b InferredType) InferredType {
	if a.Kind == KindNull {
		return b
	}
	if b.Kind == KindNull {
		return a
	}
	if a.Kind == KindUnknown {
		return b
	}
	if b.Kind == KindUnknown {
		return a
	}

	if a.Kind == b.Kind {
		switch a.Kind {
		case KindBoolean, KindInteger, KindNumber:
			return a
		case KindString:
			if a.Format == b.Format {
				return a
			}
			return String(format.None)
		case KindArray:
			return Array(Merge(*a.Items, *b.Items))
		case KindObject:
			return mergeObjects(a, b)
		case KindMixed:
			return canonicalizeMixed(append(append([]InferredType{}, a.Variants...), b.Variants...))
		}
	}

	// Integer/Number promotion: mixing the two always yields Number.
	if isIntOrNum(a.Kind) && isIntOrNum(b.Kind) {
		return Number()
	}

	// Either side already being Mixed: fold the other side in, deduplicating.
	if a.Kind == KindMixed {
		return canonicalizeMixed(append(append([]InferredType{}, a.Variants...), b))
	}
	if b.Kind == KindMixed {
		return canonicalizeMixed(append([]InferredType{a}, b.Variants...))
	}

	return InferredType{Kind: KindMixed, Variants: canonicalVariants([]InferredType{a, b})}
}

func isIntOrNum(k Kind) bool { return k == KindInteger || k == KindNumber }

// mergeObjects implements the Object merge rule: union keys, merge
// field-wise where both sides have the key, and demote keys present on
// only one side to required=false in the result.
func mergeObjects(a, b InferredType) InferredType {
	result := make(map[string]*InferredField, len(a.Properties)+len(b.Properties))

	for name, fa := range a.Properties {
		if fb, ok := b.Properties[name]; ok {
			merged := MergeFields(*fa, *fb)
			result[name] = &merged
			continue
		}
		only := *fa
		only.Required = false
		result[name] = &only
	}
	for name, fb := range b.Properties {
		if _, ok := a.Properties[name]; ok {
			continue // already merged above
		}
		only := *fb
		only.Required = false
		result[name] = &only
	}

	return Object(result)
}

// structurallyEqual reports whether two InferredTypes are identical after
// recursively normalizing kind, format, items, and (for objects) property
// kinds -- used to deduplicate Mixed variants. Object property values are
// compared by key set + per-key type only; occurrence/example metadata is
// not part of a type's structural identity. Mixed variants are compared as
// an unordered set.
func structurallyEqual(a, b InferredType) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindString:
		return a.Format == b.Format
	case KindArray:
		return structurallyEqual(*a.Items, *b.Items)
	case KindObject:
		if len(a.Properties) != len(b.Properties) {
			return false
		}
		for name, fa := range a.Properties {
			fb, ok := b.Properties[name]
			if !ok || !structurallyEqual(fa.Type, fb.Type) {
				return false
			}
		}
		return true
	case KindMixed:
		if len(a.Variants) != len(b.Variants) {
			return false
		}
		for _, va := range a.Variants {
			found := false
			for _, vb := range b.Variants {
				if structurallyEqual(va, vb) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// canonicalVariants deduplicates a variant slice by structural equality,
// preserving first-seen order.
func canonicalVariants(variants []InferredType) []InferredType {
	out := make([]InferredType, 0, len(variants))
	for _, v := range variants {
		dup := false
		for _, seen := range out {
			if structurallyEqual(seen, v) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return out
}

// canonicalizeMixed flattens nested Mixed variants (Mixed{A, Mixed{B,C}}
// becomes Mixed{A,B,C}) and then deduplicates. A flattened, deduplicated set
// of exactly one variant collapses back to that variant rather than staying
// wrapped in Mixed.
func canonicalizeMixed(variants []InferredType) InferredType {
	flat := make([]InferredType, 0, len(variants))
	var flatten func(InferredType)
	flatten = func(t InferredType) {
		if t.Kind == KindMixed {
			for _, v := range t.Variants {
				flatten(v)
			}
			return
		}
		flat = append(flat, t)
	}
	for _, v := range variants {
		flatten(v)
	}

	deduped := canonicalVariants(flat)
	if len(deduped) == 1 {
		return deduped[0]
	}
	return InferredType{Kind: KindMixed, Variants: deduped}
}

// MergeFields merges two InferredFields: type is the
// lattice join, required is AND, nullable is OR, occurrences sum, and
// examples are deduplicated by structural JSON equality (capped by the
// caller via CapExamples). Description prefers the left (a) side.
func MergeFields(a, b InferredField) InferredField {
	merged := InferredField{
		Type:        Merge(a.Type, b.Type),
		Required:    a.Required && b.Required,
		Nullable:    a.Nullable || b.Nullable,
		Occurrences: a.Occurrences + b.Occurrences,
		Description: a.Description,
	}
	if merged.Description == "" {
		merged.Description = b.Description
	}
	merged.Examples = dedupeExamples(append(append([]json.RawMessage{}, a.Examples...), b.Examples...))
	return merged
}
