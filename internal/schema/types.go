// Package schema defines the shared data types for inferred JSON structure:
// InferredType, InferredField, InferredSchema, and the merge lattice over
// them. This package has zero external dependencies -- only stdlib types and
// pure lattice math, shared by every other component that talks about
// inferred structure.
package schema

import (
	"encoding/json"
	"sort"

	"github.com/flowforge/ingestcore/internal/format"
)

// Kind is the tag of the InferredType sum.
type Kind string

const (
	KindNull    Kind = "null"
	KindBoolean Kind = "boolean"
	KindInteger Kind = "integer"
	KindNumber  Kind = "number"
	KindString  Kind = "string"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
	KindMixed   Kind = "mixed"
	KindUnknown Kind = "unknown"
)

// InferredType is a tagged sum over the JSON shapes the inference engine
// can observe. Only the fields relevant to Kind are populated:
//
//   - KindString:  Format
//   - KindArray:   Items
//   - KindObject:  Properties
//   - KindMixed:   Variants
//
// All other kinds carry no payload.
type InferredType struct {
	Kind       Kind                     `json:"kind"`
	Format     format.Format            `json:"format,omitempty"`
	Items      *InferredType            `json:"items,omitempty"`
	Properties map[string]*InferredField `json:"properties,omitempty"`
	Variants   []InferredType           `json:"variants,omitempty"`
}

// InferredField wraps an InferredType with occurrence and optionality
// metadata.
type InferredField struct {
	Type        InferredType      `json:"type"`
	Required    bool              `json:"required"`
	Nullable    bool              `json:"nullable"`
	Occurrences int               `json:"occurrences"`
	Examples    []json.RawMessage `json:"examples,omitempty"`
	Description string            `json:"description,omitempty"`
}

// FieldStats carries per-field aggregate statistics computed during
// inference: occurrence/null counts and, for numeric fields, min/max/avg.
type FieldStats struct {
	Occurrences int      `json:"occurrences"`
	NullCount   int      `json:"null_count"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	Avg         *float64 `json:"avg,omitempty"`

	// sum and numericCount back the running average; unexported so they do
	// not leak into JSON output, which only ever reports the finalized Avg.
	sum          float64
	numericCount int
}

// InferredSchema is the top-level result of inference over a record stream.
type InferredSchema struct {
	Name        string                 `json:"name,omitempty"`
	Description string                 `json:"description,omitempty"`
	Root        InferredType           `json:"root"`
	RecordCount int                    `json:"record_count"`
	Partition   string                 `json:"partition,omitempty"`
	FieldStats  map[string]*FieldStats `json:"field_stats,omitempty"`
}

// Null, Boolean, Integer, Number and Unknown are constructors for the
// payload-free variants, kept for readability at call sites.
func Null() InferredType    { return InferredType{Kind: KindNull} }
func Boolean() InferredType { return InferredType{Kind: KindBoolean} }
func Integer() InferredType { return InferredType{Kind: KindInteger} }
func Number() InferredType  { return InferredType{Kind: KindNumber} }
func Unknown() InferredType { return InferredType{Kind: KindUnknown} }

// String constructs a KindString InferredType with the given format (which
// may be format.None).
func String(f format.Format) InferredType {
	return InferredType{Kind: KindString, Format: f}
}

// Array constructs a KindArray InferredType wrapping items.
func Array(items InferredType) InferredType {
	return InferredType{Kind: KindArray, Items: &items}
}

// Object constructs a KindObject InferredType from a property map. The map
// is used directly (not copied); callers that need isolation should copy
// first.
func Object(props map[string]*InferredField) InferredType {
	if props == nil {
		props = map[string]*InferredField{}
	}
	return InferredType{Kind: KindObject, Properties: props}
}

// SortedPropertyNames returns the property names of an Object type sorted
// alphabetically. Insertion order is not semantic; this
// helper exists purely so callers that need deterministic iteration (for
// output, testing, or matching) don't each reimplement the sort.
func (t InferredType) SortedPropertyNames() []string {
	names := make([]string, 0, len(t.Properties))
	for name := range t.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
