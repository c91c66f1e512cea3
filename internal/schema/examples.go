package schema

import (
	"bytes"
	"encoding/json"
)

// dedupeExamples removes structurally-equal duplicate JSON values,
// preserving first-seen order. Structural equality is decided by
// re-marshaling each value through a canonical (compact) form rather than
// raw byte comparison, so "1.0" and "1" or differently-spaced objects are
// recognized as the same example.
func dedupeExamples(examples []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(examples))
	seen := make([]json.RawMessage, 0, len(examples))
	for _, ex := range examples {
		canon, err := canonicalJSON(ex)
		if err != nil {
			continue
		}
		dup := false
		for _, s := range seen {
			if bytes.Equal(s, canon) {
				dup = true
				break
			}
		}
		if !dup {
			seen = append(seen, canon)
			out = append(out, ex)
		}
	}
	return out
}

// canonicalJSON decodes and re-encodes a JSON value to normalize
// whitespace and numeric representation for equality comparison.
func canonicalJSON(raw json.RawMessage) (json.RawMessage, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// CapExamples truncates examples to at most max entries. A max of 0 means
// no examples are retained regardless of how many were collected.
func CapExamples(examples []json.RawMessage, max int) []json.RawMessage {
	if max <= 0 {
		return nil
	}
	if len(examples) <= max {
		return examples
	}
	return examples[:max]
}
