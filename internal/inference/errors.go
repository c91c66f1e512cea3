package inference

import "fmt"

// InvalidStructureError is returned when a record's JSON root is not an
// object. This aborts only the offending record, not the whole batch.
type InvalidStructureError struct {
	RecordIndex int
}

func (e *InvalidStructureError) Error() string {
	return fmt.Sprintf("record %d: root is not a JSON object", e.RecordIndex)
}

// MaxDepthExceededError is returned when traversal depth exceeds the
// configured MaxDepth.
type MaxDepthExceededError struct {
	RecordIndex int
	MaxDepth    int
}

func (e *MaxDepthExceededError) Error() string {
	return fmt.Sprintf("record %d: exceeded max depth %d", e.RecordIndex, e.MaxDepth)
}

// JSONParseError wraps a per-record JSON decode failure. It increments the
// engine's error counter but never aborts the batch.
type JSONParseError struct {
	RecordIndex int
	Err         error
}

func (e *JSONParseError) Error() string {
	return fmt.Sprintf("record %d: json parse: %v", e.RecordIndex, e.Err)
}

func (e *JSONParseError) Unwrap() error { return e.Err }
