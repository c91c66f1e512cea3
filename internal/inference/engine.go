// Package inference implements streaming JSON type induction: accumulating
// a stream of records into a running InferredSchema via the type lattice in
// internal/schema.
package inference

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/flowforge/ingestcore/internal/format"
	"github.com/flowforge/ingestcore/internal/schema"
)

// Engine accumulates records into a running InferredSchema. It is not safe
// for concurrent use from multiple goroutines; callers that parallelize
// parsing should funnel parsed records through a single Engine sequentially
// (the ingestion pipeline's insert phase is itself serial for the same
// reason, see internal/ingest).
type Engine struct {
	cfg Config

	root         schema.InferredType
	recordCount  int
	sampledCount int
	currentIndex int

	fieldStats    map[string]*schema.FieldStats
	formatSamples map[string][]string

	errors     []error
	errorCount int
}

// New creates an Engine with the given configuration. The configuration is
// clamped in place before use.
func New(cfg Config) *Engine {
	cfg.clamp()
	return &Engine{
		cfg:           cfg,
		root:          schema.Unknown(),
		fieldStats:    make(map[string]*schema.FieldStats),
		formatSamples: make(map[string][]string),
	}
}

// Errors returns the per-record errors accumulated so far (JSONParse,
// InvalidStructure and MaxDepthExceeded). These never abort the engine; they are reported
// alongside the schema.
func (e *Engine) Errors() []error { return e.errors }

// ErrorCount returns the number of per-record errors encountered.
func (e *Engine) ErrorCount() int { return e.errorCount }

// RecordCount returns the total number of records passed to AddRecord so
// far, including ones that failed to parse or had an invalid root; see
// Errors/ErrorCount for the failures within that total.
func (e *Engine) RecordCount() int { return e.recordCount }

// AddRecord parses and accumulates a single JSON record. A per-record parse
// failure or non-object root is recorded in Errors and returned, but never
// panics and never corrupts engine state for subsequent records. RecordCount
// is incremented for every call regardless of outcome; Errors/ErrorCount
// track the failures within that total.
func (e *Engine) AddRecord(raw []byte) error {
	index := e.recordCount
	e.recordCount++
	e.currentIndex = index

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		pe := &JSONParseError{RecordIndex: index, Err: err}
		e.errors = append(e.errors, pe)
		e.errorCount++
		return pe
	}

	obj, ok := v.(map[string]interface{})
	if !ok {
		se := &InvalidStructureError{RecordIndex: index}
		e.errors = append(e.errors, se)
		e.errorCount++
		return se
	}

	if e.cfg.SampleSize > 0 && e.sampledCount >= e.cfg.SampleSize {
		return nil
	}

	recordType, err := e.classifyObject(obj, 1, "")
	if err != nil {
		e.errors = append(e.errors, err)
		e.errorCount++
		return err
	}

	e.root = schema.Merge(e.root, recordType)
	e.sampledCount++
	return nil
}

// AddBatch adds each record in turn, collecting (not aborting on) per-record
// errors. It returns the errors encountered in this batch, in order.
func (e *Engine) AddBatch(records [][]byte) []error {
	var batchErrs []error
	for _, r := range records {
		if err := e.AddRecord(r); err != nil {
			batchErrs = append(batchErrs, err)
		}
	}
	return batchErrs
}

// classifyObject builds an InferredType for a JSON object at the given
// depth, updating field stats for every leaf and nested field it touches
// along dotted path.
func (e *Engine) classifyObject(obj map[string]interface{}, depth int, path string) (schema.InferredType, error) {
	if depth > e.cfg.MaxDepth {
		return schema.InferredType{}, &MaxDepthExceededError{RecordIndex: e.currentIndex, MaxDepth: e.cfg.MaxDepth}
	}

	props := make(map[string]*schema.InferredField, len(obj))
	for key, val := range obj {
		childPath := key
		if path != "" {
			childPath = path + "." + key
		}

		typ, err := e.classifyValue(val, depth+1, childPath)
		if err != nil {
			return schema.InferredType{}, err
		}

		field := &schema.InferredField{
			Type:        typ,
			Required:    true,
			Nullable:    typ.Kind == schema.KindNull,
			Occurrences: 1,
		}
		if e.cfg.CollectExamples && e.cfg.MaxExamples > 0 {
			if raw, err := json.Marshal(val); err == nil {
				field.Examples = schema.CapExamples([]json.RawMessage{raw}, e.cfg.MaxExamples)
			}
		}
		props[key] = field

		e.recordFieldStat(childPath, typ, val)
	}

	return schema.Object(props), nil
}

// classifyValue dispatches on the dynamic JSON type produced by
// json.Decoder.UseNumber(): nil, bool, json.Number, string, []interface{},
// map[string]interface{}.
func (e *Engine) classifyValue(v interface{}, depth int, path string) (schema.InferredType, error) {
	switch val := v.(type) {
	case nil:
		return schema.Null(), nil
	case bool:
		return schema.Boolean(), nil
	case json.Number:
		if strings.ContainsAny(string(val), ".eE") {
			return schema.Number(), nil
		}
		return schema.Integer(), nil
	case string:
		if e.cfg.DetectFormats {
			e.formatSamples[path] = append(e.formatSamples[path], val)
			return schema.String(format.Detect(val)), nil
		}
		return schema.String(format.None), nil
	case []interface{}:
		if depth > e.cfg.MaxDepth {
			return schema.InferredType{}, &MaxDepthExceededError{RecordIndex: e.currentIndex, MaxDepth: e.cfg.MaxDepth}
		}
		items := schema.Unknown()
		for _, elem := range val {
			elemType, err := e.classifyValue(elem, depth+1, path)
			if err != nil {
				return schema.InferredType{}, err
			}
			items = schema.Merge(items, elemType)
		}
		return schema.Array(items), nil
	case map[string]interface{}:
		return e.classifyObject(val, depth, path)
	default:
		return schema.Unknown(), nil
	}
}

// recordFieldStat updates the engine's running FieldStats for a dotted
// field path, including numeric min/max/avg when the value is numeric.
func (e *Engine) recordFieldStat(path string, typ schema.InferredType, val interface{}) {
	stats, ok := e.fieldStats[path]
	if !ok {
		stats = schema.NewFieldStats()
		e.fieldStats[path] = stats
	}
	stats.Occurrence(typ.Kind == schema.KindNull)

	if n, ok := val.(json.Number); ok {
		if f, err := n.Float64(); err == nil {
			stats.ObserveNumeric(f)
		}
	}
}
