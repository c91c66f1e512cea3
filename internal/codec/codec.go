// Package codec defines the narrow boundary between the core and whatever
// external representation a caller uses for tables/columns/relationships.
// The core does not depend on any particular codec -- this package only
// fixes the Codec interface and a minimal JSON-based
// implementation good enough for round-tripping InferredSchema and a plain
// DataModel through the CLI; richer codecs (Avro, Parquet schema, SQL DDL)
// are expected to live outside this module and satisfy the same interface.
package codec

import "github.com/flowforge/ingestcore/internal/schema"

// Column describes a single column of a DataModel table.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// ForeignKey names a reference from one table's column to another table's
// column.
type ForeignKey struct {
	Column           string `json:"column"`
	ReferencedTable  string `json:"referenced_table"`
	ReferencedColumn string `json:"referenced_column"`
}

// Table is one opaque entity of the external data model.
type Table struct {
	Name        string            `json:"name"`
	Columns     []Column          `json:"columns"`
	PrimaryKey  []string          `json:"primary_key,omitempty"`
	ForeignKeys []ForeignKey      `json:"foreign_keys,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// DataModel is the normalized external shape the core consumes/produces via
// a Codec, treated as opaque except where §4.4 mapping needs column names
// and types.
type DataModel struct {
	Tables []Table `json:"tables"`
}

// Codec decodes/encodes between a textual representation and the core's
// data types. Decode may return either a *DataModel or an
// *schema.InferredSchema depending on what the input text represents; the
// core only ever needs one or the other at a given call site.
type Codec interface {
	Decode(text []byte) (*DataModel, *schema.InferredSchema, error)
	Encode(model *DataModel) ([]byte, error)
	EncodeSchema(schema *schema.InferredSchema) ([]byte, error)
}
