// Package transform renders a matcher.SchemaMapping into a runnable script
// in one of four target idioms. All four formats share the same primitive
// dispatch (TypeCast, Rename, Merge, Split, FormatChange, Custom, Extract,
// Default); only concrete syntax differs.
package transform

import (
	"fmt"
	"strings"

	"github.com/flowforge/ingestcore/internal/matcher"
)

// Format names one of the four output idioms.
type Format string

const (
	SQL              Format = "sql"
	Filter           Format = "filter"
	Script           Format = "script"
	DistributedBatch Format = "distributed_batch"
)

// UnknownFormatError is returned for a Format value none of the renderers
// recognize.
type UnknownFormatError struct{ Format Format }

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("transform: unknown format %q", e.Format)
}

// GenerationError wraps a renderer-internal failure, such as an unknown
// transform primitive for the requested format.
type GenerationError struct {
	Format    Format
	Transform matcher.TransformType
	Reason    string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("transform: %s: cannot render %s transform: %s", e.Format, e.Transform, e.Reason)
}

// Result carries the rendered script plus any non-fatal warnings collected
// while rendering (e.g. a required gap with no default).
type Result struct {
	Script   string
	Warnings []string
}

// Generate renders mapping into the requested format, referencing
// sourceTable/targetTable where the idiom calls for a table name.
func Generate(mapping *matcher.SchemaMapping, format Format, sourceTable, targetTable string) (*Result, error) {
	switch format {
	case SQL:
		return generateSQL(mapping, sourceTable, targetTable)
	case Filter:
		return generateFilter(mapping)
	case Script:
		return generateScript(mapping, sourceTable, targetTable)
	case DistributedBatch:
		return generateDistributedBatch(mapping, sourceTable, targetTable)
	default:
		return nil, &UnknownFormatError{Format: format}
	}
}

// quoteIdent renders a dotted field path as a single SQL identifier,
// replacing path separators since DuckDB columns from flattened JSON are
// materialized as top-level names, not nested accessors.
func quoteIdent(path string) string {
	return strings.ReplaceAll(path, ".", "_")
}

// primitiveExpr renders one TransformMapping as a bare SQL expression for
// the SQL renderer; scriptExpr is the Script renderer's counterpart.
// Returns ("", error) for a Default transform with no value, a primitive
// with the wrong number of source paths, or an unrecognized primitive.
func primitiveExpr(t matcher.TransformMapping, exprFor func(path string) string) (string, error) {
	switch t.Type {
	case matcher.TypeCast:
		if len(t.SourcePaths) != 1 {
			return "", fmt.Errorf("type_cast requires exactly one source path")
		}
		return fmt.Sprintf("CAST(%s AS %s)", exprFor(t.SourcePaths[0]), t.To), nil
	case matcher.Rename:
		if len(t.SourcePaths) != 1 {
			return "", fmt.Errorf("rename requires exactly one source path")
		}
		return exprFor(t.SourcePaths[0]), nil
	case matcher.Merge:
		parts := make([]string, len(t.SourcePaths))
		for i, p := range t.SourcePaths {
			parts[i] = exprFor(p)
		}
		sep := t.Separator
		if sep == "" {
			sep = " "
		}
		return fmt.Sprintf("CONCAT_WS(%q, %s)", sep, strings.Join(parts, ", ")), nil
	case matcher.FormatChange:
		if len(t.SourcePaths) != 1 {
			return "", fmt.Errorf("format_change requires exactly one source path")
		}
		return fmt.Sprintf("strftime(strptime(%s, %q), %q)", exprFor(t.SourcePaths[0]), t.From, t.To), nil
	case matcher.Default:
		if len(t.Value) == 0 {
			return "", fmt.Errorf("default transform carries no value")
		}
		return string(t.Value), nil
	case matcher.Extract:
		if len(t.SourcePaths) != 1 {
			return "", fmt.Errorf("extract requires exactly one source path")
		}
		return fmt.Sprintf("json_extract(%s, %q)", exprFor(t.SourcePaths[0]), t.JSONPath), nil
	case matcher.Split:
		if len(t.SourcePaths) != 1 {
			return "", fmt.Errorf("split requires exactly one source path")
		}
		delim := t.Delimiter
		if delim == "" {
			delim = ","
		}
		return fmt.Sprintf("string_split(%s, %q)", exprFor(t.SourcePaths[0]), delim), nil
	case matcher.Custom:
		if t.Expression == "" {
			return "", fmt.Errorf("custom transform carries no expression")
		}
		return t.Expression, nil
	default:
		return "", fmt.Errorf("unrecognized transform type %q", t.Type)
	}
}
