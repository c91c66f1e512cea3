package transform

import (
	"fmt"
	"strings"

	"github.com/flowforge/ingestcore/internal/matcher"
)

// fieldAccessor renders a dotted JSON path as a Go map access on a
// map[string]any record, the shape the general-purpose script and
// distributed-batch renderers both operate on.
func fieldAccessor(recordVar, path string) string {
	parts := strings.Split(path, ".")
	expr := recordVar
	for _, p := range parts {
		expr = fmt.Sprintf("%s[%q]", expr, p)
	}
	return expr
}

// generateScript renders a general-purpose Go function mapping one source
// record to one target record, using the same primitives as the other
// formats.
func generateScript(mapping *matcher.SchemaMapping, sourceTable, targetTable string) (*Result, error) {
	exprFor := func(path string) string { return fieldAccessor("src", path) }

	var lines []string
	var warnings []string
	lines = append(lines, fmt.Sprintf("// mapTo%sFrom%s projects one %s record into the %s shape.", title(targetTable), title(sourceTable), sourceTable, targetTable))
	lines = append(lines, fmt.Sprintf("func mapTo%sFrom%s(src map[string]any) map[string]any {", title(targetTable), title(sourceTable)))
	lines = append(lines, "\tdst := map[string]any{}")

	for _, m := range mapping.DirectMappings {
		lines = append(lines, fmt.Sprintf("\tdst[%q] = %s", m.TargetPath, exprFor(m.SourcePath)))
	}

	for _, tr := range mapping.Transformations {
		expr, err := scriptExpr(tr, exprFor)
		if err != nil {
			return nil, &GenerationError{Format: Script, Transform: tr.Type, Reason: err.Error()}
		}
		lines = append(lines, fmt.Sprintf("\tdst[%q] = %s", tr.TargetPath, expr))
	}

	for _, gap := range mapping.Gaps {
		if !gap.Required {
			continue
		}
		if len(gap.Default) > 0 {
			lines = append(lines, fmt.Sprintf("\tdst[%q] = %s // default", gap.TargetPath, string(gap.Default)))
			continue
		}
		warning := fmt.Sprintf("required target field %q has no source mapping and no default", gap.TargetPath)
		warnings = append(warnings, warning)
		lines = append(lines, fmt.Sprintf("\t// TODO: %s", warning))
	}

	lines = append(lines, "\treturn dst", "}")

	return &Result{Script: strings.Join(lines, "\n"), Warnings: warnings}, nil
}

// scriptExpr mirrors primitiveExpr for the Go-expression idiom, which needs
// its own syntax for concatenation, casts, and defaults.
func scriptExpr(t matcher.TransformMapping, exprFor func(string) string) (string, error) {
	switch t.Type {
	case matcher.TypeCast:
		if len(t.SourcePaths) != 1 {
			return "", fmt.Errorf("type_cast requires exactly one source path")
		}
		return fmt.Sprintf("castTo(%s, %q)", exprFor(t.SourcePaths[0]), t.To), nil
	case matcher.Rename:
		if len(t.SourcePaths) != 1 {
			return "", fmt.Errorf("rename requires exactly one source path")
		}
		return exprFor(t.SourcePaths[0]), nil
	case matcher.Merge:
		parts := make([]string, len(t.SourcePaths))
		for i, p := range t.SourcePaths {
			parts[i] = fmt.Sprintf("fmt.Sprint(%s)", exprFor(p))
		}
		sep := t.Separator
		if sep == "" {
			sep = " "
		}
		return fmt.Sprintf("strings.Join([]string{%s}, %q)", strings.Join(parts, ", "), sep), nil
	case matcher.FormatChange:
		if len(t.SourcePaths) != 1 {
			return "", fmt.Errorf("format_change requires exactly one source path")
		}
		return fmt.Sprintf("reformatTime(%s, %q, %q)", exprFor(t.SourcePaths[0]), t.From, t.To), nil
	case matcher.Default:
		if len(t.Value) == 0 {
			return "", fmt.Errorf("default transform carries no value")
		}
		return string(t.Value), nil
	case matcher.Extract:
		if len(t.SourcePaths) != 1 {
			return "", fmt.Errorf("extract requires exactly one source path")
		}
		return fmt.Sprintf("jsonExtract(%s, %q)", exprFor(t.SourcePaths[0]), t.JSONPath), nil
	case matcher.Split:
		if len(t.SourcePaths) != 1 {
			return "", fmt.Errorf("split requires exactly one source path")
		}
		delim := t.Delimiter
		if delim == "" {
			delim = ","
		}
		return fmt.Sprintf("strings.Split(fmt.Sprint(%s), %q)", exprFor(t.SourcePaths[0]), delim), nil
	case matcher.Custom:
		if t.Expression == "" {
			return "", fmt.Errorf("custom transform carries no expression")
		}
		return t.Expression, nil
	default:
		return "", fmt.Errorf("unrecognized transform type %q", t.Type)
	}
}

// generateDistributedBatch renders the same mapping as generateScript but
// batched over a collection, expressed as a map-over-rows idiom matching
// how a distributed dataframe transform stage is typically authored.
func generateDistributedBatch(mapping *matcher.SchemaMapping, sourceTable, targetTable string) (*Result, error) {
	single, err := generateScript(mapping, sourceTable, targetTable)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(single.Script)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "// mapBatch%sFrom%s applies mapTo%sFrom%s over every row in a batch.\n",
		title(targetTable), title(sourceTable), title(targetTable), title(sourceTable))
	fmt.Fprintf(&b, "func mapBatch%sFrom%s(rows []map[string]any) []map[string]any {\n", title(targetTable), title(sourceTable))
	b.WriteString("\tout := make([]map[string]any, len(rows))\n")
	b.WriteString("\tfor i, row := range rows {\n")
	fmt.Fprintf(&b, "\t\tout[i] = mapTo%sFrom%s(row)\n", title(targetTable), title(sourceTable))
	b.WriteString("\t}\n\treturn out\n}")

	return &Result{Script: b.String(), Warnings: single.Warnings}, nil
}

func title(s string) string {
	var b strings.Builder
	for _, part := range strings.Split(s, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return b.String()
}
