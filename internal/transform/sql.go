package transform

import (
	"fmt"
	"strings"

	"github.com/flowforge/ingestcore/internal/matcher"
)

// generateSQL renders an `INSERT INTO target (…) SELECT …, … FROM source`
// statement. Direct mappings emit `src AS tgt`; transforms dispatch through
// primitiveExpr. A required gap with no default produces a comment marker
// and a warning rather than failing generation.
func generateSQL(mapping *matcher.SchemaMapping, sourceTable, targetTable string) (*Result, error) {
	exprFor := func(path string) string { return quoteIdent(path) }

	var targets []string
	var selects []string
	var warnings []string

	for _, m := range mapping.DirectMappings {
		targets = append(targets, quoteIdent(m.TargetPath))
		selects = append(selects, fmt.Sprintf("%s AS %s", quoteIdent(m.SourcePath), quoteIdent(m.TargetPath)))
	}

	for _, tr := range mapping.Transformations {
		expr, err := primitiveExpr(tr, exprFor)
		if err != nil {
			return nil, &GenerationError{Format: SQL, Transform: tr.Type, Reason: err.Error()}
		}
		targets = append(targets, quoteIdent(tr.TargetPath))
		selects = append(selects, fmt.Sprintf("%s AS %s", expr, quoteIdent(tr.TargetPath)))
	}

	var comments []string
	for _, gap := range mapping.Gaps {
		if !gap.Required {
			continue
		}
		if len(gap.Default) > 0 {
			targets = append(targets, quoteIdent(gap.TargetPath))
			selects = append(selects, fmt.Sprintf("%s AS %s", string(gap.Default), quoteIdent(gap.TargetPath)))
			continue
		}
		warning := fmt.Sprintf("required target field %q has no source mapping and no default", gap.TargetPath)
		warnings = append(warnings, warning)
		comments = append(comments, fmt.Sprintf("-- TODO: %s", warning))
	}

	var b strings.Builder
	for _, c := range comments {
		b.WriteString(c)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "INSERT INTO %s (%s)\n", targetTable, strings.Join(targets, ", "))
	fmt.Fprintf(&b, "SELECT %s\nFROM %s;", strings.Join(selects, ", "), sourceTable)

	return &Result{Script: b.String(), Warnings: warnings}, nil
}
