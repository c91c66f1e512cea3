package transform

import (
	"encoding/json"
	"fmt"

	"github.com/flowforge/ingestcore/internal/matcher"
)

// filterField is one projected field in a filter-expression document: a
// target path paired with either a straight source reference or a
// transform primitive applied to one or more source references.
type filterField struct {
	TargetPath string `json:"target_path"`
	SourcePath string `json:"source_path,omitempty"`
	Transform  string `json:"transform,omitempty"`
	Args       any    `json:"args,omitempty"`
}

// generateFilter renders mapping as a nested selector/projection document:
// an ordered list of {target_path, source_path | transform+args} entries
// producing the target shape. This is the format a downstream filter/query
// engine (not SQL, not a general-purpose script) consumes directly.
func generateFilter(mapping *matcher.SchemaMapping) (*Result, error) {
	var fields []filterField
	var warnings []string

	for _, m := range mapping.DirectMappings {
		fields = append(fields, filterField{TargetPath: m.TargetPath, SourcePath: m.SourcePath})
	}

	for _, tr := range mapping.Transformations {
		fields = append(fields, filterField{
			TargetPath: tr.TargetPath,
			Transform:  string(tr.Type),
			Args:       transformArgs(tr),
		})
	}

	for _, gap := range mapping.Gaps {
		if !gap.Required {
			continue
		}
		if len(gap.Default) > 0 {
			var v any
			if err := json.Unmarshal(gap.Default, &v); err != nil {
				return nil, &GenerationError{Format: Filter, Transform: matcher.Default, Reason: err.Error()}
			}
			fields = append(fields, filterField{TargetPath: gap.TargetPath, Transform: string(matcher.Default), Args: v})
			continue
		}
		warnings = append(warnings, fmt.Sprintf("required target field %q has no source mapping and no default", gap.TargetPath))
	}

	doc, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return nil, &GenerationError{Format: Filter, Reason: err.Error()}
	}

	return &Result{Script: string(doc), Warnings: warnings}, nil
}

func transformArgs(t matcher.TransformMapping) map[string]any {
	args := map[string]any{"source_paths": t.SourcePaths}
	if t.From != "" {
		args["from"] = t.From
	}
	if t.To != "" {
		args["to"] = t.To
	}
	if t.Separator != "" {
		args["separator"] = t.Separator
	}
	if t.Delimiter != "" {
		args["delimiter"] = t.Delimiter
	}
	if t.Expression != "" {
		args["expression"] = t.Expression
	}
	if t.JSONPath != "" {
		args["json_path"] = t.JSONPath
	}
	if len(t.Value) > 0 {
		var v any
		if err := json.Unmarshal(t.Value, &v); err == nil {
			args["value"] = v
		}
	}
	return args
}
