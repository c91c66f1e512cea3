package matcher

import "fmt"

// Explain renders one human-readable line per mapped field pair, naming the
// match method and confidence, followed by gap and extra summaries: a flat,
// grep-friendly text report rather than structured output, meant for the
// `ingestctl map` CLI's --explain flag.
func Explain(mapping *SchemaMapping) []string {
	var lines []string

	for _, fm := range mapping.DirectMappings {
		lines = append(lines, fmt.Sprintf("%s -> %s [%s, confidence %.2f]",
			fm.SourcePath, fm.TargetPath, fm.Method, fm.Confidence))
	}
	for _, tm := range mapping.Transformations {
		lines = append(lines, fmt.Sprintf("%v -> %s [%s %s->%s]",
			tm.SourcePaths, tm.TargetPath, tm.Type, tm.From, tm.To))
	}
	for _, gap := range mapping.Gaps {
		status := "optional"
		if gap.Required {
			status = "required"
		}
		if len(gap.Suggestions) > 0 {
			lines = append(lines, fmt.Sprintf("gap: %s (%s), suggestions: %v", gap.TargetPath, status, gap.Suggestions))
		} else {
			lines = append(lines, fmt.Sprintf("gap: %s (%s)", gap.TargetPath, status))
		}
	}
	for _, extra := range mapping.Extras {
		lines = append(lines, fmt.Sprintf("extra: %s (unclaimed)", extra))
	}

	lines = append(lines, fmt.Sprintf("compatibility score: %.2f (%d direct, %d transform, %d gaps, %d extras)",
		mapping.CompatibilityScore,
		mapping.Stats.DirectCount, mapping.Stats.TransformCount,
		mapping.Stats.GapCount, mapping.Stats.ExtraCount))

	return lines
}
