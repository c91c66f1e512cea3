package matcher

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/flowforge/ingestcore/internal/schema"
)

// Matcher runs the field matching pipeline against a prevalidated Config.
// Construct once via New and reuse across Match calls.
type Matcher struct {
	cfg Config
}

// New constructs a Matcher, clamping cfg in place.
func New(cfg Config) *Matcher {
	cfg.clamp()
	return &Matcher{cfg: cfg}
}

// flatField is a flattened Object property path paired with its type.
type flatField struct {
	path string
	typ  schema.InferredType
}

// flatten walks an Object InferredType's properties recursively, producing
// dotted paths. Non-Object root types yield no fields. Array items are not
// descended into further -- array-of-object fields are matched as a single
// array-typed leaf, consistent with treating InferredType.Array as an
// opaque shape for mapping purposes.
func flatten(t schema.InferredType, prefix string) []flatField {
	var out []flatField
	for _, name := range t.SortedPropertyNames() {
		field := t.Properties[name]
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		if field.Type.Kind == schema.KindObject {
			out = append(out, flatten(field.Type, path)...)
			continue
		}
		out = append(out, flatField{path: path, typ: field.Type})
	}
	return out
}

func requiredPaths(t schema.InferredType, prefix string) map[string]bool {
	required := make(map[string]bool)
	for _, name := range t.SortedPropertyNames() {
		field := t.Properties[name]
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		if field.Type.Kind == schema.KindObject {
			for k, v := range requiredPaths(field.Type, path) {
				required[k] = v
			}
			continue
		}
		required[path] = field.Required
	}
	return required
}

// typeCompatible reports whether a and b are the same JSON-Schema primitive,
// or one of the two designated cross-kind promotions (Integer<->Number).
func typeCompatible(a, b schema.InferredType) bool {
	if a.Kind == b.Kind {
		return true
	}
	isNum := func(k schema.Kind) bool { return k == schema.KindInteger || k == schema.KindNumber }
	return isNum(a.Kind) && isNum(b.Kind)
}

// Match runs the four-pass matching pipeline (exact, case-insensitive,
// fuzzy, type compatibility) and assembles the resulting SchemaMapping,
// including gap and extra tracking. A name match whose types are
// incompatible becomes a TypeCast transformation unless
// Config.SuggestTypeCoercions is false, in which case the pair is treated
// as unmatched: the target path reports as a gap and the source path as
// an extra.
func (m *Matcher) Match(source, target schema.InferredType) (*SchemaMapping, error) {
	sourceFields := flatten(source, "")
	targetFields := flatten(target, "")
	targetRequired := requiredPaths(target, "")

	targetByPath := make(map[string]schema.InferredType, len(targetFields))
	targetPaths := make([]string, 0, len(targetFields))
	for _, tf := range targetFields {
		targetByPath[tf.path] = tf.typ
		targetPaths = append(targetPaths, tf.path)
	}
	claimedTarget := make(map[string]bool, len(targetFields))

	result := &SchemaMapping{}
	unmatchedSource := make([]flatField, 0, len(sourceFields))

	for _, sf := range sourceFields {
		targetPath, method, confidence, ok := m.matchOne(sf, targetPaths, claimedTarget)
		if !ok {
			unmatchedSource = append(unmatchedSource, sf)
			continue
		}

		targetType := targetByPath[targetPath]
		if typeCompatible(sf.typ, targetType) {
			claimedTarget[targetPath] = true
			result.DirectMappings = append(result.DirectMappings, FieldMapping{
				SourcePath:     sf.path,
				TargetPath:     targetPath,
				Confidence:     confidence,
				TypeCompatible: true,
				Method:         method,
			})
			continue
		}

		if !m.cfg.SuggestTypeCoercions {
			// Coercion suggestions are off: leave the target path unclaimed
			// so it surfaces as a gap, and the source path as unmatched,
			// rather than proposing a TypeCast the caller didn't ask for.
			unmatchedSource = append(unmatchedSource, sf)
			continue
		}

		claimedTarget[targetPath] = true
		result.Transformations = append(result.Transformations, TransformMapping{
			SourcePaths: []string{sf.path},
			TargetPath:  targetPath,
			Type:        TypeCast,
			From:        string(sf.typ.Kind),
			To:          string(targetType.Kind),
		})
	}

	for _, tp := range targetPaths {
		if claimedTarget[tp] {
			continue
		}
		required := targetRequired[tp]
		if !required && !m.cfg.TrackGaps {
			continue
		}
		result.Gaps = append(result.Gaps, FieldGap{
			TargetPath:  tp,
			Required:    required,
			Suggestions: m.suggest(tp, unmatchedSource),
		})
	}

	if m.cfg.TrackExtras {
		for _, sf := range unmatchedSource {
			result.Extras = append(result.Extras, sf.path)
		}
	}

	result.Stats = MappingStats{
		DirectCount:      len(result.DirectMappings),
		TransformCount:   len(result.Transformations),
		GapCount:         len(result.Gaps),
		ExtraCount:       len(result.Extras),
		TargetFieldCount: len(targetFields),
	}
	denom := result.Stats.TargetFieldCount
	if denom < 1 {
		denom = 1
	}
	result.CompatibilityScore = float64(result.Stats.DirectCount+result.Stats.TransformCount) / float64(denom)

	return result, nil
}

// matchOne runs passes 1-3 of the pipeline for a single source field against
// the unclaimed target paths.
func (m *Matcher) matchOne(sf flatField, targetPaths []string, claimed map[string]bool) (targetPath string, method MatchMethod, confidence float64, ok bool) {
	// Pass 1: exact.
	for _, tp := range targetPaths {
		if claimed[tp] {
			continue
		}
		if tp == sf.path {
			return tp, Exact, 1.0, true
		}
	}

	// Pass 2: case-insensitive.
	if m.cfg.CaseInsensitive {
		lower := strings.ToLower(sf.path)
		for _, tp := range targetPaths {
			if claimed[tp] {
				continue
			}
			if strings.ToLower(tp) == lower {
				return tp, CaseInsensitive, 0.95, true
			}
		}
	}

	// Pass 3: fuzzy, with deterministic tie-breaking (smallest distance,
	// then lexicographically smallest target path).
	if m.cfg.FuzzyMatching {
		bestPath := ""
		bestDist := -1
		for _, tp := range targetPaths {
			if claimed[tp] {
				continue
			}
			d := levenshtein.ComputeDistance(sf.path, tp)
			if d > m.cfg.MaxEditDistance {
				continue
			}
			if bestDist == -1 || d < bestDist || (d == bestDist && tp < bestPath) {
				bestDist = d
				bestPath = tp
			}
		}
		if bestDist >= 0 {
			maxLen := len(sf.path)
			if len(bestPath) > maxLen {
				maxLen = len(bestPath)
			}
			conf := 1.0
			if maxLen > 0 {
				conf = 1.0 - float64(bestDist)/float64(maxLen)
			}
			if conf < 0 {
				conf = 0
			}
			if conf >= m.cfg.MinConfidence {
				return bestPath, Fuzzy, conf, true
			}
		}
	}

	return "", "", 0, false
}

// suggest returns up to SuggestionLimit unmatched source paths closest to
// targetPath by edit distance, ties broken lexicographically.
func (m *Matcher) suggest(targetPath string, unmatched []flatField) []string {
	if m.cfg.SuggestionLimit <= 0 || len(unmatched) == 0 {
		return nil
	}
	type candidate struct {
		path string
		dist int
	}
	candidates := make([]candidate, 0, len(unmatched))
	for _, sf := range unmatched {
		candidates = append(candidates, candidate{path: sf.path, dist: levenshtein.ComputeDistance(sf.path, targetPath)})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].path < candidates[j].path
	})
	limit := m.cfg.SuggestionLimit
	if limit > len(candidates) {
		limit = len(candidates)
	}
	suggestions := make([]string, limit)
	for i := 0; i < limit; i++ {
		suggestions[i] = candidates[i].path
	}
	return suggestions
}
