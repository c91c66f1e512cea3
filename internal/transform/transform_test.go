package transform

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/flowforge/ingestcore/internal/matcher"
)

func sampleMapping() *matcher.SchemaMapping {
	return &matcher.SchemaMapping{
		DirectMappings: []matcher.FieldMapping{
			{SourcePath: "email", TargetPath: "email", Confidence: 1, TypeCompatible: true, Method: matcher.Exact},
		},
		Transformations: []matcher.TransformMapping{
			{SourcePaths: []string{"age"}, TargetPath: "age", Type: matcher.TypeCast, To: "BIGINT"},
		},
		Gaps: []matcher.FieldGap{
			{TargetPath: "created_at", Required: true},
		},
	}
}

func TestGenerateSQLProducesInsertSelect(t *testing.T) {
	res, err := Generate(sampleMapping(), SQL, "source_tbl", "target_tbl")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Script, "INSERT INTO target_tbl") {
		t.Fatalf("expected INSERT INTO target_tbl, got:\n%s", res.Script)
	}
	if !strings.Contains(res.Script, "CAST(age AS BIGINT)") {
		t.Fatalf("expected CAST expression, got:\n%s", res.Script)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected 1 warning for the required gap without default, got %v", res.Warnings)
	}
}

func TestGenerateSQLWithDefaultForGap(t *testing.T) {
	m := sampleMapping()
	m.Gaps[0].Default = json.RawMessage(`'unknown'`)
	res, err := Generate(m, SQL, "source_tbl", "target_tbl")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("expected no warnings when a default is supplied, got %v", res.Warnings)
	}
	if !strings.Contains(res.Script, "'unknown' AS created_at") {
		t.Fatalf("expected default literal in output, got:\n%s", res.Script)
	}
}

func TestGenerateFilterProducesJSONDocument(t *testing.T) {
	res, err := Generate(sampleMapping(), Filter, "source_tbl", "target_tbl")
	if err != nil {
		t.Fatal(err)
	}
	var fields []map[string]any
	if err := json.Unmarshal([]byte(res.Script), &fields); err != nil {
		t.Fatalf("expected valid JSON document: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields (direct + transform; gap has no default), got %d", len(fields))
	}
}

func TestGenerateScriptProducesGoFunction(t *testing.T) {
	res, err := Generate(sampleMapping(), Script, "source_tbl", "target_tbl")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Script, "func mapToTargetTblFromSourceTbl(src map[string]any) map[string]any {") {
		t.Fatalf("expected generated function signature, got:\n%s", res.Script)
	}
}

func TestGenerateDistributedBatchWrapsScript(t *testing.T) {
	res, err := Generate(sampleMapping(), DistributedBatch, "source_tbl", "target_tbl")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Script, "func mapBatchTargetTblFromSourceTbl(rows []map[string]any) []map[string]any {") {
		t.Fatalf("expected batch wrapper function, got:\n%s", res.Script)
	}
}

func TestGenerateUnknownFormatErrors(t *testing.T) {
	_, err := Generate(sampleMapping(), Format("yaml"), "s", "t")
	if err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if _, ok := err.(*UnknownFormatError); !ok {
		t.Fatalf("expected *UnknownFormatError, got %T", err)
	}
}

func TestGenerateSQLUnknownTransformErrors(t *testing.T) {
	m := &matcher.SchemaMapping{
		Transformations: []matcher.TransformMapping{
			{SourcePaths: []string{"a", "b"}, TargetPath: "c", Type: matcher.TypeCast}, // invalid: 2 source paths
		},
	}
	_, err := Generate(m, SQL, "s", "t")
	if err == nil {
		t.Fatalf("expected error for malformed type_cast transform")
	}
}
