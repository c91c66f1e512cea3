package schema

import (
	"testing"

	"github.com/flowforge/ingestcore/internal/format"
)

func TestMergeCommutative(t *testing.T) {
	pairs := [][2]InferredType{
		{Integer(), Number()},
		{String(format.Email), String(format.UUID)},
		{Null(), String(format.None)},
		{Boolean(), Integer()},
		{Array(Integer()), Array(Number())},
	}
	for _, p := range pairs {
		ab := Merge(p[0], p[1])
		ba := Merge(p[1], p[0])
		if !structurallyEqual(ab, ba) {
			t.Errorf("merge not commutative for %v, %v: %v vs %v", p[0].Kind, p[1].Kind, ab, ba)
		}
	}
}

func TestMergeIntegerNumberPromotion(t *testing.T) {
	got := Merge(Integer(), Number())
	if got.Kind != KindNumber {
		t.Fatalf("expected Number, got %v", got.Kind)
	}
}

func TestMergeNullIdentity(t *testing.T) {
	got := Merge(Null(), String(format.Email))
	if got.Kind != KindString || got.Format != format.Email {
		t.Fatalf("Null should be identity element, got %v", got)
	}
}

func TestMergeStringFormatCollapse(t *testing.T) {
	got := Merge(String(format.Email), String(format.UUID))
	if got.Kind != KindString || got.Format != format.None {
		t.Fatalf("disagreeing formats should collapse to none, got %v", got)
	}
	same := Merge(String(format.Email), String(format.Email))
	if same.Format != format.Email {
		t.Fatalf("agreeing formats should be preserved")
	}
}

func TestMergeObjectOptionality(t *testing.T) {
	a := Object(map[string]*InferredField{
		"a": {Type: Integer(), Required: true, Occurrences: 1},
		"b": {Type: Integer(), Required: true, Occurrences: 1},
	})
	b := Object(map[string]*InferredField{
		"a": {Type: Integer(), Required: true, Occurrences: 1},
	})
	merged := Merge(a, b)
	if merged.Properties["b"].Required {
		t.Fatalf("key present on only one side must become optional")
	}
	if !merged.Properties["a"].Required {
		t.Fatalf("key present on both sides (both required) should stay required")
	}
	if merged.Properties["a"].Occurrences != 2 {
		t.Fatalf("occurrences should sum, got %d", merged.Properties["a"].Occurrences)
	}
}

func TestMergeMixedFlattenAndDedup(t *testing.T) {
	mixed := InferredType{Kind: KindMixed, Variants: []InferredType{Boolean(), String(format.None)}}
	got := Merge(mixed, Boolean())
	if got.Kind != KindMixed {
		t.Fatalf("expected Mixed, got %v", got.Kind)
	}
	if len(got.Variants) != 2 {
		t.Fatalf("expected deduplicated 2 variants, got %d: %v", len(got.Variants), got.Variants)
	}
}

func TestMergeMixedNestedFlattens(t *testing.T) {
	nested := InferredType{Kind: KindMixed, Variants: []InferredType{
		Boolean(),
		{Kind: KindMixed, Variants: []InferredType{String(format.None), Integer()}},
	}}
	got := canonicalizeMixed(nested.Variants)
	if got.Kind != KindMixed {
		t.Fatalf("expected Mixed after flatten, got %v", got.Kind)
	}
	for _, v := range got.Variants {
		if v.Kind == KindMixed {
			t.Fatalf("Mixed should be fully flattened, found nested Mixed")
		}
	}
}

func TestMergeUnknownIdentity(t *testing.T) {
	got := Merge(Unknown(), Integer())
	if got.Kind != KindInteger {
		t.Fatalf("Unknown should be identity, got %v", got.Kind)
	}
}

func TestMergeAssociativeOverSequence(t *testing.T) {
	// Building one-by-one must equal building from any partition followed by
	// a schema-level merge (associativity).
	seq := []InferredType{Integer(), Number(), Boolean(), Integer()}

	oneByOne := Unknown()
	for _, t2 := range seq {
		oneByOne = Merge(oneByOne, t2)
	}

	left := Merge(seq[0], seq[1])
	right := Merge(seq[2], seq[3])
	partitioned := Merge(left, right)

	if !structurallyEqual(oneByOne, partitioned) {
		t.Fatalf("merge not associative across partitions: %v vs %v", oneByOne, partitioned)
	}
}
