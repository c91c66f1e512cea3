package schema

import "testing"

func TestSimilarityBothEmpty(t *testing.T) {
	if got := Similarity(Object(nil), Object(nil)); got != 1.0 {
		t.Fatalf("both-empty similarity should be 1.0, got %v", got)
	}
}

func TestSimilarityNoSharedKeys(t *testing.T) {
	a := Object(map[string]*InferredField{"x": {Type: Integer()}})
	b := Object(map[string]*InferredField{"y": {Type: Integer()}})
	if got := Similarity(a, b); got != 0.0 {
		t.Fatalf("disjoint key sets should be 0.0, got %v", got)
	}
}

func TestSimilarityPartialOverlap(t *testing.T) {
	a := Object(map[string]*InferredField{
		"x": {Type: Integer()},
		"y": {Type: Integer()},
	})
	b := Object(map[string]*InferredField{
		"x": {Type: Integer()},
		"z": {Type: Integer()},
	})
	got := Similarity(a, b)
	if got <= 0 || got >= 1 {
		t.Fatalf("partial overlap should be strictly between 0 and 1, got %v", got)
	}
}

func TestSimilarityTypeMismatchLowersScore(t *testing.T) {
	compatible := Object(map[string]*InferredField{"x": {Type: Integer()}})
	incompatible := Object(map[string]*InferredField{"x": {Type: String("none")}})
	same := Object(map[string]*InferredField{"x": {Type: Integer()}})

	scoreCompatible := Similarity(compatible, same)
	scoreIncompatible := Similarity(compatible, incompatible)
	if scoreIncompatible >= scoreCompatible {
		t.Fatalf("type-incompatible shared key should score lower: %v vs %v", scoreIncompatible, scoreCompatible)
	}
}
