package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultMatcherIgnoresGitDirectory(t *testing.T) {
	m := NewDefaultMatcher()
	if !m.IsIgnored(".git", true) {
		t.Fatalf("expected .git/ to be ignored")
	}
	if m.IsIgnored("data.jsonl", false) {
		t.Fatalf("did not expect data.jsonl to be ignored")
	}
}

func TestStagingIgnoreMatcherHierarchical(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, FileName), []byte("*.tmp\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, FileName), []byte("secret.jsonl\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := NewStagingIgnoreMatcher(root)
	if err != nil {
		t.Fatal(err)
	}

	if !m.IsIgnored("scratch.tmp", false) {
		t.Fatalf("expected root pattern to match scratch.tmp")
	}
	if !m.IsIgnored("nested/secret.jsonl", false) {
		t.Fatalf("expected nested pattern to match nested/secret.jsonl")
	}
	if m.IsIgnored("nested/public.jsonl", false) {
		t.Fatalf("did not expect public.jsonl to be ignored")
	}
}

func TestCompositeIgnoresOnAnyMatch(t *testing.T) {
	c := NewComposite(NewDefaultMatcher(), nil)
	if !c.IsIgnored("node_modules", true) {
		t.Fatalf("expected node_modules/ to be ignored via default matcher")
	}
}
