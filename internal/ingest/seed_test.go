package ingest

import (
	"path/filepath"
	"testing"
)

func TestParseSeed(t *testing.T) {
	docs, err := ParseSeed([]byte(`
documents:
  - title: Return Policy
    source: policies/returns
    content: |
      You can return items within 30 days. Refunds take 5-7 business days.
  - title: Shipping
    source: policies/shipping
    content_type: markdown
    content: Standard shipping takes 5-7 business days.
`))
	if err != nil {
		t.Fatalf("ParseSeed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("len = %d, want 2", len(docs))
	}
	if docs[0].Title != "Return Policy" || docs[1].ContentType != "markdown" {
		t.Errorf("docs = %+v", docs)
	}
}

func TestParseSeedErrors(t *testing.T) {
	if _, err := ParseSeed([]byte("documents: [")); err == nil {
		t.Error("expected YAML error")
	}
	if _, err := ParseSeed([]byte("documents:\n  - content: untitled\n")); err == nil {
		t.Error("expected missing title error")
	}
}

func TestLoadSampleSeed(t *testing.T) {
	docs, err := LoadSeedFile(filepath.Join("..", "..", "data", "sample-documents.yaml"))
	if err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}
	if len(docs) == 0 {
		t.Fatal("sample seed has no documents")
	}
	for _, d := range docs {
		if len(NewChunker(DefaultChunkSize, 0).Split(d.Content)) == 0 {
			t.Errorf("sample %q produced no chunks", d.Title)
		}
	}
}

func TestLoadSeedFileMissing(t *testing.T) {
	if _, err := LoadSeedFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
