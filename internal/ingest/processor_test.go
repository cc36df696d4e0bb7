package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/capitalize-ai/support-router/internal/model"
	"github.com/capitalize-ai/support-router/internal/store"
)

type fakeEmbedder struct {
	failOn string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, errors.New("embedding service unavailable")
	}
	return []float32{float32(len(text)), 1}, nil
}

type fakeVectors struct {
	mu      sync.Mutex
	vectors []model.Vector
}

func (f *fakeVectors) Upsert(_ context.Context, vectors []model.Vector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vectors = append(f.vectors, vectors...)
	return nil
}

func (f *fakeVectors) Delete(_ context.Context, filter map[string]string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.vectors[:0]
	removed := 0
	for _, v := range f.vectors {
		match := true
		for k, want := range filter {
			if v.Metadata[k] != want {
				match = false
			}
		}
		if match {
			removed++
			continue
		}
		kept = append(kept, v)
	}
	f.vectors = kept
	return removed, nil
}

type fakeRegistry struct {
	mu      sync.Mutex
	docs    []model.Document
	saveErr error
}

func (f *fakeRegistry) SaveDocument(_ context.Context, doc *model.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.docs = append(f.docs, *doc)
	return nil
}

func (f *fakeRegistry) DocumentsBySource(_ context.Context, source string) ([]model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Document
	for _, d := range f.docs {
		if source != "" && d.Source == source {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeRegistry) DeleteDocument(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, d := range f.docs {
		if d.ID == id {
			f.docs = append(f.docs[:i], f.docs[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeRegistry) ListDocuments(context.Context) ([]model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Document(nil), f.docs...), nil
}

func newTestProcessor(emb *fakeEmbedder) (*Processor, *fakeVectors, *fakeRegistry) {
	vec := &fakeVectors{}
	reg := &fakeRegistry{}
	return NewProcessor(NewChunker(20, 0), emb, vec, reg, nil), vec, reg
}

func TestProcessorIngest(t *testing.T) {
	p, vec, _ := newTestProcessor(&fakeEmbedder{})
	ctx := context.Background()

	res, err := p.Ingest(ctx, model.IngestRequest{
		Title:   "Returns",
		Source:  "policies/returns",
		Content: "One two. Three four. Five six seven eight nine.",
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.ChunkCount != 2 || res.DocumentID == "" {
		t.Fatalf("result = %+v", res)
	}

	if len(vec.vectors) != 2 {
		t.Fatalf("vectors = %d, want 2", len(vec.vectors))
	}
	meta := vec.vectors[1].Metadata
	if meta[model.MetaTitle] != "Returns" || meta[model.MetaSource] != "policies/returns" ||
		meta[model.MetaChunkIndex] != "1" || meta[model.MetaTotalChunks] != "2" ||
		meta[model.MetaContentType] != "text" || meta[model.MetaText] != "Five six seven eight nine." ||
		meta[model.MetaDocumentID] != res.DocumentID {
		t.Errorf("metadata = %v", meta)
	}
	if vec.vectors[0].ID == vec.vectors[1].ID {
		t.Error("vector ids should be unique")
	}

	docs, _ := p.ListDocuments(ctx)
	if len(docs) != 1 || docs[0].ChunkCount != 2 || docs[0].ID != res.DocumentID {
		t.Fatalf("docs = %+v", docs)
	}
	if docs[0].Metadata["original_length"] != "47" {
		t.Errorf("original_length = %q", docs[0].Metadata["original_length"])
	}
}

func TestProcessorIngestRejects(t *testing.T) {
	p, vec, _ := newTestProcessor(&fakeEmbedder{failOn: "poison"})
	ctx := context.Background()

	if _, err := p.Ingest(ctx, model.IngestRequest{Title: "", Content: "Text."}); err == nil {
		t.Error("expected error for missing title")
	}
	if _, err := p.Ingest(ctx, model.IngestRequest{Title: "Blank", Content: "  "}); err == nil {
		t.Error("expected error for blank content")
	}
	if _, err := p.Ingest(ctx, model.IngestRequest{Title: "Bad", Content: "poison pill."}); err == nil {
		t.Error("expected embedding error")
	}
	if len(vec.vectors) != 0 {
		t.Errorf("no vectors should be stored, got %d", len(vec.vectors))
	}
}

func TestProcessorIngestBatchSkipsFailures(t *testing.T) {
	p, _, reg := newTestProcessor(&fakeEmbedder{failOn: "poison"})

	out := p.IngestBatch(context.Background(), []model.IngestRequest{
		{Title: "A", Content: "Alpha."},
		{Title: "B", Content: "poison pill."},
		{Title: "C", Content: "Gamma."},
	})
	if len(out.Ingested) != 2 || out.Ingested[0].Title != "A" || out.Ingested[1].Title != "C" {
		t.Errorf("ingested = %+v", out.Ingested)
	}
	if len(out.Failed) != 1 || out.Failed[0] != "B" {
		t.Errorf("failed = %v", out.Failed)
	}
	if len(reg.docs) != 2 {
		t.Errorf("registered = %d, want 2", len(reg.docs))
	}
}

func TestProcessorReingestReplacesSource(t *testing.T) {
	p, vec, reg := newTestProcessor(&fakeEmbedder{})
	ctx := context.Background()

	first, err := p.Ingest(ctx, model.IngestRequest{Title: "FAQ", Source: "faq/general", Content: "One two. Three four. Five six seven eight nine."})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if _, err := p.Ingest(ctx, model.IngestRequest{Title: "Other", Content: "Unrelated text."}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	second, err := p.Ingest(ctx, model.IngestRequest{Title: "FAQ", Source: "faq/general", Content: "Only one line now."})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if len(vec.vectors) != 2 {
		t.Fatalf("vectors = %d, want 2", len(vec.vectors))
	}
	for _, v := range vec.vectors {
		if v.Metadata[model.MetaDocumentID] == first.DocumentID {
			t.Errorf("stale chunk %q from replaced document", v.Metadata[model.MetaText])
		}
	}
	docs, _ := reg.DocumentsBySource(ctx, "faq/general")
	if len(docs) != 1 || docs[0].ID != second.DocumentID {
		t.Errorf("faq documents = %+v", docs)
	}
	if len(reg.docs) != 2 {
		t.Errorf("documents = %d, want 2", len(reg.docs))
	}
}

func TestProcessorRegistrationFailureRemovesVectors(t *testing.T) {
	p, vec, reg := newTestProcessor(&fakeEmbedder{})
	ctx := context.Background()

	kept, err := p.Ingest(ctx, model.IngestRequest{Title: "Shipping", Source: "policies/shipping", Content: "Ships in five days."})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	reg.saveErr = errors.New("disk full")

	if _, err := p.Ingest(ctx, model.IngestRequest{Title: "Shipping", Source: "policies/shipping", Content: "Ships in two days."}); err == nil {
		t.Fatal("expected registration error")
	}
	if len(vec.vectors) != 1 || vec.vectors[0].Metadata[model.MetaDocumentID] != kept.DocumentID {
		t.Errorf("vectors = %+v, want only the registered document", vec.vectors)
	}
	if len(reg.docs) != 1 {
		t.Errorf("documents = %d, want 1", len(reg.docs))
	}
}
