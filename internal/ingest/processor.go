package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/capitalize-ai/support-router/internal/model"
	"github.com/capitalize-ai/support-router/internal/store"
	"github.com/capitalize-ai/support-router/pkg/logger"
	"github.com/capitalize-ai/support-router/pkg/metrics"
)

var tracer = otel.Tracer("support-router/ingest")

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorWriter stores embedded chunks and removes them by metadata.
type VectorWriter interface {
	Upsert(ctx context.Context, vectors []model.Vector) error
	Delete(ctx context.Context, filter map[string]string) (int, error)
}

// DocumentRegistry records ingested documents.
type DocumentRegistry interface {
	SaveDocument(ctx context.Context, doc *model.Document) error
	ListDocuments(ctx context.Context) ([]model.Document, error)
	DocumentsBySource(ctx context.Context, source string) ([]model.Document, error)
	DeleteDocument(ctx context.Context, id string) error
}

// Processor chunks documents, embeds each chunk, stores the vectors and
// registers the document.
type Processor struct {
	chunker  *Chunker
	embedder Embedder
	vectors  VectorWriter
	registry DocumentRegistry
	log      *logger.Logger
	now      func() time.Time
}

// NewProcessor creates a document processor.
func NewProcessor(chunker *Chunker, embedder Embedder, vectors VectorWriter, registry DocumentRegistry, log *logger.Logger) *Processor {
	if log == nil {
		log = logger.NewNop()
	}
	return &Processor{
		chunker:  chunker,
		embedder: embedder,
		vectors:  vectors,
		registry: registry,
		log:      log.Named("ingest"),
		now:      time.Now,
	}
}

// Ingest processes one document and returns its id and chunk count. A
// document with a source replaces every earlier document from that source.
func (p *Processor) Ingest(ctx context.Context, req model.IngestRequest) (*model.IngestResult, error) {
	ctx, span := tracer.Start(ctx, "ingest.document")
	defer span.End()
	span.SetAttributes(attribute.String("document.title", req.Title))

	res, err := p.ingest(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.RecordIngestion("error", 0)
		p.log.Error("Document ingestion failed", zap.String("title", req.Title), zap.Error(err))
		return nil, err
	}

	metrics.RecordIngestion("success", res.ChunkCount)
	p.log.Info("Document ingested",
		zap.String("document_id", res.DocumentID),
		zap.String("title", res.Title),
		zap.Int("chunks", res.ChunkCount),
	)
	return res, nil
}

func (p *Processor) ingest(ctx context.Context, req model.IngestRequest) (*model.IngestResult, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, errors.New("document title is required")
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "text"
	}

	docID := uuid.New().String()
	chunks := p.chunker.Chunk(docID, title, req.Content)
	if len(chunks) == 0 {
		return nil, errors.New("document content is empty")
	}

	vectors := make([]model.Vector, len(chunks))
	for i, chunk := range chunks {
		values, err := p.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %d/%d: %w", i+1, len(chunks), err)
		}
		vectors[i] = model.Vector{
			ID:     uuid.New().String(),
			Values: values,
			Metadata: map[string]string{
				model.MetaTitle:       title,
				model.MetaSource:      req.Source,
				model.MetaContentType: contentType,
				model.MetaText:        chunk.Text,
				model.MetaChunkIndex:  strconv.Itoa(chunk.ChunkIndex),
				model.MetaTotalChunks: strconv.Itoa(chunk.TotalChunks),
				model.MetaDocumentID:  docID,
			},
		}
	}

	previous, err := p.registry.DocumentsBySource(ctx, req.Source)
	if err != nil {
		return nil, fmt.Errorf("look up previous versions: %w", err)
	}

	if err := p.vectors.Upsert(ctx, vectors); err != nil {
		return nil, fmt.Errorf("upsert vectors: %w", err)
	}

	meta := map[string]string{
		"original_length": strconv.Itoa(utf8.RuneCountInString(req.Content)),
	}
	for k, v := range req.Metadata {
		meta[k] = v
	}
	doc := &model.Document{
		ID:          docID,
		Title:       title,
		Source:      req.Source,
		ContentType: contentType,
		ChunkCount:  len(chunks),
		IngestedAt:  p.now().UTC(),
		Metadata:    meta,
	}
	if err := p.registry.SaveDocument(ctx, doc); err != nil {
		if _, derr := p.vectors.Delete(ctx, map[string]string{model.MetaDocumentID: docID}); derr != nil {
			p.log.Error("Failed to remove vectors of unregistered document",
				zap.String("document_id", docID),
				zap.Error(derr),
			)
		}
		return nil, fmt.Errorf("register document: %w", err)
	}

	for _, old := range previous {
		if err := p.remove(ctx, old.ID); err != nil {
			return nil, fmt.Errorf("replace previous version %s: %w", old.ID, err)
		}
		p.log.Info("Replaced previous document version",
			zap.String("document_id", old.ID),
			zap.String("source", req.Source),
		)
	}

	return &model.IngestResult{
		DocumentID: docID,
		Title:      title,
		ChunkCount: len(chunks),
	}, nil
}

// remove deletes a document's vectors and its registry row.
func (p *Processor) remove(ctx context.Context, docID string) error {
	if _, err := p.vectors.Delete(ctx, map[string]string{model.MetaDocumentID: docID}); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if err := p.registry.DeleteDocument(ctx, docID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// IngestBatch ingests each document in turn. Failures are logged and
// reported by title; they do not stop the batch.
func (p *Processor) IngestBatch(ctx context.Context, reqs []model.IngestRequest) *model.BatchIngestResult {
	out := &model.BatchIngestResult{Ingested: []model.IngestResult{}}
	for _, req := range reqs {
		if ctx.Err() != nil {
			out.Failed = append(out.Failed, req.Title)
			continue
		}
		res, err := p.Ingest(ctx, req)
		if err != nil {
			out.Failed = append(out.Failed, req.Title)
			continue
		}
		out.Ingested = append(out.Ingested, *res)
	}
	return out
}

// ListDocuments returns all registered documents, newest first.
func (p *Processor) ListDocuments(ctx context.Context) ([]model.Document, error) {
	return p.registry.ListDocuments(ctx)
}
