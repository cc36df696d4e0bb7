package model

import (
	"time"
)

// DocumentChunk is one sentence-aligned piece of a source document.
type DocumentChunk struct {
	Text        string `json:"text"`
	SourceTitle string `json:"source_title"`
	SourceID    string `json:"source_id"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
}

// Document is a registered knowledge-base document.
type Document struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Source      string            `json:"source,omitempty"`
	ContentType string            `json:"content_type"`
	ChunkCount  int               `json:"chunk_count"`
	IngestedAt  time.Time         `json:"ingested_at"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// IngestRequest is a document submitted for ingestion.
type IngestRequest struct {
	Title       string            `json:"title" yaml:"title"`
	Content     string            `json:"content" yaml:"content"`
	Source      string            `json:"source,omitempty" yaml:"source"`
	ContentType string            `json:"content_type,omitempty" yaml:"content_type"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata"`
}

// IngestResult reports the outcome of ingesting one document.
type IngestResult struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	ChunkCount int    `json:"chunk_count"`
}

// BatchIngestResult reports the outcome of a batch ingestion.
type BatchIngestResult struct {
	Ingested []IngestResult `json:"ingested"`
	Failed   []string       `json:"failed,omitempty"`
}

// Metadata keys stored alongside each vector.
const (
	MetaTitle       = "title"
	MetaSource      = "source"
	MetaContentType = "content_type"
	MetaText        = "text"
	MetaChunkIndex  = "chunk_index"
	MetaTotalChunks = "total_chunks"
	MetaDocumentID  = "document_id"
)

// Match is a vector search hit.
type Match struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Title returns the title metadata of the match.
func (m Match) Title() string {
	return m.Metadata[MetaTitle]
}

// Text returns the chunk text metadata of the match.
func (m Match) Text() string {
	return m.Metadata[MetaText]
}

// Vector is an embedded chunk ready for storage in a vector index.
type Vector struct {
	ID       string            `json:"id"`
	Values   []float32         `json:"values"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
