// Package ingest splits reference documents into sentence-aligned chunks
// and loads them into the knowledge base.
package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/capitalize-ai/support-router/internal/model"
)

// DefaultChunkSize is the default target chunk length in characters.
const DefaultChunkSize = 1000

// Chunker splits text into chunks that never cut a sentence in half.
//
// Sentences are accumulated until adding the next one would exceed the
// target size. A single sentence longer than the target becomes its own
// chunk. When overlap is positive, whole trailing sentences of the
// previous chunk whose combined length fits within overlap are repeated at
// the start of the next chunk.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a chunker. A non-positive size falls back to
// DefaultChunkSize; an overlap outside [0, size) is treated as zero.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Chunker{size: size, overlap: overlap}
}

// Size returns the target chunk size.
func (c *Chunker) Size() int {
	return c.size
}

// Split returns the chunks of text in document order. Blank text yields no
// chunks.
func (c *Chunker) Split(text string) []string {
	var (
		chunks []string
		buf    []string
		bufLen int
	)

	flush := func() {
		if s := strings.TrimSpace(strings.Join(buf, "")); s != "" {
			chunks = append(chunks, s)
		}
	}

	for _, sentence := range SplitSentences(text) {
		n := utf8.RuneCountInString(sentence)
		if len(buf) == 0 || bufLen+n <= c.size {
			buf = append(buf, sentence)
			bufLen += n
			continue
		}

		flush()
		carry, carryLen := c.carry(buf)
		buf, bufLen = nil, 0
		if carryLen > 0 && carryLen+n <= c.size && strings.TrimSpace(sentence) != "" {
			buf, bufLen = carry, carryLen
		}
		buf = append(buf, sentence)
		bufLen += n
	}
	if len(buf) > 0 {
		flush()
	}

	return chunks
}

// carry returns the trailing sentences of buf whose total length fits in
// the overlap window.
func (c *Chunker) carry(buf []string) ([]string, int) {
	if c.overlap == 0 {
		return nil, 0
	}
	total, start := 0, len(buf)
	for i := len(buf) - 1; i >= 0; i-- {
		n := utf8.RuneCountInString(buf[i])
		if total+n > c.overlap {
			break
		}
		total += n
		start = i
	}
	if start == len(buf) || strings.TrimSpace(strings.Join(buf[start:], "")) == "" {
		return nil, 0
	}
	out := make([]string, len(buf)-start)
	copy(out, buf[start:])
	return out, total
}

// Chunk splits text and annotates each piece with its source and position.
func (c *Chunker) Chunk(sourceID, title, text string) []model.DocumentChunk {
	parts := c.Split(text)
	if len(parts) == 0 {
		return nil
	}
	chunks := make([]model.DocumentChunk, len(parts))
	for i, p := range parts {
		chunks[i] = model.DocumentChunk{
			Text:        p,
			SourceTitle: title,
			SourceID:    sourceID,
			ChunkIndex:  i,
			TotalChunks: len(parts),
		}
	}
	return chunks
}

// SplitSentences breaks text into sentences. A sentence ends with a run of
// '.', '!' or '?' followed by whitespace or the end of the text. The
// terminator stays with its sentence and the whitespace after it leads the
// next one. Trailing text without a terminator is returned as the last
// sentence. Concatenating the result reproduces text exactly.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); {
		if !isTerminator(text[i]) {
			_, w := utf8.DecodeRuneInString(text[i:])
			i += w
			continue
		}
		j := i
		for j < len(text) && isTerminator(text[j]) {
			j++
		}
		if j == len(text) {
			i = j
			break
		}
		if r, _ := utf8.DecodeRuneInString(text[j:]); unicode.IsSpace(r) {
			sentences = append(sentences, text[start:j])
			start = j
		}
		i = j
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func isTerminator(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}
