package ingest

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"no terminator", "hello world", []string{"hello world"}},
		{"two sentences", "Hi there. How are you?", []string{"Hi there.", " How are you?"}},
		{"terminator run", "Really?! Yes.", []string{"Really?!", " Yes."}},
		{"decimal stays", "Pi is 3.14 exactly. Done.", []string{"Pi is 3.14 exactly.", " Done."}},
		{"trailing text", "First. second part", []string{"First.", " second part"}},
		{"newline boundary", "Line one.\nLine two.", []string{"Line one.", "\nLine two."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitSentences(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if strings.Join(got, "") != tt.in {
				t.Errorf("concatenation does not reproduce input")
			}
		})
	}
}

func TestChunkerSplit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		in      string
		want    []string
	}{
		{
			name: "blank",
			size: 100,
			in:   "   \n\t ",
			want: nil,
		},
		{
			name: "fits in one chunk",
			size: 100,
			in:   "Short text. Another line.",
			want: []string{"Short text. Another line."},
		},
		{
			name: "no terminator",
			size: 100,
			in:   "  just some words  ",
			want: []string{"just some words"},
		},
		{
			name: "oversized sentence alone",
			size: 20,
			in:   "One two. Three four. Five six seven eight nine.",
			want: []string{"One two. Three four.", "Five six seven eight nine."},
		},
		{
			name:    "sentence aligned overlap",
			size:    25,
			overlap: 10,
			in:      "Aa. Bb bb. Cc cc cc. Dd dd dd dd.",
			want:    []string{"Aa. Bb bb. Cc cc cc.", "Cc cc cc. Dd dd dd dd."},
		},
		{
			name:    "overlap ignores trailing whitespace",
			size:    20,
			overlap: 5,
			in:      "Aaaaaaaa. Bb. Cc.     ",
			want:    []string{"Aaaaaaaa. Bb. Cc."},
		},
		{
			name: "counts runes",
			size: 15,
			in:   "Café olé. Über.",
			want: []string{"Café olé. Über."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewChunker(tt.size, tt.overlap).Split(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewChunkerDefaults(t *testing.T) {
	if NewChunker(0, 0).Size() != DefaultChunkSize {
		t.Error("non-positive size should use the default")
	}
	c := NewChunker(10, 10)
	if c.overlap != 0 {
		t.Errorf("overlap >= size should be ignored, got %d", c.overlap)
	}
}

func TestChunkerChunk(t *testing.T) {
	chunks := NewChunker(20, 0).Chunk("doc-1", "Returns", "One two. Three four. Five six seven eight nine.")
	if len(chunks) != 2 {
		t.Fatalf("len = %d, want 2", len(chunks))
	}
	for i, c := range chunks {
		if c.ChunkIndex != i || c.TotalChunks != 2 {
			t.Errorf("chunk %d index=%d total=%d", i, c.ChunkIndex, c.TotalChunks)
		}
		if c.SourceID != "doc-1" || c.SourceTitle != "Returns" {
			t.Errorf("chunk %d source = %q/%q", i, c.SourceID, c.SourceTitle)
		}
	}
	if NewChunker(20, 0).Chunk("d", "t", "") != nil {
		t.Error("empty text should produce no chunks")
	}
}
