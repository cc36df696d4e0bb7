package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"

	"pgregory.net/rapid"
)

func sentencesGen() *rapid.Generator[[]string] {
	return rapid.SliceOfN(rapid.StringMatching(`[A-Za-z]{1,12}( [A-Za-z0-9]{1,12}){0,8}[.!?]`), 0, 30)
}

// TestPropertyChunkerReassembles verifies that without overlap the chunks
// are the input sentences in order, each appearing exactly once.
func TestPropertyChunkerReassembles(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sentences := sentencesGen().Draw(rt, "sentences")
		size := rapid.IntRange(5, 200).Draw(rt, "size")
		text := strings.Join(sentences, " ")

		chunks := NewChunker(size, 0).Split(text)
		if got := strings.Join(chunks, " "); got != text {
			rt.Fatalf("reassembled %q, want %q", got, text)
		}
	})
}

// TestPropertyChunkerBounds verifies that no chunk is empty and that a chunk
// only exceeds the target size when it is a single sentence.
func TestPropertyChunkerBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sentences := sentencesGen().Draw(rt, "sentences")
		size := rapid.IntRange(5, 200).Draw(rt, "size")
		overlap := rapid.IntRange(0, size-1).Draw(rt, "overlap")
		text := strings.Join(sentences, " ")

		for i, c := range NewChunker(size, overlap).Split(text) {
			if strings.TrimSpace(c) == "" {
				rt.Fatalf("chunk %d is empty", i)
			}
			if c != strings.TrimSpace(c) {
				rt.Fatalf("chunk %d is not trimmed: %q", i, c)
			}
			if utf8.RuneCountInString(c) > size && len(SplitSentences(c)) != 1 {
				rt.Fatalf("chunk %d has %d runes over size %d and several sentences: %q",
					i, utf8.RuneCountInString(c), size, c)
			}
		}
	})
}

// TestPropertyChunkerCoversEverySentence verifies that with any overlap each
// input sentence lands in some chunk intact.
func TestPropertyChunkerCoversEverySentence(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		sentences := sentencesGen().Draw(rt, "sentences")
		size := rapid.IntRange(5, 200).Draw(rt, "size")
		overlap := rapid.IntRange(0, size-1).Draw(rt, "overlap")

		chunks := NewChunker(size, overlap).Split(strings.Join(sentences, " "))
		for _, s := range sentences {
			found := false
			for _, c := range chunks {
				if strings.Contains(c, s) {
					found = true
					break
				}
			}
			if !found {
				rt.Fatalf("sentence %q missing from chunks %q", s, chunks)
			}
		}
	})
}

// TestPropertyChunkerDeterministic verifies that identical input always
// yields identical chunks.
func TestPropertyChunkerDeterministic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		text := strings.Join(sentencesGen().Draw(rt, "sentences"), " ")
		size := rapid.IntRange(5, 200).Draw(rt, "size")
		c := NewChunker(size, 0)

		a, b := c.Split(text), c.Split(text)
		if strings.Join(a, "\x00") != strings.Join(b, "\x00") || len(a) != len(b) {
			rt.Fatalf("non-deterministic split")
		}
	})
}

// TestPropertyChunkerShortTextIsOneChunk verifies that text no longer than
// the target size comes back as a single trimmed chunk, whatever mix of
// whitespace and non-ASCII letters it contains.
func TestPropertyChunkerShortTextIsOneChunk(t *testing.T) {
	alphabet := []rune("aZé ü\n\t.!? \r")
	rapid.Check(t, func(rt *rapid.T) {
		runes := rapid.SliceOfN(rapid.SampledFrom(alphabet), 0, 80).Draw(rt, "runes")
		text := string(runes)
		size := rapid.IntRange(len(runes), len(runes)+50).Filter(func(n int) bool { return n > 0 }).Draw(rt, "size")
		overlap := rapid.IntRange(0, size-1).Draw(rt, "overlap")

		got := NewChunker(size, overlap).Split(text)
		want := strings.TrimSpace(text)
		if want == "" {
			if len(got) != 0 {
				rt.Fatalf("blank text %q gave chunks %q", text, got)
			}
			return
		}
		if len(got) != 1 || got[0] != want {
			rt.Fatalf("Split(%q) with size %d = %q, want [%q]", text, size, got, want)
		}
	})
}
