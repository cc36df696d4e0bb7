package model

import (
	"math"
	"testing"
)

func TestHistoryRecent(t *testing.T) {
	var h History
	for i := 0; i < 8; i++ {
		h = append(h, Message{Content: string(rune('a' + i))})
	}

	got := h.Recent(5)
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	if got[0].Content != "d" || got[4].Content != "h" {
		t.Errorf("Recent(5) = %q..%q, want d..h", got[0].Content, got[4].Content)
	}
	if len(h[:3].Recent(5)) != 3 {
		t.Error("short history should be returned whole")
	}
	if h.Recent(0) != nil {
		t.Error("Recent(0) should be nil")
	}
}

func TestClampConfidence(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.3, 1},
		{math.NaN(), 0},
	}
	for _, c := range cases {
		if got := ClampConfidence(c.in); got != c.want {
			t.Errorf("ClampConfidence(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestIntentValid(t *testing.T) {
	for _, i := range []Intent{IntentKnowledge, IntentAction, IntentEscalation} {
		if !i.Valid() {
			t.Errorf("%s should be valid", i)
		}
	}
	if Intent("billing").Valid() {
		t.Error("unknown intent should be invalid")
	}
}
