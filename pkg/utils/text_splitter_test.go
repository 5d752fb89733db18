package utils

import (
	"strings"
	"testing"
)

func TestSplitTextShortInput(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"single word", "inverter"},
		{"short sentence", "Close the battery disconnect first."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := SplitText(tt.text, 512, 50)
			if len(chunks) != 1 {
				t.Fatalf("got %d chunks, want 1", len(chunks))
			}
			if chunks[0] != tt.text {
				t.Errorf("short input was modified: %q", chunks[0])
			}
		})
	}
}

func TestSplitTextLongInput(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 400)

	chunks := SplitText(text, 128, 16)

	if len(chunks) < 2 {
		t.Fatalf("got %d chunks for long input, want several", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk == "" {
			t.Errorf("chunk %d is empty", i)
		}
	}
	if !strings.HasPrefix(text, chunks[0]) {
		t.Error("first chunk is not a prefix of the input")
	}
	if !strings.HasSuffix(text, chunks[len(chunks)-1]) {
		t.Error("last chunk is not a suffix of the input")
	}
}

func TestSplitTextOverlap(t *testing.T) {
	text := strings.Repeat("alpha bravo charlie delta echo foxtrot golf hotel ", 200)

	chunks := SplitText(text, 100, 20)
	if len(chunks) < 2 {
		t.Skipf("input did not split (%d chunks)", len(chunks))
	}

	// With overlap, the tail of each chunk reappears at the head of the next.
	for i := 0; i < len(chunks)-1; i++ {
		tail := chunks[i][len(chunks[i])-20:]
		if !strings.Contains(chunks[i+1], tail[:10]) {
			t.Errorf("chunks %d and %d share no overlap", i, i+1)
		}
	}
}

func TestSplitTextInvalidParams(t *testing.T) {
	text := strings.Repeat("word ", 50)

	// Zero chunk size falls back to the default instead of looping forever.
	chunks := SplitText(text, 0, 0)
	if len(chunks) == 0 {
		t.Fatal("no chunks returned")
	}

	// Overlap >= chunk size is ignored rather than producing a negative step.
	chunks = SplitText(text, 10, 10)
	if len(chunks) == 0 {
		t.Fatal("no chunks returned with degenerate overlap")
	}
}

func TestCountTokens(t *testing.T) {
	if got := CountTokens(""); got != 0 {
		t.Errorf("CountTokens(\"\") = %d, want 0", got)
	}

	short := CountTokens("battery")
	long := CountTokens(strings.Repeat("battery maintenance procedure ", 100))
	if short <= 0 {
		t.Errorf("CountTokens(short) = %d, want > 0", short)
	}
	if long <= short {
		t.Errorf("longer text should count more tokens: short=%d long=%d", short, long)
	}
}
