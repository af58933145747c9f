package ingest

import (
	"strings"
	"testing"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "basic sentences",
			text: "First sentence. Second one! Third?",
			want: []string{"First sentence.", "Second one!", "Third?"},
		},
		{
			name: "collapses internal whitespace",
			text: "Spread   over\nlines. Done.",
			want: []string{"Spread over lines.", "Done."},
		},
		{
			name: "no terminal punctuation",
			text: "trailing fragment without period",
			want: []string{"trailing fragment without period"},
		},
		{
			name: "empty input",
			text: "   ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitSentences(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d sentences %q, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sentence %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplitText_RespectsChunkSize(t *testing.T) {
	var sb strings.Builder
	for range 20 {
		sb.WriteString("This is a filler sentence for chunking. ")
	}

	chunks := splitText(sb.String(), 200, 50)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 200 {
			t.Errorf("chunk %d has %d chars, exceeds 200", i, len(c))
		}
	}
}

func TestSplitText_Overlap(t *testing.T) {
	text := "Alpha sentence one. Beta sentence two. Gamma sentence three. Delta sentence four."

	chunks := splitText(text, 45, 25)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d: %q", len(chunks), chunks)
	}

	// The last sentence of a chunk reappears at the start of the next.
	first := splitSentences(chunks[0])
	second := splitSentences(chunks[1])
	if first[len(first)-1] != second[0] {
		t.Errorf("no overlap between %q and %q", chunks[0], chunks[1])
	}
}

func TestSplitText_OversizedSentence(t *testing.T) {
	long := strings.Repeat("x", 300) + "."
	chunks := splitText(long+" Short one.", 100, 20)

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2: %q", len(chunks), chunks)
	}
	if chunks[0] != long {
		t.Errorf("oversized sentence was split: %q", chunks[0])
	}
}

func TestSplitText_Empty(t *testing.T) {
	if got := splitText("", 100, 10); got != nil {
		t.Errorf("splitText(\"\") = %q, want nil", got)
	}
}
