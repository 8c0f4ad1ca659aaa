package splitter

import (
	"strings"
	"testing"
)

func TestSplit_MergesShortParagraphs(t *testing.T) {
	s := New(200)
	text := "First paragraph about the old town.\n\nSecond paragraph about opening hours."

	chunks := s.Split(text)
	if len(chunks) != 1 {
		t.Fatalf("Split() returned %d chunks, want 1: %v", len(chunks), chunks)
	}
	if !strings.Contains(chunks[0], "old town") || !strings.Contains(chunks[0], "opening hours") {
		t.Errorf("Merged chunk is missing a paragraph: %q", chunks[0])
	}
}

func TestSplit_HeadingStartsNewChunk(t *testing.T) {
	s := New(800)
	text := "# Senso-ji Temple\nTokyo's oldest temple.\n\n# Meiji Shrine\nA peaceful forest shrine."

	chunks := s.Split(text)
	if len(chunks) != 2 {
		t.Fatalf("Split() returned %d chunks, want 2: %v", len(chunks), chunks)
	}
	if !strings.HasPrefix(chunks[0], "# Senso-ji Temple") {
		t.Errorf("First chunk = %q, want it to start at the first heading", chunks[0])
	}
	if !strings.HasPrefix(chunks[1], "# Meiji Shrine") {
		t.Errorf("Second chunk = %q, want it to start at the second heading", chunks[1])
	}
}

func TestSplit_RespectsMaxChars(t *testing.T) {
	s := New(100)
	text := strings.Repeat("word ", 20) + "\n\n" + strings.Repeat("more ", 20)

	chunks := s.Split(text)
	if len(chunks) != 2 {
		t.Fatalf("Split() returned %d chunks, want 2", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 100 {
			t.Errorf("chunks[%d] is %d chars, exceeds the limit", i, len(chunk))
		}
	}
}

func TestSplit_HardSplitsOversizedParagraph(t *testing.T) {
	s := New(50)
	chunks := s.Split(strings.Repeat("x", 120))

	if len(chunks) != 3 {
		t.Fatalf("Split() returned %d chunks, want 3", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 50 {
			t.Errorf("chunks[%d] is %d chars, exceeds the limit", i, len(chunk))
		}
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	s := New(0)
	if chunks := s.Split("   \n\n  "); len(chunks) != 0 {
		t.Errorf("Split() on blank input = %v, want none", chunks)
	}
}
