package extractor

import (
	"strings"
	"testing"
	"unicode/utf8"

	"Travel_Companion/backend/go/internal/models"
)

func factsByKind(facts []models.UserFact) map[models.FactKind]models.UserFact {
	out := make(map[models.FactKind]models.UserFact, len(facts))
	for _, f := range facts {
		out[f.Kind] = f
	}
	return out
}

func TestExtract_SingleKind(t *testing.T) {
	e := NewPatternExtractor()

	facts := e.Extract("u1", "I love street food markets")
	if len(facts) != 1 {
		t.Fatalf("Extract() returned %d facts, want 1", len(facts))
	}
	fact := facts[0]
	if fact.Kind != models.FactPreference {
		t.Errorf("Kind = %s, want preference", fact.Kind)
	}
	if fact.Content != "I love street food markets" {
		t.Errorf("Content = %q, want the original-case window", fact.Content)
	}
	if fact.Confidence != 0.7 {
		t.Errorf("Confidence = %f, want 0.7", fact.Confidence)
	}
	if fact.UserID != "u1" {
		t.Errorf("UserID = %q, want u1", fact.UserID)
	}
}

func TestExtract_MultipleKindsOneFactEach(t *testing.T) {
	e := NewPatternExtractor()

	msg := "I love hiking but I hate crowded buses, planning to see Kyoto next spring"
	facts := e.Extract("u1", msg)
	if len(facts) != 3 {
		t.Fatalf("Extract() returned %d facts, want 3", len(facts))
	}

	byKind := factsByKind(facts)
	if _, ok := byKind[models.FactPreference]; !ok {
		t.Error("Expected a preference fact")
	}
	if _, ok := byKind[models.FactDislike]; !ok {
		t.Error("Expected a dislike fact")
	}
	if _, ok := byKind[models.FactPlan]; !ok {
		t.Error("Expected a plan fact")
	}
}

func TestExtract_FirstCueWinsPerKind(t *testing.T) {
	e := NewPatternExtractor()

	// Both "i like" and "i love" are present; the cue list is checked in
	// order, so the extracted window starts at "i like".
	facts := e.Extract("u1", "Honestly I love trains, and I like slow mornings")
	if len(facts) != 1 {
		t.Fatalf("Extract() returned %d facts, want 1", len(facts))
	}
	if !strings.HasPrefix(facts[0].Content, "I like") {
		t.Errorf("Content = %q, want window starting at the first listed cue", facts[0].Content)
	}
}

func TestExtract_WindowIsBounded(t *testing.T) {
	e := NewPatternExtractor()

	msg := "i visited " + strings.Repeat("x", 300)
	facts := e.Extract("u1", msg)
	if len(facts) != 1 {
		t.Fatalf("Extract() returned %d facts, want 1", len(facts))
	}
	if n := utf8.RuneCountInString(facts[0].Content); n > 100 {
		t.Errorf("Content length = %d runes, want at most 100", n)
	}
}

func TestExtract_WindowCountsRunesNotBytes(t *testing.T) {
	e := NewPatternExtractor()

	// 120 two-byte runes after the cue put byte 100 in the middle of a
	// rune; the window must still end on a rune boundary.
	msg := "i like " + strings.Repeat("é", 120)
	facts := e.Extract("u1", msg)
	if len(facts) != 1 {
		t.Fatalf("Extract() returned %d facts, want 1", len(facts))
	}
	content := facts[0].Content
	if !utf8.ValidString(content) {
		t.Fatalf("Content = %q is not valid UTF-8", content)
	}
	if n := utf8.RuneCountInString(content); n != 100 {
		t.Errorf("Content length = %d runes, want 100", n)
	}
	if !strings.HasSuffix(content, "é") {
		t.Errorf("Content = %q, want it to end on a whole rune", content)
	}
}

func TestExtract_CaseInsensitiveMatchOriginalCaseContent(t *testing.T) {
	e := NewPatternExtractor()

	facts := e.Extract("u1", "I VISITED Lisbon in May")
	if len(facts) != 1 {
		t.Fatalf("Extract() returned %d facts, want 1", len(facts))
	}
	if facts[0].Kind != models.FactExperience {
		t.Errorf("Kind = %s, want experience", facts[0].Kind)
	}
	if facts[0].Content != "I VISITED Lisbon in May" {
		t.Errorf("Content = %q, want original casing preserved", facts[0].Content)
	}
}

func TestExtract_NoCues(t *testing.T) {
	e := NewPatternExtractor()

	if facts := e.Extract("u1", "What's the weather in Rome?"); len(facts) != 0 {
		t.Errorf("Extract() returned %d facts, want 0", len(facts))
	}
	if facts := e.Extract("u1", ""); len(facts) != 0 {
		t.Errorf("Extract() on empty message returned %d facts, want 0", len(facts))
	}
}
