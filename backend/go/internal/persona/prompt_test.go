package persona

import (
	"strings"
	"testing"
	"time"

	"Travel_Companion/backend/go/internal/models"
)

func fullProfile() *models.PersonaProfile {
	return &models.PersonaProfile{
		Traits: []models.TraitWeight{
			{Trait: "foodie", Weight: 0.4},
			{Trait: "adventurer", Weight: 0.8},
			{Trait: "culture_seeker", Weight: 0.8},
		},
		BudgetRange: "budget",
		TravelStyle: "solo",
		CategoryPreferences: []models.CategoryWeight{
			{Category: "museums", Weight: 0.5},
			{Category: "hiking", Weight: 0.9},
			{Category: "street_food", Weight: 0.7},
			{Category: "nightlife", Weight: 0.2},
		},
		TransportModes:      []string{"walking", "metro"},
		DietaryRestrictions: []string{"vegetarian"},
	}
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	profile := fullProfile()
	memories := []models.MemoryHit{
		{Content: "I loved the ramen place in Shibuya", Score: 0.9, Timestamp: time.Unix(100, 0)},
		{Content: "I visited Kyoto last spring", Score: 0.8, Timestamp: time.Unix(200, 0)},
	}
	ambient := &models.AmbientContext{Location: "Tokyo", TimeOfDay: "evening"}

	first := BuildPrompt(profile, memories, ambient)
	second := BuildPrompt(profile, memories, ambient)
	if first != second {
		t.Error("BuildPrompt() is not deterministic for identical inputs")
	}
}

func TestBuildPrompt_BaseAndGuidanceAlwaysPresent(t *testing.T) {
	prompt := BuildPrompt(nil, nil, nil)

	if !strings.HasPrefix(prompt, "You are an AI travel companion") {
		t.Errorf("Prompt does not start with the base persona description:\n%s", prompt)
	}
	if !strings.Contains(prompt, "RESPONSE GUIDELINES:") {
		t.Error("Prompt is missing the closing guidance block")
	}
	for _, absent := range []string{"USER TRAVEL PERSONA", "RELEVANT MEMORIES", "CURRENT CONTEXT"} {
		if strings.Contains(prompt, absent) {
			t.Errorf("Prompt without inputs should not contain %q", absent)
		}
	}
}

func TestBuildPrompt_DominantTraitFirstMaxWins(t *testing.T) {
	prompt := BuildPrompt(fullProfile(), nil, nil)

	// adventurer and culture_seeker tie at 0.8; the one listed first wins.
	if !strings.Contains(prompt, "- Primary personality: adventurer (score: 0.80)") {
		t.Errorf("Expected adventurer as the dominant trait, got:\n%s", prompt)
	}
}

func TestBuildPrompt_TopThreeCategories(t *testing.T) {
	prompt := BuildPrompt(fullProfile(), nil, nil)

	want := "- Preferred categories: hiking (0.90), street_food (0.70), museums (0.50)"
	if !strings.Contains(prompt, want) {
		t.Errorf("Expected %q in prompt, got:\n%s", want, prompt)
	}
	if strings.Contains(prompt, "nightlife") {
		t.Error("Fourth category should have been cut at the top-3 boundary")
	}
}

func TestBuildPrompt_ProfileDefaults(t *testing.T) {
	prompt := BuildPrompt(&models.PersonaProfile{}, nil, nil)

	checks := []string{
		"- Primary personality: balanced traveler",
		"- Budget preference: mixed",
		"- Travel style: solo",
		"- Preferred categories: no specific preferences",
		"- Transport modes: walking",
		"- Dietary restrictions: none",
	}
	for _, want := range checks {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected %q in prompt with empty profile, got:\n%s", want, prompt)
		}
	}
}

func TestBuildPrompt_MemoriesCappedAtThree(t *testing.T) {
	memories := []models.MemoryHit{
		{Content: "memory one", Score: 0.9},
		{Content: "memory two", Score: 0.8},
		{Content: "memory three", Score: 0.7},
		{Content: "memory four", Score: 0.6},
	}
	prompt := BuildPrompt(nil, memories, nil)

	for _, want := range []string{"- memory one\n", "- memory two\n", "- memory three\n"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected %q in prompt", want)
		}
	}
	if strings.Contains(prompt, "memory four") {
		t.Error("Fourth memory should have been cut at the top-3 boundary")
	}
	if !strings.Contains(prompt, "Use these memories to provide personalized responses.") {
		t.Error("Memory section is missing its personalization instruction")
	}
}

func TestBuildPrompt_ContextDefaultsToUnknown(t *testing.T) {
	prompt := BuildPrompt(nil, nil, &models.AmbientContext{Location: "Lisbon"})

	checks := []string{
		"- Location: Lisbon",
		"- Time: Unknown",
		"- Weather: Unknown",
		"- Mood: Unknown",
	}
	for _, want := range checks {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected %q in context block, got:\n%s", want, prompt)
		}
	}
}
