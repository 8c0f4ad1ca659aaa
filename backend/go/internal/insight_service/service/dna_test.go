package service

import (
	"math"
	"testing"

	"Travel_Companion/backend/go/internal/models"
)

func TestScoreAnswers_LuxuryProfile(t *testing.T) {
	answers := models.QuizAnswers{
		"budget_preference":   "luxury",
		"activity_preference": "luxury",
		"accommodation_style": "luxury_hotel",
		"planning_style":      "detailed",
	}

	scores, primary, confidence := ScoreAnswers(answers)
	if primary != models.DNALuxuryTraveler {
		t.Errorf("primary = %s, want luxury_traveler", primary)
	}
	if scores[models.DNALuxuryTraveler] != 8 {
		t.Errorf("luxury_traveler score = %v, want 8", scores[models.DNALuxuryTraveler])
	}
	if confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0 for a single-type profile", confidence)
	}
}

func TestScoreAnswers_MidRangeSplitsSignal(t *testing.T) {
	scores, _, _ := ScoreAnswers(models.QuizAnswers{"budget_preference": "mid_range"})
	if scores[models.DNACultureSeeker] != 1 || scores[models.DNAExplorer] != 1 {
		t.Errorf("mid-range budget should add 1 to both culture_seeker and explorer, got %v", scores)
	}
}

func TestScoreAnswers_TieBreaksInTypeOrder(t *testing.T) {
	// budget_backpacker and relaxation_seeker both end at 3; the earlier
	// entry in dnaTypeOrder wins.
	answers := models.QuizAnswers{
		"budget_preference":   "budget",     // backpacker +3
		"activity_preference": "relaxation", // relaxation +3
	}
	_, primary, confidence := ScoreAnswers(answers)
	if primary != models.DNABudgetBackpacker {
		t.Errorf("primary = %s, want budget_backpacker (earlier in tie order)", primary)
	}
	if math.Abs(confidence-0.5) > 1e-9 {
		t.Errorf("confidence = %v, want 0.5", confidence)
	}
}

func TestScoreAnswers_Empty(t *testing.T) {
	scores, primary, confidence := ScoreAnswers(models.QuizAnswers{})
	for dna, score := range scores {
		if score != 0 {
			t.Errorf("score[%s] = %v, want 0", dna, score)
		}
	}
	if primary != models.DNAExplorer {
		t.Errorf("primary with no signal = %s, want explorer", primary)
	}
	if confidence != 0 {
		t.Errorf("confidence with no signal = %v, want 0", confidence)
	}
}

func TestBuildProfile(t *testing.T) {
	answers := models.QuizAnswers{
		"activity_preference": "adventure",
		"planning_style":      "flexible",
	}
	profile := BuildProfile("42", answers)

	if profile.UserID != "42" {
		t.Errorf("UserID = %q, want 42", profile.UserID)
	}
	if profile.PrimaryType != models.DNAExplorer {
		t.Errorf("PrimaryType = %s, want explorer", profile.PrimaryType)
	}
	if profile.Scores["explorer"] != 5 {
		t.Errorf("Scores[explorer] = %v, want 5", profile.Scores["explorer"])
	}
	if profile.Description != dnaTypeCatalog[models.DNAExplorer].Description {
		t.Errorf("Description = %q, want the explorer description", profile.Description)
	}
	if len(profile.Keywords) != 4 || profile.Keywords[0] != "adventurous" {
		t.Errorf("Keywords = %v, want the explorer keywords", profile.Keywords)
	}
	if profile.AnalyzedAt.IsZero() {
		t.Error("AnalyzedAt was not set")
	}
}

func TestFallbackItems(t *testing.T) {
	profile := BuildProfile("1", models.QuizAnswers{"activity_preference": "cultural"})

	items := fallbackItems(profile)
	if len(items) != 5 {
		t.Fatalf("len(items) = %d, want 5", len(items))
	}
	if items[0].Name != "Explore destinations that match your The Culture Seeker personality" {
		t.Errorf("items[0].Name = %q", items[0].Name)
	}
	if items[1].Name != "Focus on cultural, educational, respectful, observant experiences" {
		t.Errorf("items[1].Name = %q", items[1].Name)
	}
	for i, item := range items {
		if item.Score != profile.Confidence {
			t.Errorf("items[%d].Score = %v, want the profile confidence %v", i, item.Score, profile.Confidence)
		}
	}
}
