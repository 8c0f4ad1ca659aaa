package service

import (
	"strings"
	"testing"
)

func TestFallbackResponse_TopicMatching(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"greeting", "Hello there!", "AI Travel Companion"},
		{"destination", "What should I see in Paris?", "Eiffel Tower"},
		{"case insensitive", "thinking about TOKYO", "Senso-ji Temple"},
		{"budget", "I need cheap travel ideas", "budget destinations"},
		{"food", "where should I eat tonight", "Street food"},
		{"itinerary", "help me plan a schedule", "Planning framework"},
		{"weather", "what's the climate like", "Seasonal planning"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FallbackResponse(tt.message)
			if !strings.Contains(got, tt.want) {
				t.Errorf("FallbackResponse(%q) does not contain %q", tt.message, tt.want)
			}
		})
	}
}

func TestFallbackResponse_DefaultEchoesMessage(t *testing.T) {
	got := FallbackResponse("quantum flux capacitors")
	if !strings.Contains(got, `"quantum flux capacitors"`) {
		t.Errorf("Default fallback should echo the message, got %q", got)
	}
	if !strings.Contains(got, "offline mode") {
		t.Error("Default fallback should mention offline mode")
	}
}

func TestFallbackResponse_FirstTopicWins(t *testing.T) {
	// "hi" appears in the greeting topic, which precedes the budget topic.
	got := FallbackResponse("hi, any budget tips?")
	if !strings.Contains(got, "AI Travel Companion") {
		t.Errorf("Expected the greeting topic to win, got %q", got)
	}
}

func TestSuggestions(t *testing.T) {
	got := Suggestions("we are going to Paris in June")
	if len(got) != 4 || got[0] != "Best time to visit Paris?" {
		t.Errorf("Suggestions() = %v, want the Paris follow-ups", got)
	}

	fallback := Suggestions("something unrelated")
	if len(fallback) != 4 || fallback[0] != "Plan a weekend getaway" {
		t.Errorf("Suggestions() = %v, want the default follow-ups", fallback)
	}
}
