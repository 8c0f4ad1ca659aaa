package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"Travel_Companion/backend/go/internal/config"
	"Travel_Companion/backend/go/internal/memory/store"
	"Travel_Companion/backend/go/internal/models"
)

type fakeMemory struct {
	turns     []models.ConversationTurn
	memories  []models.MemoryHit
	history   []models.ConversationTurn
	appendErr error
	rankErr   error
}

func (f *fakeMemory) AddTurn(_ context.Context, userID, sessionID string, role models.SpeakerRole, content string) (*models.ConversationTurn, error) {
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	turn := models.ConversationTurn{UserID: userID, SessionID: sessionID, Role: role, Content: content}
	f.turns = append(f.turns, turn)
	return &turn, nil
}

func (f *fakeMemory) RelevantMemories(context.Context, string, string, int) ([]models.MemoryHit, error) {
	if f.rankErr != nil {
		return nil, f.rankErr
	}
	return f.memories, nil
}

func (f *fakeMemory) History(context.Context, string, string, int) ([]models.ConversationTurn, error) {
	return f.history, nil
}

func (f *fakeMemory) Facts(context.Context, string) ([]models.UserFact, error) { return nil, nil }

func (f *fakeMemory) ClearSession(context.Context, string, string) (int64, error) { return 0, nil }

func (f *fakeMemory) Expire(context.Context, int) (int64, error) { return 0, nil }

func (f *fakeMemory) Stats(context.Context, string) (*store.TurnStats, error) {
	return &store.TurnStats{}, nil
}

type fakeProfiles struct {
	profile *models.PersonaProfile
	err     error
}

func (f *fakeProfiles) GetProfile(context.Context, uint) (*models.PersonaProfile, error) {
	return f.profile, f.err
}

type fakeLLM struct {
	reply    string
	err      error
	messages []models.ChatMessage
}

func (f *fakeLLM) Complete(_ context.Context, messages []models.ChatMessage) (string, error) {
	f.messages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func testMemoryConfig() config.MemoryConfig {
	return config.MemoryConfig{
		ScanWindow: 50, RelevanceFloor: 0.3, SimilarityWeight: 0.7, ImportanceWeight: 0.3,
		TopK: 5, HistoryLimit: 10, TTLHours: 168, SweepInterval: "1h",
	}
}

func TestChat_AppendsBothTurns(t *testing.T) {
	memory := &fakeMemory{}
	model := &fakeLLM{reply: "Kyoto is lovely in spring."}
	svc := New(memory, &fakeProfiles{}, model, nil, testMemoryConfig())

	resp, err := svc.Chat(context.Background(), &ChatRequest{UserID: 7, SessionID: "s1", Message: "Tell me about Kyoto"})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if resp.Response != "Kyoto is lovely in spring." {
		t.Errorf("Response = %q, want the model reply", resp.Response)
	}
	if resp.Degraded {
		t.Error("Degraded should be false when the model succeeds")
	}

	if len(memory.turns) != 2 {
		t.Fatalf("Appended %d turns, want 2", len(memory.turns))
	}
	if memory.turns[0].Role != models.SpeakerUser || memory.turns[0].Content != "Tell me about Kyoto" {
		t.Errorf("First appended turn = %+v, want the user message", memory.turns[0])
	}
	if memory.turns[1].Role != models.SpeakerAssistant || memory.turns[1].Content != resp.Response {
		t.Errorf("Second appended turn = %+v, want the assistant reply", memory.turns[1])
	}
	if memory.turns[0].UserID != "7" {
		t.Errorf("Memory user id = %q, want \"7\"", memory.turns[0].UserID)
	}
}

func TestChat_FallbackWhenModelFails(t *testing.T) {
	memory := &fakeMemory{}
	model := &fakeLLM{err: errors.New("rate limited")}
	svc := New(memory, &fakeProfiles{}, model, nil, testMemoryConfig())

	resp, err := svc.Chat(context.Background(), &ChatRequest{UserID: 7, SessionID: "s1", Message: "hello there"})
	if err != nil {
		t.Fatalf("Chat() error = %v, model failures must not propagate", err)
	}
	if !resp.Degraded {
		t.Error("Degraded should be true when the model fails")
	}
	if !strings.Contains(resp.Response, "offline mode") {
		t.Errorf("Expected a fallback response, got %q", resp.Response)
	}

	// The fallback reply is still recorded as the assistant turn.
	if len(memory.turns) != 2 || memory.turns[1].Content != resp.Response {
		t.Errorf("Appended turns = %+v, want user message plus fallback reply", memory.turns)
	}
}

func TestChat_SurvivesMemoryFailures(t *testing.T) {
	memory := &fakeMemory{appendErr: errors.New("mysql down"), rankErr: errors.New("mysql down")}
	model := &fakeLLM{reply: "Sure, happy to help."}
	svc := New(memory, &fakeProfiles{err: errors.New("mysql down")}, model, nil, testMemoryConfig())

	resp, err := svc.Chat(context.Background(), &ChatRequest{UserID: 7, Message: "plan my weekend"})
	if err != nil {
		t.Fatalf("Chat() error = %v, storage failures must not propagate", err)
	}
	if resp.Response != "Sure, happy to help." {
		t.Errorf("Response = %q, want the model reply despite storage failures", resp.Response)
	}
	if resp.MemoriesUsed != 0 || resp.PersonaApplied {
		t.Errorf("Degraded turn should report no memories and no persona, got %+v", resp)
	}
}

func TestChat_PromptCarriesPersonaAndMemories(t *testing.T) {
	memory := &fakeMemory{
		memories: []models.MemoryHit{{Content: "I loved the ramen place in Shibuya", Score: 0.9}},
		history: []models.ConversationTurn{
			{Role: models.SpeakerUser, Content: "earlier question"},
			{Role: models.SpeakerAssistant, Content: "earlier answer"},
		},
	}
	profiles := &fakeProfiles{profile: &models.PersonaProfile{
		Traits: []models.TraitWeight{{Trait: "foodie", Weight: 0.9}},
	}}
	model := &fakeLLM{reply: "ok"}
	svc := New(memory, profiles, model, nil, testMemoryConfig())

	resp, err := svc.Chat(context.Background(), &ChatRequest{UserID: 7, SessionID: "s1", Message: "dinner ideas?"})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if !resp.PersonaApplied || resp.MemoriesUsed != 1 {
		t.Errorf("Response metadata = %+v, want persona applied and one memory used", resp)
	}

	// system + two history turns + current message.
	if len(model.messages) != 4 {
		t.Fatalf("Model received %d messages, want 4", len(model.messages))
	}
	system := model.messages[0]
	if system.Role != "system" {
		t.Errorf("First message role = %q, want system", system.Role)
	}
	if !strings.Contains(system.Content, "foodie (score: 0.90)") {
		t.Error("System prompt is missing the dominant trait")
	}
	if !strings.Contains(system.Content, "I loved the ramen place in Shibuya") {
		t.Error("System prompt is missing the retrieved memory")
	}
	if model.messages[3].Content != "dinner ideas?" {
		t.Errorf("Last message = %q, want the current user message", model.messages[3].Content)
	}
}

func TestChat_GeneratesSessionIDWhenMissing(t *testing.T) {
	memory := &fakeMemory{}
	svc := New(memory, &fakeProfiles{}, &fakeLLM{reply: "ok"}, nil, testMemoryConfig())

	resp, err := svc.Chat(context.Background(), &ChatRequest{UserID: 7, Message: "hi"})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if !strings.HasPrefix(resp.SessionID, "session_") {
		t.Errorf("SessionID = %q, want a generated session_ prefix", resp.SessionID)
	}
	if memory.turns[0].SessionID != resp.SessionID {
		t.Errorf("Appended turn session = %q, want %q", memory.turns[0].SessionID, resp.SessionID)
	}
}
