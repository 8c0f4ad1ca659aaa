package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"Travel_Companion/backend/go/internal/models"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_pragma=foreign_keys(1)&mode=memory"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	// Each test gets its own in-memory database.
	db = db.Session(&gorm.Session{})
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	s, err := NewGormStore(db)
	if err != nil {
		t.Fatalf("NewGormStore() error = %v", err)
	}
	// Drop leftovers from a previous test sharing the cache.
	db.Exec("DELETE FROM conversation_turns")
	db.Exec("DELETE FROM user_facts")
	return s
}

func appendTurn(t *testing.T, s *GormStore, userID, sessionID, content string, role models.SpeakerRole, createdAt time.Time, ttlHours int) *models.ConversationTurn {
	t.Helper()
	turn := &models.ConversationTurn{
		UserID:          userID,
		SessionID:       sessionID,
		Role:            role,
		Content:         content,
		ImportanceScore: models.DefaultImportance(role),
		TTLHours:        ttlHours,
		CreatedAt:       createdAt,
	}
	if err := s.Append(context.Background(), turn); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	return turn
}

func TestAppendAndRecentHistory_Chronological(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 4; i++ {
		role := models.SpeakerUser
		if i%2 == 1 {
			role = models.SpeakerAssistant
		}
		appendTurn(t, s, "u1", "s1", fmt.Sprintf("turn %d", i), role, base.Add(time.Duration(i)*time.Minute), 0)
	}

	history, err := s.RecentHistory(ctx, "u1", "s1", 10)
	if err != nil {
		t.Fatalf("RecentHistory() error = %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("RecentHistory() returned %d turns, want 4", len(history))
	}
	for i, turn := range history {
		if turn.Content != fmt.Sprintf("turn %d", i) {
			t.Errorf("history[%d].Content = %q, want %q (chronological order)", i, turn.Content, fmt.Sprintf("turn %d", i))
		}
	}
}

func TestRecentHistory_TrimsToLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 10; i++ {
		appendTurn(t, s, "u1", "s1", fmt.Sprintf("turn %d", i), models.SpeakerUser, base.Add(time.Duration(i)*time.Minute), 0)
	}

	// limit 3 reads a wider window internally but returns exactly the
	// 3 newest turns, oldest first.
	history, err := s.RecentHistory(ctx, "u1", "s1", 3)
	if err != nil {
		t.Fatalf("RecentHistory() error = %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("RecentHistory() returned %d turns, want 3", len(history))
	}
	if history[0].Content != "turn 7" || history[2].Content != "turn 9" {
		t.Errorf("Window = [%q .. %q], want [turn 7 .. turn 9]", history[0].Content, history[2].Content)
	}
}

func TestRecentHistory_SessionFilterOptional(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	appendTurn(t, s, "u1", "s1", "in session one", models.SpeakerUser, now.Add(-2*time.Minute), 0)
	appendTurn(t, s, "u1", "s2", "in session two", models.SpeakerUser, now.Add(-time.Minute), 0)

	scoped, err := s.RecentHistory(ctx, "u1", "s1", 10)
	if err != nil {
		t.Fatalf("RecentHistory() error = %v", err)
	}
	if len(scoped) != 1 || scoped[0].Content != "in session one" {
		t.Errorf("Session-scoped history = %v, want only session one", scoped)
	}

	all, err := s.RecentHistory(ctx, "u1", "", 10)
	if err != nil {
		t.Fatalf("RecentHistory() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Unscoped history returned %d turns, want 2", len(all))
	}
}

func TestRecentEmbedded_FiltersAndWindows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		turn := &models.ConversationTurn{
			UserID:    "u1",
			SessionID: "s1",
			Role:      models.SpeakerUser,
			Content:   fmt.Sprintf("turn %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if i != 2 { // one turn without a vector
			if err := turn.SetEmbeddingVector([]float32{float32(i), 1}); err != nil {
				t.Fatalf("SetEmbeddingVector() error = %v", err)
			}
		}
		if err := s.Append(ctx, turn); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	embedded, err := s.RecentEmbedded(ctx, "u1", 3)
	if err != nil {
		t.Fatalf("RecentEmbedded() error = %v", err)
	}
	if len(embedded) != 3 {
		t.Fatalf("RecentEmbedded() returned %d turns, want 3", len(embedded))
	}
	// Newest first, and the vectorless turn 2 is not part of the window.
	if embedded[0].Content != "turn 4" || embedded[1].Content != "turn 3" || embedded[2].Content != "turn 1" {
		t.Errorf("Window = [%q, %q, %q], want [turn 4, turn 3, turn 1]",
			embedded[0].Content, embedded[1].Content, embedded[2].Content)
	}
}

func TestSweep_PerRowTTL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	// Written 2h ago with a 1h TTL: expired.
	appendTurn(t, s, "u1", "s1", "stale", models.SpeakerUser, now.Add(-2*time.Hour), 1)
	// Written 2h ago with the default 168h TTL: alive.
	appendTurn(t, s, "u1", "s1", "fresh", models.SpeakerUser, now.Add(-2*time.Hour), 0)

	removed, err := s.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Sweep() removed %d turns, want 1", removed)
	}

	history, err := s.RecentHistory(ctx, "u1", "s1", 10)
	if err != nil {
		t.Fatalf("RecentHistory() error = %v", err)
	}
	if len(history) != 1 || history[0].Content != "fresh" {
		t.Errorf("Surviving turns = %v, want only the fresh one", history)
	}
}

func TestExpire_ZeroRemovesAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	appendTurn(t, s, "u1", "s1", "a", models.SpeakerUser, now.Add(-time.Minute), 0)
	appendTurn(t, s, "u1", "s1", "b", models.SpeakerAssistant, now.Add(-time.Second), 0)

	removed, err := s.Expire(ctx, 0)
	if err != nil {
		t.Fatalf("Expire() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("Expire(0) removed %d turns, want 2", removed)
	}

	stats, err := s.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalTurns != 0 {
		t.Errorf("TotalTurns after Expire(0) = %d, want 0", stats.TotalTurns)
	}
}

func TestExpire_MaxAgeCutoff(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	// Default TTL keeps both alive, but the override cuts at 24h of age.
	appendTurn(t, s, "u1", "s1", "old", models.SpeakerUser, now.Add(-48*time.Hour), 0)
	appendTurn(t, s, "u1", "s1", "recent", models.SpeakerUser, now.Add(-time.Hour), 0)

	removed, err := s.Expire(ctx, 24)
	if err != nil {
		t.Fatalf("Expire() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Expire(24) removed %d turns, want 1", removed)
	}
}

func TestClearSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	appendTurn(t, s, "u1", "s1", "a", models.SpeakerUser, now, 0)
	appendTurn(t, s, "u1", "s1", "b", models.SpeakerAssistant, now, 0)
	appendTurn(t, s, "u1", "s2", "c", models.SpeakerUser, now, 0)

	removed, err := s.ClearSession(ctx, "u1", "s1")
	if err != nil {
		t.Fatalf("ClearSession() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("ClearSession() removed %d turns, want 2", removed)
	}

	rest, err := s.RecentHistory(ctx, "u1", "", 10)
	if err != nil {
		t.Fatalf("RecentHistory() error = %v", err)
	}
	if len(rest) != 1 || rest[0].SessionID != "s2" {
		t.Errorf("Surviving turns = %v, want only session s2", rest)
	}
}

func TestFactUpsert_LastWriteWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &models.UserFact{
		UserID:     "u1",
		Kind:       models.FactPreference,
		Content:    "I love trains",
		Confidence: 0.7,
	}
	if err := s.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	second := &models.UserFact{
		UserID:     "u1",
		Kind:       models.FactPreference,
		Content:    "I love night buses",
		Confidence: 0.7,
	}
	if err := s.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	// A different kind coexists.
	other := &models.UserFact{
		UserID:     "u1",
		Kind:       models.FactDislike,
		Content:    "I hate queues",
		Confidence: 0.7,
	}
	if err := s.Upsert(ctx, other); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	facts, err := s.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(facts) != 2 {
		t.Fatalf("ListByUser() returned %d facts, want 2", len(facts))
	}

	var preference *models.UserFact
	for i := range facts {
		if facts[i].Kind == models.FactPreference {
			preference = &facts[i]
		}
	}
	if preference == nil {
		t.Fatal("Expected a preference fact")
	}
	if preference.Content != "I love night buses" {
		t.Errorf("Preference content = %q, want the newer fact", preference.Content)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	withVec := &models.ConversationTurn{
		UserID: "u1", SessionID: "s1", Role: models.SpeakerUser, Content: "a", CreatedAt: now,
	}
	if err := withVec.SetEmbeddingVector([]float32{1, 2}); err != nil {
		t.Fatalf("SetEmbeddingVector() error = %v", err)
	}
	if err := s.Append(ctx, withVec); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	appendTurn(t, s, "u1", "s1", "b", models.SpeakerAssistant, now, 0)

	if err := s.Upsert(ctx, &models.UserFact{UserID: "u1", Kind: models.FactPlan, Content: "planning to ski", Confidence: 0.7}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	stats, err := s.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalTurns != 2 {
		t.Errorf("TotalTurns = %d, want 2", stats.TotalTurns)
	}
	if stats.EmbeddedTurns != 1 {
		t.Errorf("EmbeddedTurns = %d, want 1", stats.EmbeddedTurns)
	}
	if stats.FactCount != 1 {
		t.Errorf("FactCount = %d, want 1", stats.FactCount)
	}
	if stats.OldestTurn == nil || stats.NewestTurn == nil {
		t.Error("Expected oldest/newest timestamps to be set")
	}
}
