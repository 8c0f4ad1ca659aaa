package ranker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"Travel_Companion/backend/go/internal/config"
	"Travel_Companion/backend/go/internal/models"
)

// fakeEmbedder returns a fixed vector per text, or an error when broken.
type fakeEmbedder struct {
	vectors map[string][]float32
	broken  bool
	calls   int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.broken {
		return nil, fmt.Errorf("embedding service down")
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		vec, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

func testMemoryConfig() config.MemoryConfig {
	return config.MemoryConfig{
		ScanWindow:       50,
		RelevanceFloor:   0.3,
		SimilarityWeight: 0.7,
		ImportanceWeight: 0.3,
		TopK:             5,
	}
}

func turnWithVector(t *testing.T, content string, vec []float32, importance float64) models.ConversationTurn {
	t.Helper()
	turn := models.ConversationTurn{
		UserID:          "u1",
		Role:            models.SpeakerUser,
		Content:         content,
		ImportanceScore: importance,
		CreatedAt:       time.Now(),
	}
	if vec != nil {
		if err := turn.SetEmbeddingVector(vec); err != nil {
			t.Fatalf("SetEmbeddingVector() error = %v", err)
		}
	}
	return turn
}

func TestRank_OrdersByBlendedScore(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"query": {1, 0, 0}}}
	r := New(emb, testMemoryConfig())

	// Identical similarity, different importance: importance decides.
	turns := []models.ConversationTurn{
		turnWithVector(t, "low importance", []float32{1, 0, 0}, 0.5),
		turnWithVector(t, "high importance", []float32{1, 0, 0}, 0.9),
	}

	hits := r.Rank(context.Background(), "query", turns, 5)
	if len(hits) != 2 {
		t.Fatalf("Rank() returned %d hits, want 2", len(hits))
	}
	if hits[0].Content != "high importance" {
		t.Errorf("Expected high importance memory first, got %q", hits[0].Content)
	}
	// score = 0.7*1.0 + 0.3*0.9 = 0.97
	if diff := hits[0].Score - 0.97; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Top score = %f, want 0.97", hits[0].Score)
	}
}

func TestRank_DropsScoresAtOrBelowFloor(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"query": {1, 0, 0}}}
	r := New(emb, testMemoryConfig())

	// Orthogonal vector with zero importance: score 0, below floor.
	turns := []models.ConversationTurn{
		turnWithVector(t, "irrelevant", []float32{0, 1, 0}, 0.0),
		// score = 0.7*0 + 0.3*1.0 = 0.3, equal to the floor and dropped.
		turnWithVector(t, "borderline", []float32{0, 1, 0}, 1.0),
		turnWithVector(t, "relevant", []float32{1, 0, 0}, 0.6),
	}

	hits := r.Rank(context.Background(), "query", turns, 5)
	if len(hits) != 1 {
		t.Fatalf("Rank() returned %d hits, want 1", len(hits))
	}
	if hits[0].Content != "relevant" {
		t.Errorf("Expected only the relevant memory, got %q", hits[0].Content)
	}
}

func TestRank_TruncatesToTopK(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"query": {1, 0, 0}}}
	r := New(emb, testMemoryConfig())

	var turns []models.ConversationTurn
	for i := 0; i < 8; i++ {
		turns = append(turns, turnWithVector(t, fmt.Sprintf("memory %d", i), []float32{1, 0, 0}, 0.9))
	}

	hits := r.Rank(context.Background(), "query", turns, 2)
	if len(hits) != 2 {
		t.Errorf("Rank() returned %d hits, want 2", len(hits))
	}
}

func TestRank_SkipsCorruptEmbeddings(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"query": {1, 0, 0}}}
	r := New(emb, testMemoryConfig())

	corrupt := turnWithVector(t, "corrupt", nil, 0.9)
	corrupt.Embedding = []byte("{not json")
	turns := []models.ConversationTurn{
		corrupt,
		turnWithVector(t, "good", []float32{1, 0, 0}, 0.6),
	}

	hits := r.Rank(context.Background(), "query", turns, 5)
	if len(hits) != 1 || hits[0].Content != "good" {
		t.Fatalf("Expected corrupt turn to be skipped, got %v", hits)
	}
}

func TestRank_EmptyOnEmbeddingFailure(t *testing.T) {
	emb := &fakeEmbedder{broken: true}
	r := New(emb, testMemoryConfig())

	turns := []models.ConversationTurn{
		turnWithVector(t, "anything", []float32{1, 0, 0}, 0.9),
	}

	hits := r.Rank(context.Background(), "query", turns, 5)
	if len(hits) != 0 {
		t.Errorf("Expected no hits when the embedder fails, got %d", len(hits))
	}
}

func TestRank_CachesQueryEmbedding(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"query": {1, 0, 0}}}
	r := New(emb, testMemoryConfig())

	turns := []models.ConversationTurn{
		turnWithVector(t, "memory", []float32{1, 0, 0}, 0.9),
	}

	r.Rank(context.Background(), "query", turns, 5)
	r.Rank(context.Background(), "query", turns, 5)

	if emb.calls != 1 {
		t.Errorf("Embedder called %d times, want 1 (second call should hit the cache)", emb.calls)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0.0},
		{"dimension mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("cosineSimilarity() = %f, want %f", got, tt.want)
			}
		})
	}
}
