package service

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"Travel_Companion/backend/go/internal/database/milvus"
	"Travel_Companion/backend/go/internal/models"
)

type fakeVectorIndex struct {
	vectors map[string][]float32
	matches []milvus.POIMatch
}

func newFakeVectorIndex() *fakeVectorIndex {
	return &fakeVectorIndex{vectors: make(map[string][]float32)}
}

func (f *fakeVectorIndex) UpsertPOI(_ context.Context, poiID string, vector []float32) error {
	f.vectors[poiID] = vector
	return nil
}

func (f *fakeVectorIndex) InsertBatch(_ context.Context, poiIDs []string, vectors [][]float32) error {
	for i, id := range poiIDs {
		f.vectors[id] = vectors[i]
	}
	return nil
}

func (f *fakeVectorIndex) DeletePOI(_ context.Context, poiID string) error {
	delete(f.vectors, poiID)
	return nil
}

func (f *fakeVectorIndex) SearchPOI(context.Context, []float32, int) ([]milvus.POIMatch, error) {
	return f.matches, nil
}

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	return s.vector, s.err
}

func (s *stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vector
	}
	return out, nil
}

func newTestService(t *testing.T, vectors VectorIndex, embedder *stubEmbedder) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	svc, err := New(db, vectors, embedder)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return svc
}

func TestUpsert_Idempotent(t *testing.T) {
	vectors := newFakeVectorIndex()
	svc := newTestService(t, vectors, &stubEmbedder{vector: []float32{1, 0}})
	ctx := context.Background()

	first := &models.POIRecord{ID: "poi-1", Name: "Senso-ji", Description: "old description"}
	if err := svc.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	second := &models.POIRecord{ID: "poi-1", Name: "Senso-ji Temple", Description: "new description"}
	if err := svc.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	var count int64
	if err := svc.db.Model(&models.POIRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("count error = %v", err)
	}
	if count != 1 {
		t.Errorf("Stored %d records after double upsert, want exactly 1", count)
	}

	stored, err := svc.Get(ctx, "poi-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Description != "new description" {
		t.Errorf("Description = %q, want the latest write", stored.Description)
	}
	if len(vectors.vectors) != 1 {
		t.Errorf("Vector index holds %d entries, want 1", len(vectors.vectors))
	}
}

func TestUpsert_SurvivesEmbeddingFailure(t *testing.T) {
	vectors := newFakeVectorIndex()
	svc := newTestService(t, vectors, &stubEmbedder{err: errors.New("embedder down")})
	ctx := context.Background()

	record := &models.POIRecord{ID: "poi-1", Name: "Senso-ji"}
	if err := svc.Upsert(ctx, record); err != nil {
		t.Fatalf("Upsert() error = %v, embedding failures must not fail the write", err)
	}

	stored, err := svc.Get(ctx, "poi-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored == nil {
		t.Fatal("Metadata should be stored even when embedding fails")
	}
	if len(vectors.vectors) != 0 {
		t.Error("No vector should have been written")
	}
}

func TestUpsert_Validation(t *testing.T) {
	svc := newTestService(t, newFakeVectorIndex(), &stubEmbedder{vector: []float32{1}})
	ctx := context.Background()

	if err := svc.Upsert(ctx, &models.POIRecord{Name: "no id"}); err == nil {
		t.Error("Upsert() without an ID should fail")
	}
	if err := svc.Upsert(ctx, &models.POIRecord{ID: "poi-1"}); err == nil {
		t.Error("Upsert() without a name should fail")
	}
}

func TestGet_MissingReturnsNil(t *testing.T) {
	svc := newTestService(t, newFakeVectorIndex(), &stubEmbedder{vector: []float32{1}})

	record, err := svc.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if record != nil {
		t.Errorf("Get() = %+v, want nil for a missing POI", record)
	}
}

func TestSearch_HydratesMetadataAndSkipsOrphans(t *testing.T) {
	vectors := newFakeVectorIndex()
	svc := newTestService(t, vectors, &stubEmbedder{vector: []float32{1, 0}})
	ctx := context.Background()

	if err := svc.Upsert(ctx, &models.POIRecord{ID: "poi-1", Name: "Senso-ji", Description: "temple"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	vectors.matches = []milvus.POIMatch{
		{ID: "poi-1", Score: 0.92},
		{ID: "ghost", Score: 0.80}, // vector hit with no metadata row
	}

	hits, err := svc.Search(ctx, "old temples", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Search() returned %d hits, want 1", len(hits))
	}
	if hits[0].Name != "Senso-ji" || hits[0].Score != float64(float32(0.92)) {
		t.Errorf("Hit = %+v, want the hydrated Senso-ji record", hits[0])
	}
}

func TestChunkTitle(t *testing.T) {
	tests := []struct {
		chunk string
		want  string
	}{
		{"# Senso-ji Temple\nTokyo's oldest temple.", "Senso-ji Temple"},
		{"Plain first line\nsecond line", "Plain first line"},
		{"   \nbody", "Untitled section"},
	}
	for _, tt := range tests {
		if got := chunkTitle(tt.chunk); got != tt.want {
			t.Errorf("chunkTitle(%q) = %q, want %q", tt.chunk, got, tt.want)
		}
	}
}

func TestChunkID_Deterministic(t *testing.T) {
	if chunkID("guide.pdf", 3) != chunkID("guide.pdf", 3) {
		t.Error("chunkID should be deterministic")
	}
	if chunkID("guide.pdf", 3) == chunkID("guide.pdf", 4) {
		t.Error("chunkID should differ across chunk indexes")
	}
}
