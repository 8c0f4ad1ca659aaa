package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"

	"Travel_Companion/backend/go/internal/models"
	"Travel_Companion/backend/go/pkg/logger"
)

// fakeStore is an in-memory InsightStore.
type fakeStore struct {
	profiles map[string]*models.TravelDNAProfile
	recs     []*models.Recommendation
	jobs     map[string]*models.TrainingJob
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles: make(map[string]*models.TravelDNAProfile),
		jobs:     make(map[string]*models.TrainingJob),
	}
}

func (f *fakeStore) SaveProfile(_ context.Context, p *models.TravelDNAProfile) error {
	f.profiles[p.UserID] = p
	return nil
}

func (f *fakeStore) GetProfile(_ context.Context, userID string) (*models.TravelDNAProfile, error) {
	return f.profiles[userID], nil
}

func (f *fakeStore) SaveRecommendation(_ context.Context, rec *models.Recommendation) error {
	f.recs = append(f.recs, rec)
	return nil
}

func (f *fakeStore) GetRecommendations(_ context.Context, userID string, _, _ int) ([]*models.Recommendation, error) {
	var out []*models.Recommendation
	for _, rec := range f.recs {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateJob(_ context.Context, job *models.TrainingJob) error {
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeStore) GetJobByID(_ context.Context, id string) (*models.TrainingJob, error) {
	return f.jobs[id], nil
}

func (f *fakeStore) GetJobsByUserID(_ context.Context, userID string, _, _ int) ([]*models.TrainingJob, error) {
	var out []*models.TrainingJob
	for _, job := range f.jobs {
		if job.UserID == userID {
			out = append(out, job)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateJob(_ context.Context, job *models.TrainingJob) error {
	f.jobs[job.ID] = job
	return nil
}

// fakePublisher records published messages and can be told to fail.
type fakePublisher struct {
	published []interface{}
	fail      bool
}

func (f *fakePublisher) Publish(_ context.Context, _ string, value interface{}) error {
	if f.fail {
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, value)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

// fakeLLM returns a canned reply or an error.
type fakeLLM struct {
	reply string
	err   error
}

func (f *fakeLLM) Complete(_ context.Context, _ []models.ChatMessage) (string, error) {
	return f.reply, f.err
}

func newTestService(store *fakeStore, pub *fakePublisher, model *fakeLLM) *Service {
	log := logger.New("insight_service_test", "", "")
	if model == nil {
		// a typed nil would make the llm.LLM interface non-nil
		return NewService(store, NewConnectionManager(), pub, nil, log)
	}
	return NewService(store, NewConnectionManager(), pub, model, log)
}

func TestAnalyzeDNA_PersistsProfile(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakePublisher{}, nil)

	profile, err := svc.AnalyzeDNA(context.Background(), "7", models.QuizAnswers{
		"budget_preference": "budget",
	})
	if err != nil {
		t.Fatalf("AnalyzeDNA() error = %v", err)
	}
	if profile.PrimaryType != models.DNABudgetBackpacker {
		t.Errorf("PrimaryType = %s, want budget_backpacker", profile.PrimaryType)
	}
	if store.profiles["7"] == nil {
		t.Error("profile was not persisted")
	}
}

func TestAnalyzeDNA_RejectsEmptyQuiz(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakePublisher{}, nil)
	if _, err := svc.AnalyzeDNA(context.Background(), "7", nil); err == nil {
		t.Error("AnalyzeDNA() with no answers should fail")
	}
}

func TestRecommend_FallsBackWithoutLLM(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakePublisher{}, nil)

	if _, err := svc.AnalyzeDNA(context.Background(), "7", models.QuizAnswers{"activity_preference": "adventure"}); err != nil {
		t.Fatalf("AnalyzeDNA() error = %v", err)
	}

	rec, err := svc.Recommend(context.Background(), "7", "Lisbon")
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(rec.Items) != 5 {
		t.Errorf("len(Items) = %d, want 5 fallback items", len(rec.Items))
	}
	if len(rec.BasedOn) != 2 || rec.BasedOn[1] != "fallback" {
		t.Errorf("BasedOn = %v, want [travel_dna fallback]", rec.BasedOn)
	}
	if rec.Location != "Lisbon" {
		t.Errorf("Location = %q, want Lisbon", rec.Location)
	}
	if len(store.recs) != 1 {
		t.Errorf("recommendation record was not persisted")
	}
}

func TestRecommend_UsesModelJSON(t *testing.T) {
	store := newFakeStore()
	model := &fakeLLM{reply: "Here you go:\n```json\n[{\"name\":\"Alfama food walk\",\"category\":\"food\",\"reason\":\"hands-on culture\",\"score\":0.9}]\n```"}
	svc := newTestService(store, &fakePublisher{}, model)

	if _, err := svc.AnalyzeDNA(context.Background(), "7", models.QuizAnswers{"activity_preference": "cultural"}); err != nil {
		t.Fatalf("AnalyzeDNA() error = %v", err)
	}

	rec, err := svc.Recommend(context.Background(), "7", "")
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(rec.Items) != 1 || rec.Items[0].Name != "Alfama food walk" {
		t.Errorf("Items = %+v, want the parsed model item", rec.Items)
	}
	if len(rec.BasedOn) != 2 || rec.BasedOn[1] != "llm" {
		t.Errorf("BasedOn = %v, want [travel_dna llm]", rec.BasedOn)
	}
}

func TestRecommend_NoProfile(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakePublisher{}, nil)
	if _, err := svc.Recommend(context.Background(), "7", ""); err == nil {
		t.Error("Recommend() without a profile should fail")
	}
}

func TestSubmitJob_PublishFailureMarksJobFailed(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakePublisher{fail: true}, nil)

	if _, err := svc.SubmitJob(context.Background(), "7", JobKindDNARefresh); err == nil {
		t.Fatal("SubmitJob() should surface the publish failure")
	}

	jobs, _ := store.GetJobsByUserID(context.Background(), "7", 1, 10)
	if len(jobs) != 1 {
		t.Fatalf("len(jobs) = %d, want 1", len(jobs))
	}
	if jobs[0].Status != models.JobStatusFailed {
		t.Errorf("Status = %s, want failed", jobs[0].Status)
	}
}

func TestSubmitJob_UnknownKind(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakePublisher{}, nil)
	if _, err := svc.SubmitJob(context.Background(), "7", "mystery"); err == nil {
		t.Error("SubmitJob() with an unknown kind should fail")
	}
}

func TestHandleJobUpdate(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := newTestService(store, pub, nil)

	job, err := svc.SubmitJob(context.Background(), "7", JobKindDNARefresh)
	if err != nil {
		t.Fatalf("SubmitJob() error = %v", err)
	}

	update := *job
	update.Status = models.JobStatusRunning
	update.Stage = "recomputing"
	update.Progress = 60
	payload, _ := json.Marshal(&update)

	if err := svc.HandleJobUpdate(kafka.Message{Value: payload}); err != nil {
		t.Fatalf("HandleJobUpdate() error = %v", err)
	}

	stored, _ := store.GetJobByID(context.Background(), job.ID)
	if stored.Status != models.JobStatusRunning || stored.Progress != 60 {
		t.Errorf("stored job = %+v, want running at 60%%", stored)
	}
}

func TestGetJobByID_HidesOtherUsersJobs(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakePublisher{}, nil)

	job, err := svc.SubmitJob(context.Background(), "7", JobKindReranker)
	if err != nil {
		t.Fatalf("SubmitJob() error = %v", err)
	}

	got, err := svc.GetJobByID(context.Background(), job.ID, "8")
	if err != nil {
		t.Fatalf("GetJobByID() error = %v", err)
	}
	if got != nil {
		t.Error("another user's job should be reported as not found")
	}
}

func TestWorker_RefreshDNA(t *testing.T) {
	store := newFakeStore()
	results := &fakePublisher{}
	worker := NewWorker(store, results, logger.New("insight_worker_test", "", ""))

	// Seed a profile whose derived fields are stale relative to its scores.
	store.profiles["7"] = &models.TravelDNAProfile{
		UserID:      "7",
		PrimaryType: models.DNAExplorer,
		Scores:      map[string]float64{"explorer": 1, "relaxation_seeker": 4},
	}

	job := &models.TrainingJob{ID: "job-1", UserID: "7", Kind: JobKindDNARefresh, Status: models.JobStatusPending}
	store.jobs[job.ID] = job
	payload, _ := json.Marshal(job)

	if err := worker.HandleJob(kafka.Message{Value: payload}); err != nil {
		t.Fatalf("HandleJob() error = %v", err)
	}

	profile := store.profiles["7"]
	if profile.PrimaryType != models.DNARelaxationSeeker {
		t.Errorf("PrimaryType after refresh = %s, want relaxation_seeker", profile.PrimaryType)
	}
	if profile.Confidence != 0.8 {
		t.Errorf("Confidence after refresh = %v, want 0.8", profile.Confidence)
	}

	last, ok := results.published[len(results.published)-1].(*models.TrainingJob)
	if !ok {
		t.Fatalf("last published message is %T, want *models.TrainingJob", results.published[len(results.published)-1])
	}
	if last.Status != models.JobStatusSuccess || last.Progress != 100 {
		t.Errorf("final status update = %+v, want success at 100%%", last)
	}
}

func TestWorker_MissingProfileFails(t *testing.T) {
	store := newFakeStore()
	results := &fakePublisher{}
	worker := NewWorker(store, results, logger.New("insight_worker_test", "", ""))

	job := &models.TrainingJob{ID: "job-2", UserID: "nobody", Kind: JobKindDNARefresh}
	payload, _ := json.Marshal(job)

	if err := worker.HandleJob(kafka.Message{Value: payload}); err != nil {
		t.Fatalf("HandleJob() error = %v", err)
	}

	last := results.published[len(results.published)-1].(*models.TrainingJob)
	if last.Status != models.JobStatusFailed || last.Error == "" {
		t.Errorf("final status update = %+v, want a failed status with an error", last)
	}
}
