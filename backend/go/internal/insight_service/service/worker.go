package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"Travel_Companion/backend/go/internal/insight_service/store"
	"Travel_Companion/backend/go/internal/models"
	"Travel_Companion/backend/go/pkg/logger"
)

// Worker executes training jobs consumed from the dispatch topic and reports
// every status transition to the result topic. The API service consumes the
// result topic to update Mongo and notify the submitter.
type Worker struct {
	store   store.InsightStore
	results JobPublisher
	logger  *logger.Logger
}

// NewWorker creates a new Worker.
func NewWorker(store store.InsightStore, results JobPublisher, logger *logger.Logger) *Worker {
	return &Worker{
		store:   store,
		results: results,
		logger:  logger,
	}
}

// HandleJob processes one dispatched job message.
func (w *Worker) HandleJob(msg kafka.Message) error {
	var job models.TrainingJob
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		w.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to unmarshal dispatched job")
		return err
	}

	ctx := context.Background()
	w.report(ctx, &job, models.JobStatusRunning, "loading", 10, nil)

	var err error
	switch job.Kind {
	case JobKindDNARefresh:
		err = w.refreshDNA(ctx, &job)
	case JobKindReranker:
		err = w.rerankRecommendations(ctx, &job)
	default:
		err = errors.New("unknown job kind: " + job.Kind)
	}

	if err != nil {
		w.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{"jobID": job.ID}).Error("❌ Training job failed")
		w.report(ctx, &job, models.JobStatusFailed, job.Stage, job.Progress, err)
		return nil // the failure is reported, not retried
	}

	w.logger.WithPayload(map[string]interface{}{"jobID": job.ID, "kind": job.Kind}).Info("✅ Training job completed")
	w.report(ctx, &job, models.JobStatusSuccess, "done", 100, nil)
	return nil
}

// refreshDNA recomputes the derived fields of a stored profile from its raw
// scores. Useful after the type catalog changes.
func (w *Worker) refreshDNA(ctx context.Context, job *models.TrainingJob) error {
	profile, err := w.store.GetProfile(ctx, job.UserID)
	if err != nil {
		return err
	}
	if profile == nil {
		return errors.New("user has no DNA profile to refresh")
	}
	w.report(ctx, job, models.JobStatusRunning, "recomputing", 60, nil)

	primary := dnaTypeOrder[0]
	var best, total float64
	for _, t := range dnaTypeOrder {
		score := profile.Scores[string(t)]
		total += score
		if score > best {
			best = score
			primary = t
		}
	}

	profile.PrimaryType = primary
	profile.Confidence = 0
	if total > 0 {
		profile.Confidence = best / total
	}
	info := dnaTypeCatalog[primary]
	profile.Description = info.Description
	profile.Keywords = info.Keywords
	profile.AnalyzedAt = time.Now()

	return w.store.SaveProfile(ctx, profile)
}

// rerankRecommendations regenerates the user's recommendation feed from the
// current profile, ordered by score.
func (w *Worker) rerankRecommendations(ctx context.Context, job *models.TrainingJob) error {
	profile, err := w.store.GetProfile(ctx, job.UserID)
	if err != nil {
		return err
	}
	if profile == nil {
		return errors.New("user has no DNA profile to rerank against")
	}
	w.report(ctx, job, models.JobStatusRunning, "reranking", 60, nil)

	items := fallbackItems(profile)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })

	rec := &models.Recommendation{
		ID:          uuid.New().String(),
		UserID:      job.UserID,
		BasedOn:     []string{"travel_dna", "reranker"},
		Items:       items,
		GeneratedAt: time.Now(),
	}
	return w.store.SaveRecommendation(ctx, rec)
}

// report publishes one status transition to the result topic. Publish
// failures are logged but do not abort the job.
func (w *Worker) report(ctx context.Context, job *models.TrainingJob, status models.JobStatus, stage string, progress int, cause error) {
	job.Status = status
	job.Stage = stage
	job.Progress = progress
	if cause != nil {
		job.Error = cause.Error()
	}
	if status == models.JobStatusSuccess || status == models.JobStatusFailed {
		job.CompletedAt = time.Now()
	}

	if err := w.results.Publish(ctx, job.ID, job); err != nil {
		w.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{"jobID": job.ID}).Error("Failed to publish job status update")
	}
}
