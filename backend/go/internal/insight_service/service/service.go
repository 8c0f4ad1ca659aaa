package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/segmentio/kafka-go"

	"Travel_Companion/backend/go/internal/insight_service/store"
	"Travel_Companion/backend/go/internal/llm"
	"Travel_Companion/backend/go/internal/models"
	"Travel_Companion/backend/go/pkg/logger"
)

// Job kinds accepted by SubmitJob.
const (
	JobKindDNARefresh = "dna_refresh"
	JobKindReranker   = "reranker"
)

const maxRecommendationItems = 5

// JobPublisher defines the interface for dispatching training jobs.
type JobPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// Service provides the insight business logic: quiz analysis, recommendation
// generation and async training job orchestration.
type Service struct {
	store       store.InsightStore
	connManager *ConnectionManager
	publisher   JobPublisher
	llm         llm.LLM
	logger      *logger.Logger
}

// NewService creates a new insight Service. The LLM client may be nil; in
// that case recommendations always come from the static fallback.
func NewService(store store.InsightStore, connManager *ConnectionManager, publisher JobPublisher, model llm.LLM, logger *logger.Logger) *Service {
	return &Service{
		store:       store,
		connManager: connManager,
		publisher:   publisher,
		llm:         model,
		logger:      logger,
	}
}

// --- WebSocket connections ---

// AddConnection registers a WebSocket connection for a user.
func (s *Service) AddConnection(userID string, conn *websocket.Conn) {
	s.connManager.Add(userID, conn)
	s.logger.Info("WebSocket connection added for user: " + userID)
}

// RemoveConnection removes a WebSocket connection for a user.
func (s *Service) RemoveConnection(userID string) {
	s.connManager.Remove(userID)
	s.logger.Info("WebSocket connection removed for user: " + userID)
}

// --- Travel DNA ---

// AnalyzeDNA scores the quiz answers, persists the resulting profile and
// returns it.
func (s *Service) AnalyzeDNA(ctx context.Context, userID string, answers models.QuizAnswers) (*models.TravelDNAProfile, error) {
	if len(answers) == 0 {
		return nil, errors.New("no quiz answers provided")
	}

	profile := BuildProfile(userID, answers)
	if err := s.store.SaveProfile(ctx, profile); err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to save DNA profile")
		return nil, err
	}

	s.logger.WithPayload(map[string]interface{}{
		"userID":      userID,
		"primaryType": profile.PrimaryType,
		"confidence":  profile.Confidence,
	}).Info("✅ Travel DNA analyzed")
	return profile, nil
}

// GetDNA retrieves a user's stored DNA profile, or nil if the quiz was never
// taken.
func (s *Service) GetDNA(ctx context.Context, userID string) (*models.TravelDNAProfile, error) {
	return s.store.GetProfile(ctx, userID)
}

// --- Recommendations ---

// Recommend generates personalized travel recommendations from the user's DNA
// profile. It asks the LLM first and falls back to a static list derived from
// the profile when the model is unavailable or returns garbage.
func (s *Service) Recommend(ctx context.Context, userID, location string) (*models.Recommendation, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, errors.New("no DNA profile yet, take the quiz first")
	}

	basedOn := []string{"travel_dna"}
	items, err := s.modelRecommendations(ctx, profile, location)
	if err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("LLM recommendations unavailable, using fallback")
		items = fallbackItems(profile)
		basedOn = append(basedOn, "fallback")
	} else {
		basedOn = append(basedOn, "llm")
	}
	if len(items) > maxRecommendationItems {
		items = items[:maxRecommendationItems]
	}

	rec := &models.Recommendation{
		ID:          uuid.New().String(),
		UserID:      userID,
		Location:    location,
		BasedOn:     basedOn,
		Items:       items,
		GeneratedAt: time.Now(),
	}
	if err := s.store.SaveRecommendation(ctx, rec); err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to save recommendation record")
		return nil, err
	}
	return rec, nil
}

// RecommendationHistory retrieves a paginated history of generated
// recommendations, newest first.
func (s *Service) RecommendationHistory(ctx context.Context, userID string, page, limit int) ([]*models.Recommendation, error) {
	return s.store.GetRecommendations(ctx, userID, page, limit)
}

// modelRecommendations asks the LLM for a JSON list of recommendation items.
func (s *Service) modelRecommendations(ctx context.Context, profile *models.TravelDNAProfile, location string) ([]models.RecommendationItem, error) {
	if s.llm == nil {
		return nil, errors.New("no LLM client configured")
	}

	info := dnaTypeCatalog[profile.PrimaryType]
	prompt := fmt.Sprintf(
		"The traveler's personality is %q: %s Their defining traits are %s.",
		info.Name, info.Description, strings.Join(info.Keywords, ", "),
	)
	if location != "" {
		prompt += fmt.Sprintf(" They are currently in %s.", location)
	}
	prompt += fmt.Sprintf(
		" Suggest up to %d travel recommendations as a JSON array of objects"+
			` with the fields "name", "category", "reason" and "score" (0-1).`+
			" Reply with the JSON array only.", maxRecommendationItems,
	)

	reply, err := s.llm.Complete(ctx, []models.ChatMessage{
		{Role: llm.RoleSystem, Content: "You are a travel recommendation engine. You output strict JSON."},
		{Role: llm.RoleUser, Content: prompt},
	})
	if err != nil {
		return nil, err
	}

	var items []models.RecommendationItem
	if err := json.Unmarshal([]byte(extractJSONArray(reply)), &items); err != nil {
		return nil, fmt.Errorf("unparseable LLM reply: %w", err)
	}
	if len(items) == 0 {
		return nil, errors.New("LLM returned an empty recommendation list")
	}
	return items, nil
}

// extractJSONArray strips markdown fences and surrounding prose that chat
// models like to wrap JSON in.
func extractJSONArray(reply string) string {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end <= start {
		return reply
	}
	return reply[start : end+1]
}

// fallbackItems derives a static recommendation list from the profile alone.
func fallbackItems(profile *models.TravelDNAProfile) []models.RecommendationItem {
	info := dnaTypeCatalog[profile.PrimaryType]
	texts := []string{
		fmt.Sprintf("Explore destinations that match your %s personality", info.Name),
		fmt.Sprintf("Focus on %s experiences", strings.Join(info.Keywords, ", ")),
		"Join travel communities with similar interests",
		"Plan trips that align with your natural preferences",
		"Document your travels to track personal growth",
	}

	items := make([]models.RecommendationItem, 0, len(texts))
	for _, text := range texts {
		items = append(items, models.RecommendationItem{
			Name:     text,
			Category: "general",
			Score:    profile.Confidence,
		})
	}
	return items
}

// --- Training jobs ---

// SubmitJob creates a new training job, stores it, and dispatches it to
// Kafka for a worker to pick up.
func (s *Service) SubmitJob(ctx context.Context, userID, kind string) (*models.TrainingJob, error) {
	if kind != JobKindDNARefresh && kind != JobKindReranker {
		return nil, fmt.Errorf("unknown job kind: %s", kind)
	}

	job := &models.TrainingJob{
		ID:          uuid.New().String(),
		UserID:      userID,
		Kind:        kind,
		Status:      models.JobStatusPending,
		SubmittedAt: time.Now(),
	}

	if err := s.store.CreateJob(ctx, job); err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to create training job in store")
		return nil, err
	}

	if err := s.publisher.Publish(ctx, job.ID, job); err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to publish training job to Kafka")
		job.Status = models.JobStatusFailed
		job.Error = "Failed to publish to Kafka"
		job.CompletedAt = time.Now()
		_ = s.store.UpdateJob(ctx, job)
		return nil, err
	}

	return job, nil
}

// HandleJobUpdate processes a job status update received from the result
// topic: it persists the new state and forwards it to the submitter over
// WebSocket.
func (s *Service) HandleJobUpdate(msg kafka.Message) error {
	var update models.TrainingJob
	if err := json.Unmarshal(msg.Value, &update); err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to unmarshal job update from Kafka")
		return err
	}

	job, err := s.store.GetJobByID(context.Background(), update.ID)
	if err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{"jobID": update.ID}).Error("Error getting job by ID")
		return err
	}
	if job == nil {
		s.logger.WithPayload(map[string]interface{}{"jobID": update.ID}).Warn("Received update for unknown job ID")
		return nil
	}

	job.Status = update.Status
	job.Stage = update.Stage
	job.Progress = update.Progress
	job.Error = update.Error
	job.CompletedAt = update.CompletedAt

	if err := s.store.UpdateJob(context.Background(), job); err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{"jobID": job.ID}).Error("Failed to update job in store")
		return err
	}

	s.connManager.SendMessage(job.UserID, msg.Value)
	return nil
}

// GetJobByID retrieves a single job by its ID for a specific user. Jobs
// belonging to other users are reported as not found.
func (s *Service) GetJobByID(ctx context.Context, jobID, userID string) (*models.TrainingJob, error) {
	job, err := s.store.GetJobByID(ctx, jobID)
	if err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{"jobID": jobID}).Error("Failed to get job by ID from store")
		return nil, err
	}
	if job != nil && job.UserID != userID {
		s.logger.WithPayload(map[string]interface{}{"jobID": jobID, "requestingUserID": userID}).Warn("User attempted to access unauthorized job")
		return nil, nil
	}
	return job, nil
}

// GetUserJobs retrieves the jobs of a specific user with pagination.
func (s *Service) GetUserJobs(ctx context.Context, userID string, page, limit int) ([]*models.TrainingJob, error) {
	jobs, err := s.store.GetJobsByUserID(ctx, userID, page, limit)
	if err != nil {
		s.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{"userID": userID}).Error("Failed to get user jobs from store")
		return nil, err
	}
	return jobs, nil
}
