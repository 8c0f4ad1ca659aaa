package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"Travel_Companion/backend/go/internal/models"
)

// InsightStore defines the persistence interface for DNA profiles,
// recommendation records and training jobs.
type InsightStore interface {
	SaveProfile(ctx context.Context, profile *models.TravelDNAProfile) error
	GetProfile(ctx context.Context, userID string) (*models.TravelDNAProfile, error)

	SaveRecommendation(ctx context.Context, rec *models.Recommendation) error
	GetRecommendations(ctx context.Context, userID string, page, limit int) ([]*models.Recommendation, error)

	CreateJob(ctx context.Context, job *models.TrainingJob) error
	GetJobByID(ctx context.Context, id string) (*models.TrainingJob, error)
	GetJobsByUserID(ctx context.Context, userID string, page, limit int) ([]*models.TrainingJob, error)
	UpdateJob(ctx context.Context, job *models.TrainingJob) error
}

// MongoInsightStore is an implementation of InsightStore using MongoDB.
type MongoInsightStore struct {
	profiles        *mongo.Collection
	recommendations *mongo.Collection
	jobs            *mongo.Collection
}

// NewMongoInsightStore creates a new MongoInsightStore over the given database.
func NewMongoInsightStore(db *mongo.Database) *MongoInsightStore {
	return &MongoInsightStore{
		profiles:        db.Collection("dna_profiles"),
		recommendations: db.Collection("recommendations"),
		jobs:            db.Collection("training_jobs"),
	}
}

// SaveProfile upserts a user's DNA profile. Re-running the quiz replaces the
// previous analysis.
func (s *MongoInsightStore) SaveProfile(ctx context.Context, profile *models.TravelDNAProfile) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.profiles.ReplaceOne(ctx, bson.M{"_id": profile.UserID}, profile, opts)
	return err
}

// GetProfile retrieves a user's DNA profile, or nil if none was analyzed yet.
func (s *MongoInsightStore) GetProfile(ctx context.Context, userID string) (*models.TravelDNAProfile, error) {
	var profile models.TravelDNAProfile
	err := s.profiles.FindOne(ctx, bson.M{"_id": userID}).Decode(&profile)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// SaveRecommendation appends a generated recommendation record.
func (s *MongoInsightStore) SaveRecommendation(ctx context.Context, rec *models.Recommendation) error {
	_, err := s.recommendations.InsertOne(ctx, rec)
	return err
}

// GetRecommendations retrieves a paginated history of a user's recommendations,
// newest first.
func (s *MongoInsightStore) GetRecommendations(ctx context.Context, userID string, page, limit int) ([]*models.Recommendation, error) {
	var recs []*models.Recommendation
	opts := options.Find()
	opts.SetSort(bson.D{{Key: "generated_at", Value: -1}})
	opts.SetSkip(int64((page - 1) * limit))
	opts.SetLimit(int64(limit))

	cursor, err := s.recommendations.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// CreateJob inserts a new training job record.
func (s *MongoInsightStore) CreateJob(ctx context.Context, job *models.TrainingJob) error {
	_, err := s.jobs.InsertOne(ctx, job)
	return err
}

// GetJobByID retrieves a training job by its ID, or nil if unknown.
func (s *MongoInsightStore) GetJobByID(ctx context.Context, id string) (*models.TrainingJob, error) {
	var job models.TrainingJob
	err := s.jobs.FindOne(ctx, bson.M{"_id": id}).Decode(&job)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// GetJobsByUserID retrieves a paginated list of a user's training jobs,
// most recently submitted first.
func (s *MongoInsightStore) GetJobsByUserID(ctx context.Context, userID string, page, limit int) ([]*models.TrainingJob, error) {
	var jobs []*models.TrainingJob
	opts := options.Find()
	opts.SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	opts.SetSkip(int64((page - 1) * limit))
	opts.SetLimit(int64(limit))

	cursor, err := s.jobs.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// UpdateJob updates the mutable fields of an existing training job.
func (s *MongoInsightStore) UpdateJob(ctx context.Context, job *models.TrainingJob) error {
	filter := bson.M{"_id": job.ID}
	update := bson.M{
		"$set": bson.M{
			"status":       job.Status,
			"stage":        job.Stage,
			"progress":     job.Progress,
			"error":        job.Error,
			"completed_at": job.CompletedAt,
		},
	}
	_, err := s.jobs.UpdateOne(ctx, filter, update)
	return err
}
