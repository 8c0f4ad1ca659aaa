package publisher

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"Travel_Companion/backend/go/internal/models"
	"Travel_Companion/backend/go/pkg/logger"
)

// JobPublisher is responsible for publishing training jobs (and their status
// updates) to Kafka.
type JobPublisher struct {
	writer *kafka.Writer
	logger *logger.Logger
}

// NewJobPublisher creates a new JobPublisher for the given topic.
func NewJobPublisher(brokers []string, topic string, logger *logger.Logger) *JobPublisher {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	})
	return &JobPublisher{
		writer: writer,
		logger: logger,
	}
}

// Publish sends a job message to the Kafka topic, keyed so that updates for
// the same job stay ordered within one partition.
func (p *JobPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	msgBytes, err := json.Marshal(value)
	if err != nil {
		p.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to marshal job for Kafka")
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: msgBytes,
	})
	if err != nil {
		p.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{"topic": p.writer.Topic}).Error("Failed to write message to Kafka")
		return err
	}
	return nil
}

// Close closes the underlying Kafka writer.
func (p *JobPublisher) Close() error {
	return p.writer.Close()
}
