package consumer

import (
	"context"

	"github.com/segmentio/kafka-go"

	"Travel_Companion/backend/go/internal/models"
	"Travel_Companion/backend/go/pkg/logger"
)

// JobConsumer consumes training job messages from a Kafka topic. The same
// type serves both sides of the pipeline: the worker reads the dispatch
// topic, the API service reads the result topic.
type JobConsumer struct {
	reader *kafka.Reader
	logger *logger.Logger
}

// NewJobConsumer creates a new JobConsumer.
func NewJobConsumer(brokers []string, topic, groupID string, logger *logger.Logger) *JobConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &JobConsumer{
		reader: reader,
		logger: logger,
	}
}

// Start begins consuming messages from the Kafka topic in a background
// goroutine until the context is canceled.
func (c *JobConsumer) Start(ctx context.Context, handler func(kafka.Message) error) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Stopping insight job consumer...")
				return
			default:
				msg, err := c.reader.FetchMessage(ctx)
				if err != nil {
					if ctx.Err() == nil {
						c.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Error fetching message from Kafka")
					}
					continue
				}

				if err := handler(msg); err != nil {
					c.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{
						"topic":     msg.Topic,
						"partition": msg.Partition,
						"offset":    msg.Offset,
					}).Error("Error handling Kafka message")
				}

				if err := c.reader.CommitMessages(ctx, msg); err != nil {
					c.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to commit Kafka message")
				}
			}
		}
	}()
}

// Close closes the underlying Kafka reader.
func (c *JobConsumer) Close() error {
	return c.reader.Close()
}
