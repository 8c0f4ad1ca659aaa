package consumer

import (
	"context"

	"github.com/segmentio/kafka-go"

	"Travel_Companion/backend/go/internal/models"
	"Travel_Companion/backend/go/pkg/logger"
)

// EventConsumer 消费其他服务发布到通知主题的异步推送请求。
type EventConsumer struct {
	reader *kafka.Reader
	logger *logger.Logger
}

// NewEventConsumer 创建一个新的 EventConsumer。
func NewEventConsumer(brokers []string, topic, groupID string, logger *logger.Logger) *EventConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &EventConsumer{
		reader: reader,
		logger: logger,
	}
}

// Start 在后台协程中持续消费消息，直到 context 被取消。
func (c *EventConsumer) Start(ctx context.Context, handler func(kafka.Message) error) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("停止通知事件消费者...")
				return
			default:
				msg, err := c.reader.FetchMessage(ctx)
				if err != nil {
					if ctx.Err() == nil {
						c.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("从 Kafka 拉取消息失败")
					}
					continue
				}

				if err := handler(msg); err != nil {
					c.logger.WithError(models.ErrorInfo{Message: err.Error()}).WithPayload(map[string]interface{}{
						"topic":     msg.Topic,
						"partition": msg.Partition,
						"offset":    msg.Offset,
					}).Error("处理通知事件失败")
				}

				if err := c.reader.CommitMessages(ctx, msg); err != nil {
					c.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("提交 Kafka 消息位点失败")
				}
			}
		}
	}()
}

// Close 关闭底层的 Kafka reader。
func (c *EventConsumer) Close() error {
	return c.reader.Close()
}
