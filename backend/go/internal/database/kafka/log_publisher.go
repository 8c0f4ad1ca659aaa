package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"Travel_Companion/backend/go/internal/models"
)

// LogPublisher 封装了向 Kafka 外送结构化日志的逻辑。
// 它同时实现 io.Writer，可直接挂到 logger.EnableKafkaExport 上，
// 让各服务的 JSON 日志行异步进入日志主题。
type LogPublisher struct {
	writer *kafka.Writer
}

// NewLogPublisher 创建一个新的 LogPublisher 实例，写入配置的日志主题。
func NewLogPublisher(client *KafkaClient) *LogPublisher {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      client.Config.Brokers,
		Topic:        client.Config.Topics.Logs,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
		Async:        true, // 日志外送不能拖慢业务链路
	})
	return &LogPublisher{writer: writer}
}

// Publish 将一条结构化日志序列化为 JSON 并发送到 Kafka。
// 以服务名为 key，同一服务的日志落在同一分区以保持顺序。
func (p *LogPublisher) Publish(ctx context.Context, entry *models.LogEntry) error {
	jsonData, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(entry.ServiceName),
		Value: jsonData,
	})
	if err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

// Write 实现 io.Writer：每次写入作为一条完整的日志消息发出。
func (p *LogPublisher) Write(line []byte) (int, error) {
	// logrus 复用内部缓冲区，必须拷贝后再异步发送。
	msg := make([]byte, len(line))
	copy(msg, line)
	if err := p.writer.WriteMessages(context.Background(), kafka.Message{Value: msg}); err != nil {
		return 0, err
	}
	return len(line), nil
}

// Close 关闭底层的 writer 连接。
func (p *LogPublisher) Close() error {
	return p.writer.Close()
}
