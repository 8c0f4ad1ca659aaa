package consumer

import (
	"context"
	"encoding/json"

	"Travel_Companion/backend/go/internal/database/kafka"
	"Travel_Companion/backend/go/internal/memory/extractor"
	"Travel_Companion/backend/go/internal/memory/store"
	"Travel_Companion/backend/go/internal/models"
	"Travel_Companion/backend/go/pkg/logger"
)

// GraphProjector 消费对话事件并把其中的旅行者事实投影到 Neo4j。
// 投影与对话写入解耦：图谱落后或不可用不影响聊天链路，事件会在
// 消费者恢复后被重放。
type GraphProjector struct {
	client    *kafka.KafkaClient
	graph     *store.GraphStore
	extractor extractor.Extractor
	log       *logger.Logger
}

// NewGraphProjector 创建图谱投影消费者。
func NewGraphProjector(client *kafka.KafkaClient, graph *store.GraphStore) *GraphProjector {
	return &GraphProjector{
		client:    client,
		graph:     graph,
		extractor: extractor.NewPatternExtractor(),
		log:       logger.New("memory_graph_projector", "", ""),
	}
}

// Run 持续消费对话主题直到 ctx 结束。消息处理失败只记日志并继续，
// 不中断消费循环。
func (p *GraphProjector) Run(ctx context.Context) {
	p.log.Info("图谱投影消费者已启动")
	for {
		msg, err := p.client.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.log.Info("图谱投影消费者已停止")
				return
			}
			p.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "kafka_error"}).
				Error("读取对话事件失败")
			continue
		}

		var event models.TurnEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			p.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "decode_error"}).
				Warn("跳过无法解析的对话事件")
			continue
		}

		p.project(ctx, &event)
	}
}

// project 对用户消息重新跑模式抽取，并把事实逐条写入图谱。
// 抽取是确定性的，和写入链路得到的事实一致。
func (p *GraphProjector) project(ctx context.Context, event *models.TurnEvent) {
	if event.Role != models.SpeakerUser {
		return
	}

	for _, fact := range p.extractor.Extract(event.UserID, event.Content) {
		if err := p.graph.RecordFact(ctx, event.UserID, fact); err != nil {
			p.log.WithSession(event.SessionID).
				WithError(models.ErrorInfo{Message: err.Error(), Type: "graph_error"}).
				Error("投影事实到图谱失败")
		}
	}
}
