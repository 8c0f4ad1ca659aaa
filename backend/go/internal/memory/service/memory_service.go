package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"Travel_Companion/backend/go/internal/config"
	"Travel_Companion/backend/go/internal/database/kafka"
	"Travel_Companion/backend/go/internal/embedding"
	"Travel_Companion/backend/go/internal/memory/extractor"
	"Travel_Companion/backend/go/internal/memory/ranker"
	"Travel_Companion/backend/go/internal/memory/store"
	"Travel_Companion/backend/go/internal/models"
	"Travel_Companion/backend/go/pkg/logger"
)

// Service 是记忆子系统的门面：写入对话、回放历史、相关性检索、
// 事实抽取和过期清扫都从这里走。
type Service struct {
	turns     store.TurnStore
	facts     store.FactStore
	ranker    *ranker.Ranker
	extractor extractor.Extractor
	embedder  embedding.Embedding
	publisher *TurnPublisher // 可为 nil，此时不发对话事件
	cfg       config.MemoryConfig
	log       *logger.Logger

	sweepCancel context.CancelFunc
}

// TurnPublisher 把写入成功的对话记录作为事件发到 Kafka，
// 供图谱投影等下游消费者使用。
type TurnPublisher struct {
	writer *kafkago.Writer
}

// NewTurnPublisher 创建对话事件发布器，写入配置的对话主题。
func NewTurnPublisher(client *kafka.KafkaClient) *TurnPublisher {
	writer := kafkago.NewWriter(kafkago.WriterConfig{
		Brokers:      client.Config.Brokers,
		Topic:        client.Config.Topics.Turns,
		Balancer:     &kafkago.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	})
	return &TurnPublisher{writer: writer}
}

// Publish 发布一条对话事件，以 user_id 为 key 保证同一用户的
// 事件顺序。
func (p *TurnPublisher) Publish(ctx context.Context, event *models.TurnEvent) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal turn event: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.UserID),
		Value: jsonData,
	})
}

// Close 关闭底层的 writer。
func (p *TurnPublisher) Close() error {
	return p.writer.Close()
}

// New 组装记忆服务。publisher 传 nil 时跳过事件发布（测试场景）。
func New(turns store.TurnStore, facts store.FactStore, embedder embedding.Embedding, publisher *TurnPublisher, cfg config.MemoryConfig) *Service {
	return &Service{
		turns:     turns,
		facts:     facts,
		ranker:    ranker.New(embedder, cfg),
		extractor: extractor.NewPatternExtractor(),
		embedder:  embedder,
		publisher: publisher,
		cfg:       cfg,
		log:       logger.New("memory_service", "", ""),
	}
}

// AddTurn 写入一条对话记录。嵌入向量尽力而为：嵌入服务失败时
// 记录仍然落库（只是不参与语义检索），这是刻意的降级行为。
// 用户消息同时走事实抽取；写入成功后异步发布对话事件。
func (s *Service) AddTurn(ctx context.Context, userID, sessionID string, role models.SpeakerRole, content string) (*models.ConversationTurn, error) {
	turn := &models.ConversationTurn{
		UserID:          userID,
		SessionID:       sessionID,
		Role:            role,
		Content:         content,
		ImportanceScore: models.DefaultImportance(role),
		TTLHours:        s.cfg.TTLHours,
	}

	vec, err := s.embedder.Embed(ctx, content)
	if err != nil {
		s.log.WithSession(sessionID).
			WithError(models.ErrorInfo{Message: err.Error(), Type: "embedding_error"}).
			Warn("嵌入失败，记录将不携带向量落库")
	} else if err := turn.SetEmbeddingVector(vec); err != nil {
		return nil, err
	}

	if err := s.turns.Append(ctx, turn); err != nil {
		return nil, err
	}

	if role == models.SpeakerUser {
		s.extractFacts(ctx, userID, content)
	}

	s.publishTurn(turn)
	return turn, nil
}

// extractFacts 对用户消息跑模式抽取并逐条 upsert。
// 单条失败只记日志，不影响对话链路。
func (s *Service) extractFacts(ctx context.Context, userID, content string) {
	for _, fact := range s.extractor.Extract(userID, content) {
		f := fact
		if err := s.facts.Upsert(ctx, &f); err != nil {
			s.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "database_error"}).
				Error("写入事实失败")
		}
	}
}

// publishTurn 异步发布对话事件，失败只记日志。
func (s *Service) publishTurn(turn *models.ConversationTurn) {
	if s.publisher == nil {
		return
	}
	event := &models.TurnEvent{
		TurnID:    turn.ID,
		UserID:    turn.UserID,
		SessionID: turn.SessionID,
		Role:      turn.Role,
		Content:   turn.Content,
		CreatedAt: turn.CreatedAt,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "kafka_error"}).
				Warn("发布对话事件失败")
		}
	}()
}

// RelevantMemories 返回与查询最相关的记忆。只扫描最近
// ScanWindow 条带向量的记录，这是有意的召回上限。
func (s *Service) RelevantMemories(ctx context.Context, userID, query string, topK int) ([]models.MemoryHit, error) {
	turns, err := s.turns.RecentEmbedded(ctx, userID, s.cfg.ScanWindow)
	if err != nil {
		return nil, err
	}
	return s.ranker.Rank(ctx, query, turns, topK), nil
}

// History 返回时间正序的最近对话。
func (s *Service) History(ctx context.Context, userID, sessionID string, limit int) ([]models.ConversationTurn, error) {
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}
	return s.turns.RecentHistory(ctx, userID, sessionID, limit)
}

// Facts 返回该用户的全部事实。
func (s *Service) Facts(ctx context.Context, userID string) ([]models.UserFact, error) {
	return s.facts.ListByUser(ctx, userID)
}

// ClearSession 删除一个会话的全部记录。
func (s *Service) ClearSession(ctx context.Context, userID, sessionID string) (int64, error) {
	return s.turns.ClearSession(ctx, userID, sessionID)
}

// Expire 立即删除早于 now - maxAgeHours 的记录。maxAgeHours 为 0
// 时清空全部记录。
func (s *Service) Expire(ctx context.Context, maxAgeHours int) (int64, error) {
	return s.turns.Expire(ctx, maxAgeHours)
}

// Stats 返回该用户的记忆存量统计。
func (s *Service) Stats(ctx context.Context, userID string) (*store.TurnStats, error) {
	return s.turns.Stats(ctx, userID)
}

// StartSweeper 启动后台过期清扫协程，周期来自配置。
func (s *Service) StartSweeper() {
	if s.sweepCancel != nil {
		return
	}
	interval, err := time.ParseDuration(s.cfg.SweepInterval)
	if err != nil || interval <= 0 {
		interval = time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.sweepCancel = cancel

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		s.log.WithPayload(map[string]interface{}{"interval": interval.String()}).
			Info("记忆过期清扫已启动")

		for {
			select {
			case <-ctx.Done():
				s.log.Info("记忆过期清扫已停止")
				return
			case <-ticker.C:
				sweepCtx, sweepCancel := context.WithTimeout(context.Background(), time.Minute)
				removed, err := s.turns.Sweep(sweepCtx)
				sweepCancel()
				if err != nil {
					s.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "database_error"}).
						Error("过期清扫失败")
					continue
				}
				if removed > 0 {
					s.log.WithPayload(map[string]interface{}{"removed": removed}).
						Info("过期记忆已清除")
				}
			}
		}
	}()
}

// StopSweeper 停止后台过期清扫。
func (s *Service) StopSweeper() {
	if s.sweepCancel != nil {
		s.sweepCancel()
		s.sweepCancel = nil
	}
}
