package service

import (
	"context"
	"strconv"
	"time"

	"Travel_Companion/backend/go/internal/config"
	"Travel_Companion/backend/go/internal/llm"
	"Travel_Companion/backend/go/internal/memory/store"
	"Travel_Companion/backend/go/internal/models"
	"Travel_Companion/backend/go/internal/persona"
	"Travel_Companion/backend/go/pkg/logger"
)

// MemoryAPI 是聊天编排对记忆子系统的依赖面。用接口而不是具体
// 类型，测试时可以注入假实现。
type MemoryAPI interface {
	AddTurn(ctx context.Context, userID, sessionID string, role models.SpeakerRole, content string) (*models.ConversationTurn, error)
	RelevantMemories(ctx context.Context, userID, query string, topK int) ([]models.MemoryHit, error)
	History(ctx context.Context, userID, sessionID string, limit int) ([]models.ConversationTurn, error)
	Facts(ctx context.Context, userID string) ([]models.UserFact, error)
	ClearSession(ctx context.Context, userID, sessionID string) (int64, error)
	Expire(ctx context.Context, maxAgeHours int) (int64, error)
	Stats(ctx context.Context, userID string) (*store.TurnStats, error)
}

// ProfileAPI 是聊天编排对人格画像的依赖面。
type ProfileAPI interface {
	GetProfile(ctx context.Context, userID uint) (*models.PersonaProfile, error)
}

// ChatRequest 是一次聊天回合的输入。
type ChatRequest struct {
	UserID    uint
	SessionID string
	Message   string
	Context   *models.AmbientContext
}

// ChatResponse 是一次聊天回合的输出。Degraded 为 true 表示补全
// 服务不可用，Response 来自离线应答表。
type ChatResponse struct {
	Response       string    `json:"response"`
	SessionID      string    `json:"session_id"`
	PersonaApplied bool      `json:"persona_applied"`
	MemoriesUsed   int       `json:"memories_used"`
	Suggestions    []string  `json:"suggestions"`
	Degraded       bool      `json:"degraded"`
	Timestamp      time.Time `json:"timestamp"`
}

// Service 编排一次完整的聊天回合：读画像和记忆、构造提示词、
// 调用补全模型、落库对话记录。
type Service struct {
	memory   MemoryAPI
	profiles ProfileAPI
	llm      llm.LLM
	weather  *WeatherClient // 可为 nil，此时不补查天气
	cfg      config.MemoryConfig
	log      *logger.Logger
}

// New 组装聊天服务。
func New(memory MemoryAPI, profiles ProfileAPI, model llm.LLM, weather *WeatherClient, cfg config.MemoryConfig) *Service {
	return &Service{
		memory:   memory,
		profiles: profiles,
		llm:      model,
		weather:  weather,
		cfg:      cfg,
		log:      logger.New("chat_service", "", ""),
	}
}

// Chat 处理一次聊天回合。任何内部失败都降级而不是上抛：画像缺失
// 走无画像提示词，记忆层不可用按空记忆处理，补全失败换离线应答。
// 调用方总能拿到一条响应文本。
//
// 写入顺序是固定的：先落用户发言，再调补全，成功后才落助手发言。
// 补全超时不会丢掉已写入的用户消息。
func (s *Service) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	memoryUserID := strconv.FormatUint(uint64(req.UserID), 10)
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = "session_" + time.Now().Format("20060102_150405")
	}
	log := s.log.WithSession(sessionID)

	profile, err := s.profiles.GetProfile(ctx, req.UserID)
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error(), Type: "database_error"}).
			Warn("读取人格画像失败，本回合走无画像提示词")
		profile = nil
	}

	memories, err := s.memory.RelevantMemories(ctx, memoryUserID, req.Message, s.cfg.TopK)
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error(), Type: "database_error"}).
			Warn("相关性检索失败，本回合不携带记忆")
		memories = nil
	}

	// 历史在写入当前消息之前读取，当前消息单独追加在消息序列末尾。
	history, err := s.memory.History(ctx, memoryUserID, sessionID, s.cfg.HistoryLimit)
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error(), Type: "database_error"}).
			Warn("读取对话历史失败，本回合不携带历史")
		history = nil
	}

	ambient := s.enrichContext(ctx, req.Context)

	// 用户发言先落库。落库失败只降级：用户总要得到回复。
	if _, err := s.memory.AddTurn(ctx, memoryUserID, sessionID, models.SpeakerUser, req.Message); err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error(), Type: "database_error"}).
			Error("写入用户发言失败")
	}

	systemPrompt := persona.BuildPrompt(profile, memories, ambient)
	messages := make([]models.ChatMessage, 0, len(history)+2)
	messages = append(messages, models.ChatMessage{Role: llm.RoleSystem, Content: systemPrompt})
	for _, turn := range history {
		messages = append(messages, models.ChatMessage{Role: string(turn.Role), Content: turn.Content})
	}
	messages = append(messages, models.ChatMessage{Role: llm.RoleUser, Content: req.Message})

	response := &ChatResponse{
		SessionID:      sessionID,
		PersonaApplied: profile != nil,
		MemoriesUsed:   len(memories),
		Suggestions:    Suggestions(req.Message),
		Timestamp:      time.Now(),
	}

	reply, err := s.llm.Complete(ctx, messages)
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error(), Type: "llm_error"}).
			Warn("补全失败，切换离线应答")
		reply = FallbackResponse(req.Message)
		response.Degraded = true
	}
	response.Response = reply

	// 助手发言同样落库，离线应答也算对话的一部分。
	if _, err := s.memory.AddTurn(ctx, memoryUserID, sessionID, models.SpeakerAssistant, reply); err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error(), Type: "database_error"}).
			Error("写入助手发言失败")
	}

	return response, nil
}

// enrichContext 在上下文携带地点但缺少天气时向天气服务补查。
// 补查失败保持原状，天气字段会在提示词中回退为 "Unknown"。
func (s *Service) enrichContext(ctx context.Context, ambient *models.AmbientContext) *models.AmbientContext {
	if ambient == nil || s.weather == nil {
		return ambient
	}
	if ambient.Location == "" || ambient.Weather != "" {
		return ambient
	}

	condition, err := s.weather.CurrentCondition(ctx, ambient.Location)
	if err != nil {
		s.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "weather_error"}).
			Warn("天气补查失败")
		return ambient
	}

	enriched := *ambient
	enriched.Weather = condition
	return &enriched
}

// History 返回时间正序的最近对话。
func (s *Service) History(ctx context.Context, userID uint, sessionID string, limit int) ([]models.ConversationTurn, error) {
	return s.memory.History(ctx, strconv.FormatUint(uint64(userID), 10), sessionID, limit)
}

// Memories 返回与查询最相关的记忆。
func (s *Service) Memories(ctx context.Context, userID uint, query string, topK int) ([]models.MemoryHit, error) {
	if topK <= 0 {
		topK = s.cfg.TopK
	}
	return s.memory.RelevantMemories(ctx, strconv.FormatUint(uint64(userID), 10), query, topK)
}

// Facts 返回该用户的全部事实。
func (s *Service) Facts(ctx context.Context, userID uint) ([]models.UserFact, error) {
	return s.memory.Facts(ctx, strconv.FormatUint(uint64(userID), 10))
}

// ClearSession 删除一个会话的全部记录。
func (s *Service) ClearSession(ctx context.Context, userID uint, sessionID string) (int64, error) {
	return s.memory.ClearSession(ctx, strconv.FormatUint(uint64(userID), 10), sessionID)
}

// Expire 立即执行一次过期清扫。
func (s *Service) Expire(ctx context.Context, maxAgeHours int) (int64, error) {
	return s.memory.Expire(ctx, maxAgeHours)
}

// Stats 返回该用户的记忆存量统计。
func (s *Service) Stats(ctx context.Context, userID uint) (*store.TurnStats, error) {
	return s.memory.Stats(ctx, strconv.FormatUint(uint64(userID), 10))
}
