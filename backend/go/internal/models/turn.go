package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// SpeakerRole 标识一条对话记录的发言方。
type SpeakerRole string

const (
	SpeakerUser      SpeakerRole = "user"      // 旅行者本人
	SpeakerAssistant SpeakerRole = "assistant" // AI 旅行伴侣
)

// 对话记录的默认参数。重要性分数按发言方区分：
// 用户消息通常携带更多可供回忆的个人信息，因此基础分更高。
const (
	DefaultUserImportance      = 0.6
	DefaultAssistantImportance = 0.5
	DefaultTurnTTLHours        = 168 // 七天
)

// DefaultImportance 返回指定发言方的默认重要性分数。
func DefaultImportance(role SpeakerRole) float64 {
	if role == SpeakerUser {
		return DefaultUserImportance
	}
	return DefaultAssistantImportance
}

// ConversationTurn 是记忆子系统的核心记录：一条不可变的对话发言。
// Embedding 为 JSON 编码的 float32 向量；嵌入服务失败时该列为 NULL，
// 此时记录仍参与时间序回放，只是无法被语义检索命中。
type ConversationTurn struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	UserID          string         `gorm:"size:64;not null;index:idx_turn_user_time,priority:1" json:"user_id"`
	SessionID       string         `gorm:"size:64;not null;index" json:"session_id"`
	Role            SpeakerRole    `gorm:"type:varchar(16);not null" json:"role"`
	Content         string         `gorm:"type:text;not null" json:"content"`
	Embedding       datatypes.JSON `gorm:"type:json" json:"-"`
	ImportanceScore float64        `gorm:"not null" json:"importance_score"`
	TTLHours        int            `gorm:"not null;default:168" json:"ttl_hours"`
	// ExpiresAt 在写入时由 CreatedAt + TTLHours 计算，过期清扫只比较
	// 这一列，避免在 SQL 里做逐行的时间运算。
	ExpiresAt time.Time `gorm:"index" json:"-"`
	CreatedAt time.Time `gorm:"index:idx_turn_user_time,priority:2" json:"created_at"`
}

func (ConversationTurn) TableName() string {
	return "conversation_turns"
}

// HasEmbedding 报告该记录是否携带嵌入向量。
func (t *ConversationTurn) HasEmbedding() bool {
	return len(t.Embedding) > 0
}

// EmbeddingVector 解码存储的嵌入向量。列为 NULL 时返回 (nil, nil)；
// 内容损坏时返回错误，调用方应跳过该行而不是中断整批计算。
func (t *ConversationTurn) EmbeddingVector() ([]float32, error) {
	if !t.HasEmbedding() {
		return nil, nil
	}
	var vec []float32
	if err := json.Unmarshal(t.Embedding, &vec); err != nil {
		return nil, fmt.Errorf("corrupt embedding on turn %d: %w", t.ID, err)
	}
	return vec, nil
}

// SetEmbeddingVector 编码并写入嵌入向量。传入 nil 时清空该列。
func (t *ConversationTurn) SetEmbeddingVector(vec []float32) error {
	if vec == nil {
		t.Embedding = nil
		return nil
	}
	raw, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}
	t.Embedding = raw
	return nil
}

// ChatMessage 是提交给补全模型的一条对话消息。
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TurnEvent 是写入 Kafka 的对话事件，供事实图谱等下游消费者使用。
type TurnEvent struct {
	TurnID    uint        `json:"turn_id"`
	UserID    string      `json:"user_id"`
	SessionID string      `json:"session_id"`
	Role      SpeakerRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}
