package store

import (
	"context"
	"time"

	"Travel_Companion/backend/go/internal/models"
)

// TurnStats 汇总一个用户的记忆存量，供运维端点展示。
type TurnStats struct {
	TotalTurns    int64      `json:"total_turns"`
	EmbeddedTurns int64      `json:"embedded_turns"`
	FactCount     int64      `json:"fact_count"`
	OldestTurn    *time.Time `json:"oldest_turn,omitempty"`
	NewestTurn    *time.Time `json:"newest_turn,omitempty"`
}

// TurnStore 是对话记录的持久化接口。记录一经写入不可修改，
// 只会被过期清扫或会话清除删除。
type TurnStore interface {
	// Append 持久化一条新的对话记录。
	Append(ctx context.Context, turn *models.ConversationTurn) error

	// RecentHistory 返回按时间正序排列的最近对话。sessionID 为空时
	// 跨会话取数。内部会多取一倍再截断，以容纳 user/assistant 成对
	// 出现的记录。
	RecentHistory(ctx context.Context, userID, sessionID string, limit int) ([]models.ConversationTurn, error)

	// RecentEmbedded 返回该用户最近 window 条携带嵌入向量的记录，
	// 新的在前。这是相关性检索的扫描窗口。
	RecentEmbedded(ctx context.Context, userID string, window int) ([]models.ConversationTurn, error)

	// ClearSession 删除一个会话的全部记录，返回删除条数。
	ClearSession(ctx context.Context, userID, sessionID string) (int64, error)

	// Expire 删除早于 now - maxAgeHours 的全部记录并返回删除条数。
	// maxAgeHours 为 0 时截止点就是 now，即清空所有记录。
	// 时间基准在进入时捕获一次，清扫开始后写入的记录不受影响。
	Expire(ctx context.Context, maxAgeHours int) (int64, error)

	// Sweep 按每条记录自身的 TTL 删除已过期的记录，供后台清扫
	// 周期调用。时间基准同样只捕获一次。
	Sweep(ctx context.Context) (int64, error)

	// Stats 返回该用户的记忆存量统计。
	Stats(ctx context.Context, userID string) (*TurnStats, error)
}

// FactStore 是旅行者事实的持久化接口。(user_id, kind) 唯一，
// 同类新事实覆盖旧事实。
type FactStore interface {
	// Upsert 写入或覆盖一条事实。
	Upsert(ctx context.Context, fact *models.UserFact) error

	// ListByUser 返回该用户的全部事实。
	ListByUser(ctx context.Context, userID string) ([]models.UserFact, error)
}
