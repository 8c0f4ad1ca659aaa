package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Travel_Companion/backend/go/internal/models"
)

// GormStore 用一个关系库同时实现 TurnStore 和 FactStore。
type GormStore struct {
	db *gorm.DB
}

var (
	_ TurnStore = (*GormStore)(nil)
	_ FactStore = (*GormStore)(nil)
)

// NewGormStore 创建存储实例并迁移相关表结构。
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&models.ConversationTurn{}, &models.UserFact{}); err != nil {
		return nil, fmt.Errorf("迁移记忆表结构失败: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Append 持久化一条新的对话记录，并补齐时间与过期时间。
func (s *GormStore) Append(ctx context.Context, turn *models.ConversationTurn) error {
	if turn.UserID == "" {
		return fmt.Errorf("turn 缺少 user_id")
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	if turn.TTLHours <= 0 {
		turn.TTLHours = models.DefaultTurnTTLHours
	}
	turn.ExpiresAt = turn.CreatedAt.Add(time.Duration(turn.TTLHours) * time.Hour)

	if err := s.db.WithContext(ctx).Create(turn).Error; err != nil {
		return fmt.Errorf("写入对话记录失败: %w", err)
	}
	return nil
}

// RecentHistory 取最近 limit*2 条记录，裁剪到 limit 条后反转为
// 时间正序。多取一倍是为了 user/assistant 成对的场景，返回量以
// limit 为准。
func (s *GormStore) RecentHistory(ctx context.Context, userID, sessionID string, limit int) ([]models.ConversationTurn, error) {
	if limit <= 0 {
		limit = 10
	}

	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if sessionID != "" {
		query = query.Where("session_id = ?", sessionID)
	}

	var turns []models.ConversationTurn
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit * 2). // user/assistant 成对出现，多取一倍
		Find(&turns).Error
	if err != nil {
		return nil, fmt.Errorf("读取对话历史失败: %w", err)
	}

	// 只保留最新的 limit 条，再反转为时间正序。
	if len(turns) > limit {
		turns = turns[:limit]
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// RecentEmbedded 返回扫描窗口内带向量的记录，新的在前。
func (s *GormStore) RecentEmbedded(ctx context.Context, userID string, window int) ([]models.ConversationTurn, error) {
	if window <= 0 {
		window = 50
	}

	var turns []models.ConversationTurn
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("embedding IS NOT NULL").
		Order("created_at DESC").
		Order("id DESC").
		Limit(window).
		Find(&turns).Error
	if err != nil {
		return nil, fmt.Errorf("读取嵌入记录失败: %w", err)
	}
	return turns, nil
}

// ClearSession 删除一个会话的全部记录。
func (s *GormStore) ClearSession(ctx context.Context, userID, sessionID string) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Delete(&models.ConversationTurn{})
	if result.Error != nil {
		return 0, fmt.Errorf("清除会话失败: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Expire 删除早于统一年龄上限的记录。时间基准只捕获一次，
// 清扫开始后写入的记录不会被同一次清扫删除。
func (s *GormStore) Expire(ctx context.Context, maxAgeHours int) (int64, error) {
	cutoff := time.Now().Add(-time.Duration(maxAgeHours) * time.Hour)

	result := s.db.WithContext(ctx).
		Where("created_at <= ?", cutoff).
		Delete(&models.ConversationTurn{})
	if result.Error != nil {
		return 0, fmt.Errorf("过期清扫失败: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Sweep 按行级 TTL 删除已过期的记录。
func (s *GormStore) Sweep(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now()).
		Delete(&models.ConversationTurn{})
	if result.Error != nil {
		return 0, fmt.Errorf("TTL 清扫失败: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Stats 返回该用户的记忆存量统计。
func (s *GormStore) Stats(ctx context.Context, userID string) (*TurnStats, error) {
	stats := &TurnStats{}
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.ConversationTurn{}).
		Where("user_id = ?", userID).
		Count(&stats.TotalTurns).Error; err != nil {
		return nil, fmt.Errorf("统计对话记录失败: %w", err)
	}
	if err := db.Model(&models.ConversationTurn{}).
		Where("user_id = ? AND embedding IS NOT NULL", userID).
		Count(&stats.EmbeddedTurns).Error; err != nil {
		return nil, fmt.Errorf("统计嵌入记录失败: %w", err)
	}
	if err := db.Model(&models.UserFact{}).
		Where("user_id = ?", userID).
		Count(&stats.FactCount).Error; err != nil {
		return nil, fmt.Errorf("统计事实失败: %w", err)
	}

	if stats.TotalTurns > 0 {
		var bounds struct {
			Oldest time.Time
			Newest time.Time
		}
		err := db.Model(&models.ConversationTurn{}).
			Select("MIN(created_at) AS oldest, MAX(created_at) AS newest").
			Where("user_id = ?", userID).
			Scan(&bounds).Error
		if err != nil {
			return nil, fmt.Errorf("统计时间范围失败: %w", err)
		}
		stats.OldestTurn = &bounds.Oldest
		stats.NewestTurn = &bounds.Newest
	}
	return stats, nil
}

// Upsert 写入或覆盖一条事实。唯一索引 (user_id, kind) 保证同类
// 事实 last-write-wins 的原子性。
func (s *GormStore) Upsert(ctx context.Context, fact *models.UserFact) error {
	if fact.Source == "" {
		fact.Source = models.FactSourceConversation
	}
	fact.UpdatedAt = time.Now()

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "confidence", "source", "updated_at"}),
		}).
		Create(fact).Error
	if err != nil {
		return fmt.Errorf("写入事实失败: %w", err)
	}
	return nil
}

// ListByUser 返回该用户的全部事实，按类别排序保证输出稳定。
func (s *GormStore) ListByUser(ctx context.Context, userID string) ([]models.UserFact, error) {
	var facts []models.UserFact
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("kind").
		Find(&facts).Error
	if err != nil {
		return nil, fmt.Errorf("读取事实失败: %w", err)
	}
	return facts, nil
}
