package models

import "time"

// FactKind 是从对话中抽取出的事实类别。
type FactKind string

const (
	FactPreference FactKind = "preference" // 喜好
	FactDislike    FactKind = "dislike"    // 厌恶
	FactExperience FactKind = "experience" // 已有的旅行经历
	FactPlan       FactKind = "plan"       // 出行计划
)

// FactSourceConversation 是模式抽取产生的事实的默认来源标记。
const FactSourceConversation = "conversation"

// UserFact 是按 (user_id, kind) 去重的旅行者事实。同一类别的新事实
// 覆盖旧事实（last-write-wins），由唯一索引配合 upsert 保证原子性。
type UserFact struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	UserID     string    `gorm:"size:64;not null;uniqueIndex:idx_fact_user_kind,priority:1" json:"user_id"`
	Kind       FactKind  `gorm:"type:varchar(20);not null;uniqueIndex:idx_fact_user_kind,priority:2" json:"kind"`
	Content    string    `gorm:"size:512;not null" json:"content"`
	Confidence float64   `gorm:"not null" json:"confidence"`
	Source     string    `gorm:"size:64;not null;default:'conversation'" json:"source"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (UserFact) TableName() string {
	return "user_facts"
}
