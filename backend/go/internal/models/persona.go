package models

import "time"

// TraitWeight 是人格画像中一个性格标签及其权重。
// 这里刻意用有序切片而不是 map：提示词构造要求字节级确定性，
// 并且并列最大值时取先出现的一项。
type TraitWeight struct {
	Trait  string  `json:"trait"`
	Weight float64 `json:"weight"`
}

// CategoryWeight 是一个兴趣类别及其偏好权重。
type CategoryWeight struct {
	Category string  `json:"category"`
	Weight   float64 `json:"weight"`
}

// PersonaProfile 是旅行者的人格画像文档，由 user_service 维护，
// chat_service 在构造提示词时读取。所有字段都允许缺省。
type PersonaProfile struct {
	Traits              []TraitWeight    `json:"traits,omitempty"`
	BudgetRange         string           `json:"budget_range,omitempty"`
	TravelStyle         string           `json:"travel_style,omitempty"`
	CategoryPreferences []CategoryWeight `json:"category_preferences,omitempty"`
	TransportModes      []string         `json:"transport_modes,omitempty"`
	DietaryRestrictions []string         `json:"dietary_restrictions,omitempty"`
}

// AmbientContext 是随聊天请求到达的环境上下文。字段为空串表示未提供，
// 提示词构造时统一回退为 "Unknown"。
type AmbientContext struct {
	Location  string `json:"location,omitempty"`
	TimeOfDay string `json:"time_of_day,omitempty"`
	Weather   string `json:"weather,omitempty"`
	Mood      string `json:"mood,omitempty"`
}

// MemoryHit 是一次相关性检索返回的记忆条目。只在请求内传递，不落库。
type MemoryHit struct {
	Content   string    `json:"content"`
	Score     float64   `json:"relevance_score"`
	Timestamp time.Time `json:"timestamp"`
}
