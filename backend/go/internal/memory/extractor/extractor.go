package extractor

import (
	"Travel_Companion/backend/go/internal/models"
)

// Extractor 从一条用户消息中抽取类型化的旅行者事实。
type Extractor interface {
	// Extract 返回消息中发现的事实，可能为空。
	Extract(userID, message string) []models.UserFact
}
