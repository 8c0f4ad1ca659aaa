package extractor

import (
	"strings"

	"Travel_Companion/backend/go/internal/models"
)

// 每个事实类别对应的口语线索。匹配是对小写消息的子串查找，
// 同一类别只取第一个命中的线索。
var factCues = []struct {
	kind models.FactKind
	cues []string
}{
	{models.FactPreference, []string{"i like", "i love", "i prefer", "i enjoy", "favorite"}},
	{models.FactDislike, []string{"i hate", "i dislike", "not a fan", "avoid"}},
	{models.FactExperience, []string{"i went to", "i visited", "i tried", "last time"}},
	{models.FactPlan, []string{"planning to", "want to visit", "thinking about", "hoping to"}},
}

// 从线索位置截取的上下文窗口长度（字符数，按 rune 计）。
const factWindow = 100

// 模式抽取的事实统一使用这个置信度。
const patternConfidence = 0.7

// PatternExtractor 基于固定线索表做事实抽取。没有模型调用，
// 延迟可以忽略，直接跑在写入链路上。
type PatternExtractor struct{}

var _ Extractor = (*PatternExtractor)(nil)

// NewPatternExtractor 创建一个基于模式的事实抽取器。
func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{}
}

// Extract 扫描消息并返回发现的事实。一条消息可以产生多个类别的
// 事实，但每个类别至多一条；内容是从线索位置开始、保留原始大小写
// 的一段上下文。
func (e *PatternExtractor) Extract(userID, message string) []models.UserFact {
	if message == "" {
		return nil
	}
	lower := strings.ToLower(message)

	var facts []models.UserFact
	for _, entry := range factCues {
		for _, cue := range entry.cues {
			idx := strings.Index(lower, cue)
			if idx < 0 {
				continue
			}

			// 窗口按 rune 截取，多字节字符不会被从中间切开。
			window := message[idx:]
			end := len(window)
			runes := 0
			for i := range window {
				if runes == factWindow {
					end = i
					break
				}
				runes++
			}
			content := strings.TrimSpace(window[:end])

			facts = append(facts, models.UserFact{
				UserID:     userID,
				Kind:       entry.kind,
				Content:    content,
				Confidence: patternConfidence,
				Source:     models.FactSourceConversation,
			})
			break // 每个类别只取第一个命中的线索
		}
	}
	return facts
}
