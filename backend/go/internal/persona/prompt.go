package persona

import (
	"fmt"
	"sort"
	"strings"

	"Travel_Companion/backend/go/internal/models"
)

// 提示词的固定骨架。构造是纯函数：相同输入产生字节级相同的输出，
// 不引入任何时间戳或随机性。

const basePrompt = `You are an AI travel companion that adapts to the user's personality and preferences.
You provide personalized travel recommendations, answer questions, and help plan activities.

Key traits:
- Friendly and conversational
- Knowledgeable about travel and local experiences
- Adaptive to user's communication style
- Proactive in suggesting relevant activities
- Safety-conscious and practical`

const closingGuidance = `

RESPONSE GUIDELINES:
- Keep responses conversational and helpful
- Suggest specific places when relevant
- Ask follow-up questions to better understand needs
- Provide practical details (distance, time, cost when known)
- Be encouraging and enthusiastic about travel experiences
- If you don't know something specific, say so and suggest alternatives`

// BuildPrompt 根据人格画像、相关记忆和环境上下文构造 system 提示词。
// profile 和 ambient 允许为 nil，对应的段落整体省略；memories 为空时
// 同样省略记忆段落。
func BuildPrompt(profile *models.PersonaProfile, memories []models.MemoryHit, ambient *models.AmbientContext) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	if profile != nil {
		fmt.Fprintf(&b, `

USER TRAVEL PERSONA:
- Primary personality: %s
- Budget preference: %s
- Travel style: %s
- Preferred categories: %s
- Transport modes: %s
- Dietary restrictions: %s

Adapt your responses to match this persona. Be more adventurous for adventurers, food-focused for foodies, etc.`,
			primaryPersona(profile.Traits),
			orDefault(profile.BudgetRange, "mixed"),
			orDefault(profile.TravelStyle, "solo"),
			formatCategories(profile.CategoryPreferences),
			joinOrDefault(profile.TransportModes, "walking"),
			joinOrDefault(profile.DietaryRestrictions, "none"),
		)
	}

	if len(memories) > 0 {
		b.WriteString("\n\nRELEVANT MEMORIES:\n")
		for i, memory := range memories {
			if i >= 3 { // top 3 most relevant
				break
			}
			fmt.Fprintf(&b, "- %s\n", memory.Content)
		}
		b.WriteString("\nUse these memories to provide personalized responses.")
	}

	if ambient != nil {
		fmt.Fprintf(&b, `

CURRENT CONTEXT:
- Location: %s
- Time: %s
- Weather: %s
- Mood: %s

Consider this context when making recommendations.`,
			orDefault(ambient.Location, "Unknown"),
			orDefault(ambient.TimeOfDay, "Unknown"),
			orDefault(ambient.Weather, "Unknown"),
			orDefault(ambient.Mood, "Unknown"),
		)
	}

	b.WriteString(closingGuidance)
	return b.String()
}

// primaryPersona 取权重最大的性格标签。并列最大值时取先出现的一项，
// 所以遍历用严格大于比较。
func primaryPersona(traits []models.TraitWeight) string {
	if len(traits) == 0 {
		return "balanced traveler"
	}
	primary := traits[0]
	for _, t := range traits[1:] {
		if t.Weight > primary.Weight {
			primary = t
		}
	}
	return fmt.Sprintf("%s (score: %.2f)", primary.Trait, primary.Weight)
}

// formatCategories 按权重降序取前三个类别。稳定排序保证并列权重
// 保持原有顺序。
func formatCategories(prefs []models.CategoryWeight) string {
	if len(prefs) == 0 {
		return "no specific preferences"
	}

	sorted := make([]models.CategoryWeight, len(prefs))
	copy(sorted, prefs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Weight > sorted[j].Weight
	})
	if len(sorted) > 3 {
		sorted = sorted[:3]
	}

	parts := make([]string, 0, len(sorted))
	for _, p := range sorted {
		parts = append(parts, fmt.Sprintf("%s (%.2f)", p.Category, p.Weight))
	}
	return strings.Join(parts, ", ")
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func joinOrDefault(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ", ")
}
