package service

import (
	"fmt"
	"strings"
)

// 补全服务不可用时的离线应答。匹配是声明式的：每个主题一组触发词
// 加一段固定回复，按表顺序取第一个命中的主题。表驱动让主题的增删
// 不触碰匹配逻辑本身。

type fallbackTopic struct {
	keywords    []string
	response    string
	suggestions []string
}

var fallbackTopics = []fallbackTopic{
	{
		keywords: []string{"hello", "hi", "hey", "start"},
		response: `Hello! I'm your AI Travel Companion. While I'm currently running in offline mode, I can still help you with travel planning!

I can assist with:
- Destination recommendations
- Itinerary planning
- Restaurant suggestions
- Accommodation advice
- Budget planning
- Activity recommendations

What would you like to explore today?`,
		suggestions: []string{
			"Plan a weekend getaway",
			"Find budget-friendly destinations",
			"Suggest adventure activities",
			"Help with travel logistics",
		},
	},
	{
		keywords: []string{"paris", "france"},
		response: `Paris is absolutely magical! Here are my top recommendations:

Must-see attractions:
- Eiffel Tower (best views from Trocadero)
- Louvre Museum (book skip-the-line tickets)
- Notre-Dame Cathedral area
- Montmartre & Sacre-Coeur

Food experiences:
- Croissants at Du Pain et des Idees
- Dinner cruise on the Seine
- Local bistros in Le Marais

Pro tips:
- Visit major attractions early morning or late afternoon
- Use the Metro day pass for easy transport

Would you like specific recommendations for activities, restaurants, or a day-by-day itinerary?`,
		suggestions: []string{
			"Best time to visit Paris?",
			"Paris museum recommendations",
			"Romantic spots in Paris",
			"Paris food tour suggestions",
		},
	},
	{
		keywords: []string{"tokyo", "japan"},
		response: `Tokyo is incredible! Here's what you shouldn't miss:

Cultural highlights:
- Senso-ji Temple (Asakusa district)
- Meiji Shrine (peaceful oasis)
- Imperial Palace East Gardens

Food adventures:
- Tsukiji Outer Market for fresh sushi
- Ramen in Shibuya or Shinjuku
- Izakayas in Golden Gai

Getting around:
- JR Pass for unlimited train travel
- IC card for local transport

What aspect of Tokyo interests you most?`,
		suggestions: []string{
			"Tokyo neighborhoods to explore",
			"Japanese etiquette tips",
			"Best Tokyo food experiences",
			"Day trips from Tokyo",
		},
	},
	{
		keywords: []string{"budget", "cheap", "affordable"},
		response: `Smart budget travel tips! Here are proven strategies:

Top budget destinations:
- Southeast Asia: Thailand, Vietnam ($20-30/day)
- Eastern Europe: Prague, Budapest ($30-40/day)
- Central America: Guatemala, Nicaragua ($25-35/day)

Accommodation savings:
- Hostels with good reviews
- Airbnb for longer stays

Flight deals:
- Use flexible date searches
- Book Tuesday-Thursday departures
- Set price alerts

Food budget tips:
- Street food and local markets
- Lunch specials vs dinner prices

Would you like specific budget breakdowns for any destination?`,
		suggestions: []string{
			"Cheapest destinations in Europe",
			"Budget accommodation tips",
			"Free activities worldwide",
			"How to save on flights",
		},
	},
	{
		keywords: []string{"restaurant", "food", "eat", "dining"},
		response: `Great food makes any trip memorable! Here's how to find the best:

Finding great restaurants:
- Ask locals for recommendations
- Look for places busy with locals
- Avoid tourist-heavy areas for authentic cuisine

Types to try:
- Street food for authentic flavors
- Local markets for fresh ingredients
- Family-run establishments

Pro tips:
- Learn basic food phrases in the local language
- Try lunch specials for better value
- Make reservations for popular spots

What type of cuisine or dining experience are you looking for?`,
		suggestions: []string{
			"Local food markets to visit",
			"Street food safety tips",
			"Vegetarian options abroad",
			"Food allergy translations",
		},
	},
	{
		keywords: []string{"itinerary", "plan", "schedule", "days"},
		response: `Perfect! Let me help you create an amazing itinerary:

Planning framework:
- Day 1: Arrival + nearby exploration
- Day 2-3: Major attractions
- Day 4+: Local experiences + hidden gems

Daily structure:
- Morning: Major sights (less crowded)
- Afternoon: Museums or indoor activities
- Evening: Dining + entertainment

Location clustering:
- Group nearby attractions together
- Plan routes to minimize backtracking

To create a personalized itinerary, I'd need to know:
- Which city/destination?
- How many days?
- Your interests (culture, food, adventure, etc.)
- Budget range?`,
		suggestions: []string{
			"How many days do I need?",
			"Must-see vs hidden gems",
			"Transportation between cities",
			"Booking accommodations",
		},
	},
	{
		keywords: []string{"weather", "climate", "season"},
		response: `Weather planning is crucial for a great trip! Here's what to consider:

Seasonal planning:
- Spring: Mild weather, blooming flowers, fewer crowds
- Summer: Peak season, warm weather, higher prices
- Fall: Great weather, beautiful colors, good deals
- Winter: Lower prices, unique experiences, pack warm

Packing smart:
- Check the 10-day forecast before departure
- Layer clothing for temperature changes
- Waterproof gear for rainy destinations

Which destination and time of year are you considering?`,
		suggestions: []string{
			"Plan a weekend getaway",
			"Find budget-friendly destinations",
			"Suggest adventure activities",
			"Help with travel logistics",
		},
	},
}

var defaultSuggestions = []string{
	"Plan a weekend getaway",
	"Find budget-friendly destinations",
	"Suggest adventure activities",
	"Help with travel logistics",
}

// FallbackResponse 生成离线模式下的应答。按主题表顺序匹配，
// 没有主题命中时返回一段引导用户细化问题的通用回复。
func FallbackResponse(message string) string {
	lower := strings.ToLower(message)
	for _, topic := range fallbackTopics {
		for _, keyword := range topic.keywords {
			if strings.Contains(lower, keyword) {
				return topic.response
			}
		}
	}

	return fmt.Sprintf(`I understand you're asking about: %q

While I'm currently in offline mode, I'm still here to help with your travel planning! I can provide detailed advice on:

- Destinations: recommendations based on your interests and budget
- Planning: itineraries, timing, and logistics
- Local experiences: food, culture, and hidden gems
- Budget tips: how to maximize your travel budget

Could you be more specific about what aspect of travel you'd like help with? For example:
- "Plan a 5-day trip to Italy"
- "Budget backpacking in Southeast Asia"
- "Best restaurants in Barcelona"

The more details you provide, the better I can assist you!`, message)
}

// Suggestions 根据用户消息生成后续问题建议。和 FallbackResponse
// 共用主题表，保证建议和回复指向同一个主题。
func Suggestions(message string) []string {
	lower := strings.ToLower(message)
	for _, topic := range fallbackTopics {
		for _, keyword := range topic.keywords {
			if strings.Contains(lower, keyword) {
				return topic.suggestions
			}
		}
	}
	return defaultSuggestions
}
