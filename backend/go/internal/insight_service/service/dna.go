package service

import (
	"time"

	"Travel_Companion/backend/go/internal/models"
)

// dnaTypeOrder fixes the iteration order when picking the dominant type, so
// ties resolve deterministically in favor of the earlier entry.
var dnaTypeOrder = []models.DNAType{
	models.DNAExplorer,
	models.DNACultureSeeker,
	models.DNALuxuryTraveler,
	models.DNABudgetBackpacker,
	models.DNARelaxationSeeker,
}

// dnaTypeInfo carries the human-readable metadata for one DNA type.
type dnaTypeInfo struct {
	Name        string
	Description string
	Keywords    []string
}

var dnaTypeCatalog = map[models.DNAType]dnaTypeInfo{
	models.DNAExplorer: {
		Name:        "The Explorer",
		Description: "You thrive on adventure and discovering hidden gems off the beaten path.",
		Keywords:    []string{"adventurous", "curious", "independent", "flexible"},
	},
	models.DNACultureSeeker: {
		Name:        "The Culture Seeker",
		Description: "You're passionate about immersing yourself in local cultures and traditions.",
		Keywords:    []string{"cultural", "educational", "respectful", "observant"},
	},
	models.DNALuxuryTraveler: {
		Name:        "The Luxury Traveler",
		Description: "You prefer premium experiences with comfort and exceptional service.",
		Keywords:    []string{"comfort", "quality", "exclusive", "refined"},
	},
	models.DNABudgetBackpacker: {
		Name:        "The Budget Backpacker",
		Description: "You maximize experiences while minimizing costs through smart travel choices.",
		Keywords:    []string{"economical", "resourceful", "social", "adaptable"},
	},
	models.DNARelaxationSeeker: {
		Name:        "The Relaxation Seeker",
		Description: "You travel to unwind and recharge in peaceful, serene environments.",
		Keywords:    []string{"peaceful", "wellness", "slow_travel", "mindful"},
	},
}

// ScoreAnswers converts quiz answers into per-type scores and derives the
// dominant type plus a confidence value (winning score over total score).
func ScoreAnswers(answers models.QuizAnswers) (map[models.DNAType]float64, models.DNAType, float64) {
	scores := make(map[models.DNAType]float64, len(dnaTypeOrder))
	for _, t := range dnaTypeOrder {
		scores[t] = 0
	}

	switch answers["budget_preference"] {
	case "":
		// unanswered, no signal
	case "luxury":
		scores[models.DNALuxuryTraveler] += 3
	case "budget":
		scores[models.DNABudgetBackpacker] += 3
	default:
		// mid-range answers hint at experience-driven travel
		scores[models.DNACultureSeeker]++
		scores[models.DNAExplorer]++
	}

	switch answers["activity_preference"] {
	case "adventure":
		scores[models.DNAExplorer] += 3
	case "cultural":
		scores[models.DNACultureSeeker] += 3
	case "relaxation":
		scores[models.DNARelaxationSeeker] += 3
	case "luxury":
		scores[models.DNALuxuryTraveler] += 2
	}

	switch answers["accommodation_style"] {
	case "luxury_hotel":
		scores[models.DNALuxuryTraveler] += 2
	case "boutique":
		scores[models.DNACultureSeeker] += 2
	case "hostel":
		scores[models.DNABudgetBackpacker] += 2
	case "unique":
		scores[models.DNAExplorer] += 2
	}

	switch answers["planning_style"] {
	case "detailed":
		scores[models.DNALuxuryTraveler]++
	case "flexible":
		scores[models.DNAExplorer] += 2
	case "spontaneous":
		scores[models.DNABudgetBackpacker]++
	}

	primary := dnaTypeOrder[0]
	var best, total float64
	for _, t := range dnaTypeOrder {
		total += scores[t]
		if scores[t] > best {
			best = scores[t]
			primary = t
		}
	}

	confidence := 0.0
	if total > 0 {
		confidence = best / total
	}
	return scores, primary, confidence
}

// BuildProfile runs the scoring over the answers and assembles a complete
// profile ready to be persisted.
func BuildProfile(userID string, answers models.QuizAnswers) *models.TravelDNAProfile {
	scores, primary, confidence := ScoreAnswers(answers)
	info := dnaTypeCatalog[primary]

	flat := make(map[string]float64, len(scores))
	for t, score := range scores {
		flat[string(t)] = score
	}

	return &models.TravelDNAProfile{
		UserID:      userID,
		PrimaryType: primary,
		Scores:      flat,
		Confidence:  confidence,
		Description: info.Description,
		Keywords:    info.Keywords,
		AnalyzedAt:  time.Now(),
	}
}
