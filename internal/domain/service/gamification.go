package service

import (
	"fmt"

	"github.com/loanpilot/loanpilot/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// GamificationEngine – progress badges and ecosystem offers
// ---------------------------------------------------------------------------

// Badge rewards journey progress.
type Badge struct {
	Badge   string `json:"badge"`
	Level   string `json:"level"`
	Points  int    `json:"points"`
	Message string `json:"message"`
}

// PartnerOffer is one ecosystem cross-sell entry.
type PartnerOffer struct {
	Partner     string `json:"partner"`
	Description string `json:"description"`
	CTA         string `json:"cta"`
}

// GamificationEngine computes badges from the current stage and the number
// of completed interactions.
type GamificationEngine struct{}

// NewGamificationEngine returns a new engine instance.
func NewGamificationEngine() *GamificationEngine {
	return &GamificationEngine{}
}

// AssignBadge calculates points, level and badge based on journey progress.
func (g *GamificationEngine) AssignBadge(stage valueobject.Stage, intentsCompleted int) Badge {
	points := intentsCompleted * 10
	var badge, level string
	switch {
	case stage == valueobject.StageSanction:
		points += 500
		badge = "Deal Closer"
		level = "Expert"
	case stage == valueobject.StageUnderwriting:
		points += 200
		badge = "Financial Wizard"
		level = "Intermediate"
	case intentsCompleted > 5:
		badge = "Loan Pro"
		level = "Advanced"
	default:
		badge = "Getting Started"
		level = "Novice"
	}
	return Badge{
		Badge:   badge,
		Level:   level,
		Points:  points,
		Message: fmt.Sprintf("Level up! You are now a %s. Badge unlocked: %s (+%d pts)", level, badge, points),
	}
}

// ListPartnerOffers returns the ecosystem cross-sell catalog. A known
// customer segment narrows the list to the top offer.
func (g *GamificationEngine) ListPartnerOffers(customerSegment string) []PartnerOffer {
	offers := []PartnerOffer{
		{
			Partner:     "Croma",
			Description: "5% cashback on electronics",
			CTA:         "https://partners.loanpilot.local/croma/cashback",
		},
		{
			Partner:     "Neu Rewards",
			Description: "2,000 reward coins on first EMI payment",
			CTA:         "https://partners.loanpilot.local/neu/rewards",
		},
	}
	if customerSegment != "" {
		return offers[:1]
	}
	return offers
}
