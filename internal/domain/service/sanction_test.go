package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loanpilot/loanpilot/internal/domain/model"
	"github.com/loanpilot/loanpilot/internal/domain/valueobject"
)

func TestSanctionIssuer_Issue(t *testing.T) {
	issuer := NewSanctionIssuer("https://docs.example.com/sanctions")
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	c := model.NewConversation("conv-9", "CUST042", "en", now)
	c.RefreshOffer(500_000, 36, 10.5, 16251.08, 11.5, now)

	s := issuer.Issue(c, now)

	assert.Equal(t, "SL/20250315/CUST042", s.SanctionNumber)
	assert.Equal(t, "https://docs.example.com/sanctions/conv-9.pdf", s.PDFURL)
	assert.Equal(t, "2025-04-14", s.ValidUntil)
	assert.Equal(t, 5000.0, s.ProcessingFee)
	require.Len(t, s.Schedule, 36)
	assert.True(t, s.Schedule[35].RemainingBalance.IsZero())
}

func TestSanctionIssuer_UnknownCustomer(t *testing.T) {
	issuer := NewSanctionIssuer("")
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	c := model.NewConversation("conv-9", "", "en", now)
	c.RefreshOffer(100_000, 12, 11.5, 8864.58, 11.5, now)

	s := issuer.Issue(c, now)
	assert.Equal(t, "SL/20250315/UNKNOWN", s.SanctionNumber)
}

func TestSanctionIssuer_NetDisbursalAmount(t *testing.T) {
	issuer := NewSanctionIssuer("")
	assert.Equal(t, 495_000.0, issuer.NetDisbursalAmount(500_000))
}

func TestGamificationEngine_AssignBadge(t *testing.T) {
	engine := NewGamificationEngine()

	t.Run("sanction stage", func(t *testing.T) {
		badge := engine.AssignBadge(valueobject.StageSanction, 4)
		assert.Equal(t, "Deal Closer", badge.Badge)
		assert.Equal(t, "Expert", badge.Level)
		assert.Equal(t, 540, badge.Points)
	})

	t.Run("underwriting stage", func(t *testing.T) {
		badge := engine.AssignBadge(valueobject.StageUnderwriting, 2)
		assert.Equal(t, "Financial Wizard", badge.Badge)
		assert.Equal(t, 220, badge.Points)
	})

	t.Run("long journey", func(t *testing.T) {
		badge := engine.AssignBadge(valueobject.StageSales, 6)
		assert.Equal(t, "Loan Pro", badge.Badge)
	})

	t.Run("fresh journey", func(t *testing.T) {
		badge := engine.AssignBadge(valueobject.StageGreeting, 1)
		assert.Equal(t, "Getting Started", badge.Badge)
		assert.Equal(t, "Novice", badge.Level)
	})
}

func TestGamificationEngine_ListPartnerOffers(t *testing.T) {
	engine := NewGamificationEngine()

	assert.Len(t, engine.ListPartnerOffers(""), 2)
	assert.Len(t, engine.ListPartnerOffers("premium"), 1)
}
