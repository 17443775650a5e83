package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/loanpilot/loanpilot/internal/domain/valueobject"
)

func TestPersonalizedRate(t *testing.T) {
	tests := []struct {
		name         string
		creditScore  int
		loyaltyYears int
		autoDebit    bool
		lowUtil      bool
		homeLoan     bool
		want         float64
	}{
		{"no discounts", 700, 1, false, false, false, 11.5},
		{"credit score discount", 780, 0, false, false, false, 10.0},
		{"loyalty discount", 700, 5, false, false, false, 11.0},
		{"auto debit discount", 700, 0, true, false, false, 11.2},
		{"stacked discounts", 780, 5, true, true, false, 9.4},
		{"all discounts clamp to floor", 900, 10, true, true, true, 9.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PersonalizedRate(BaseRate, tt.creditScore, tt.loyaltyYears, tt.autoDebit, tt.lowUtil, tt.homeLoan, FloorRate)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeEMI(t *testing.T) {
	t.Run("standard annuity", func(t *testing.T) {
		// 500,000 at 10.5% over 36 months.
		emi := ComputeEMI(500_000, 10.5, 36)
		assert.InDelta(t, 16251.08, emi, 0.5)
	})

	t.Run("zero rate is even split", func(t *testing.T) {
		assert.Equal(t, 1000.0, ComputeEMI(12_000, 0, 12))
		assert.Equal(t, 833.33, ComputeEMI(10_000, 0, 12))
	})

	t.Run("invalid inputs yield zero", func(t *testing.T) {
		assert.Equal(t, 0.0, ComputeEMI(0, 10.5, 36))
		assert.Equal(t, 0.0, ComputeEMI(-500, 10.5, 36))
		assert.Equal(t, 0.0, ComputeEMI(500_000, 10.5, 0))
		assert.Equal(t, 0.0, ComputeEMI(500_000, 10.5, -12))
	})
}

func TestDebtToIncome(t *testing.T) {
	assert.Equal(t, 0.25, DebtToIncome(20_000, 80_000))
	assert.Equal(t, 2.0, DebtToIncome(250_000, 80_000), "clamped at 2.0")
	assert.Equal(t, 1.0, DebtToIncome(20_000, 0), "missing income sentinel")
	assert.Equal(t, 1.0, DebtToIncome(20_000, -5), "negative income sentinel")
}

func TestPricingEngine_PriceOffer(t *testing.T) {
	engine := NewPricingEngine()

	t.Run("with full profile", func(t *testing.T) {
		score := 800
		loyalty := 6
		profile := &valueobject.CustomerProfile{
			CreditScore:        &score,
			LoyaltyYears:       &loyalty,
			AutoDebitEnabled:   true,
			UtilizationBelow30: true,
		}
		offer := engine.PriceOffer(profile, 500_000, 36)
		assert.Equal(t, 11.5, offer.StandardRate)
		// 11.5 - 1.5 - 0.5 - 0.3 - 0.3 = 8.9, clamped to the floor.
		assert.Equal(t, 9.0, offer.PersonalizedRate)
		assert.Greater(t, offer.EMI, 0.0)
		assert.Less(t, offer.EMI, ComputeEMI(500_000, 11.5, 36), "personalized EMI beats standard rate")
	})

	t.Run("nil profile earns no discount", func(t *testing.T) {
		offer := engine.PriceOffer(nil, 500_000, 36)
		assert.Equal(t, 11.5, offer.PersonalizedRate)
	})
}

func TestPricingEngine_MaxAffordableAmount(t *testing.T) {
	engine := NewPricingEngine()

	t.Run("inverts EMI", func(t *testing.T) {
		principal := engine.MaxAffordableAmount(16251.08, 10.5, 36)
		assert.InDelta(t, 500_000, principal, 50)
	})

	t.Run("zero rate", func(t *testing.T) {
		assert.Equal(t, 12_000.0, engine.MaxAffordableAmount(1000, 0, 12))
	})

	t.Run("invalid budget", func(t *testing.T) {
		assert.Equal(t, 0.0, engine.MaxAffordableAmount(0, 10.5, 36))
	})
}
