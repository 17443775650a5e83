package service

import (
	"math"

	"github.com/loanpilot/loanpilot/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// PricingEngine – deterministic rate and EMI math
// ---------------------------------------------------------------------------

const (
	// BaseRate is the standard annual personal loan rate in percent.
	BaseRate = 11.5
	// FloorRate is the lowest personalized rate any discount stack can reach.
	FloorRate = 9.0
)

// PricedOffer is the output of pricing one loan request.
type PricedOffer struct {
	Amount           float64
	TenureMonths     int
	StandardRate     float64
	PersonalizedRate float64
	EMI              float64
}

// PersonalizedRate computes the customer-specific annual rate. Discounts are
// independent and additive; the floor clamp is applied last.
func PersonalizedRate(baseRate float64, creditScore, loyaltyYears int, autoDebitEnabled, utilizationBelow30, homeLoanCustomer bool, floorRate float64) float64 {
	rate := baseRate
	if creditScore >= 780 {
		rate -= 1.5
	}
	if loyaltyYears >= 5 {
		rate -= 0.5
	}
	if autoDebitEnabled {
		rate -= 0.3
	}
	if utilizationBelow30 {
		rate -= 0.3
	}
	if homeLoanCustomer {
		rate -= 0.4
	}
	if rate < floorRate {
		rate = floorRate
	}
	return round2(rate)
}

// ComputeEMI computes the fixed monthly installment using the standard
// annuity formula P*r*(1+r)^n / ((1+r)^n - 1) with r = annualRate/12/100.
// A zero rate degrades to an even split. Non-positive principal or tenure
// yields 0.
func ComputeEMI(principal, annualRatePercent float64, tenureMonths int) float64 {
	if principal <= 0 || tenureMonths <= 0 {
		return 0.0
	}
	r := annualRatePercent / 12.0 / 100.0
	n := float64(tenureMonths)
	if r == 0 {
		return round2(principal / n)
	}
	factor := math.Pow(1+r, n)
	return round2(principal * r * factor / (factor - 1))
}

// DebtToIncome returns monthlyEMI/monthlyIncome clamped to [0, 2.0]. Missing
// or non-positive income returns the worst-case sentinel 1.0.
func DebtToIncome(monthlyEMI, monthlyIncome float64) float64 {
	if monthlyIncome <= 0 {
		return 1.0
	}
	ratio := monthlyEMI / monthlyIncome
	if ratio < 0 {
		return 0.0
	}
	if ratio > 2.0 {
		return 2.0
	}
	return ratio
}

// PricingEngine prices offers against a customer profile.
type PricingEngine struct{}

// NewPricingEngine returns a new engine instance.
func NewPricingEngine() *PricingEngine {
	return &PricingEngine{}
}

// PriceOffer derives the personalized rate from the profile and computes the
// EMI for the requested amount and tenure. Missing profile fields simply
// earn no discount.
func (e *PricingEngine) PriceOffer(profile *valueobject.CustomerProfile, amount float64, tenureMonths int) PricedOffer {
	var (
		creditScore  int
		loyaltyYears int
		autoDebit    bool
		lowUtil      bool
		homeLoan     bool
	)
	if profile != nil {
		if profile.CreditScore != nil {
			creditScore = *profile.CreditScore
		}
		if profile.LoyaltyYears != nil {
			loyaltyYears = *profile.LoyaltyYears
		}
		autoDebit = profile.AutoDebitEnabled
		lowUtil = profile.UtilizationBelow30
		homeLoan = profile.HomeLoanCustomer
	}

	rate := PersonalizedRate(BaseRate, creditScore, loyaltyYears, autoDebit, lowUtil, homeLoan, FloorRate)
	return PricedOffer{
		Amount:           amount,
		TenureMonths:     tenureMonths,
		StandardRate:     BaseRate,
		PersonalizedRate: rate,
		EMI:              ComputeEMI(amount, rate, tenureMonths),
	}
}

// MaxAffordableAmount inverts the annuity formula to find the principal whose
// EMI equals the given budget. Used for affordability objection handling.
func (e *PricingEngine) MaxAffordableAmount(monthlyBudget, annualRatePercent float64, tenureMonths int) float64 {
	if monthlyBudget <= 0 || tenureMonths <= 0 {
		return 0.0
	}
	r := annualRatePercent / 12.0 / 100.0
	n := float64(tenureMonths)
	if r == 0 {
		return round2(monthlyBudget * n)
	}
	factor := math.Pow(1+r, n)
	return round2(monthlyBudget * (factor - 1) / (r * factor))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
