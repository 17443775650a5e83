package model

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// AmortizationEntry is one period in a sanction repayment schedule.
type AmortizationEntry struct {
	Period           int             `json:"period"`
	DueDate          time.Time       `json:"due_date"`
	Principal        decimal.Decimal `json:"principal"`
	Interest         decimal.Decimal `json:"interest"`
	Total            decimal.Decimal `json:"total"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// BuildRepaymentSchedule computes a fixed-payment amortization schedule for
// a sanctioned loan.
//
// Parameters:
//   - principal:         the sanctioned amount
//   - annualRatePercent: annual interest rate in percent (e.g. 10.5)
//   - termMonths:        number of monthly periods
//   - startDate:         the date from which the first payment is due (one month later)
//
// The calculation uses:
//
//	monthlyRate = annualRatePercent / 100 / 12
//	payment     = P * r * (1+r)^n / ((1+r)^n - 1)
func BuildRepaymentSchedule(
	principal decimal.Decimal,
	annualRatePercent float64,
	termMonths int,
	startDate time.Time,
) []AmortizationEntry {
	if termMonths <= 0 || principal.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	monthlyRate := annualRatePercent / 100.0 / 12.0

	n := float64(termMonths)
	var monthlyPayment decimal.Decimal

	if monthlyRate == 0 {
		// Zero-interest: even split.
		monthlyPayment = principal.Div(decimal.NewFromInt(int64(termMonths)))
	} else {
		// P * r * (1+r)^n / ((1+r)^n - 1)
		factor := math.Pow(1+monthlyRate, n)
		paymentFloat := principal.InexactFloat64() * monthlyRate * factor / (factor - 1)
		monthlyPayment = decimal.NewFromFloat(paymentFloat).Round(2)
	}

	schedule := make([]AmortizationEntry, 0, termMonths)
	remaining := principal
	monthlyRateDec := decimal.NewFromFloat(monthlyRate)

	for period := 1; period <= termMonths; period++ {
		dueDate := startDate.AddDate(0, period, 0)

		interest := remaining.Mul(monthlyRateDec).Round(2)
		principalPart := monthlyPayment.Sub(interest)

		// Last period: absorb rounding so the balance reaches exactly zero.
		if period == termMonths {
			principalPart = remaining
			interest = remaining.Mul(monthlyRateDec).Round(2)
			monthlyPayment = principalPart.Add(interest)
		}

		remaining = remaining.Sub(principalPart)
		if remaining.LessThan(decimal.Zero) {
			remaining = decimal.Zero
		}

		schedule = append(schedule, AmortizationEntry{
			Period:           period,
			DueDate:          dueDate,
			Principal:        principalPart,
			Interest:         interest,
			Total:            principalPart.Add(interest),
			RemainingBalance: remaining,
		})
	}

	return schedule
}
