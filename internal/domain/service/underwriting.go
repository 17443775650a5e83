package service

import (
	"fmt"

	"github.com/loanpilot/loanpilot/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// UnderwritingEngine – rule-based credit decisioning with explainability
// ---------------------------------------------------------------------------

const (
	// MinCreditScore is the hard floor below which every application fails.
	MinCreditScore = 700
	// MaxDTIRatio is the base-gate ceiling for EMI as a share of income.
	MaxDTIRatio = 0.5
	// PreApprovedStretch is how far past the pre-approved limit a request
	// may go before outright rejection (the band in between is conditional).
	PreApprovedStretch = 2.0
	// ReevaluationRate is the fixed annual rate quoted on salary-verified
	// approvals.
	ReevaluationRate = 10.5
)

// RuleInputs are the base-gate inputs. Pointers distinguish missing from
// zero; the engine itself performs no lookups.
type RuleInputs struct {
	CreditScore      *int
	LoanAmount       float64
	PreApprovedLimit *float64
	MonthlyIncome    *float64
	ProposedEMI      *float64
}

// UnderwritingEngine encapsulates the ordered rule gates. All methods are
// pure given their inputs.
type UnderwritingEngine struct{}

// NewUnderwritingEngine returns a new engine instance.
func NewUnderwritingEngine() *UnderwritingEngine {
	return &UnderwritingEngine{}
}

// RunRules executes the ordered gate sequence, short-circuiting on the
// first hard failure:
//
//  1. credit score present and >= 700
//  2. loan amount vs pre-approved limit (rejection past 2x, conditional band
//     between 1x and 2x, unknown when no limit is on file)
//  3. EMI at most 50% of monthly income
func (e *UnderwritingEngine) RunRules(in RuleInputs) valueobject.Explainability {
	var factors []valueobject.Factor

	if in.CreditScore == nil {
		factors = append(factors, valueobject.Factor{
			Name:      "credit_score",
			Threshold: fmt.Sprintf(">=%d", MinCreditScore),
			Status:    valueobject.FactorFail,
			Reason:    "credit score unavailable",
		})
		return rejected("missing credit score", factors)
	}
	score := *in.CreditScore
	if score < MinCreditScore {
		factors = append(factors, valueobject.Factor{
			Name:      "credit_score",
			Value:     fmt.Sprintf("%d", score),
			Threshold: fmt.Sprintf(">=%d", MinCreditScore),
			Status:    valueobject.FactorFail,
			Reason:    fmt.Sprintf("credit score %d is below %d", score, MinCreditScore),
		})
		return rejected(fmt.Sprintf("credit score below %d", MinCreditScore), factors)
	}
	factors = append(factors, valueobject.Factor{
		Name:      "credit_score",
		Value:     fmt.Sprintf("%d", score),
		Threshold: fmt.Sprintf(">=%d", MinCreditScore),
		Status:    valueobject.FactorPass,
		Reason:    "credit score meets minimum",
	})

	if in.PreApprovedLimit != nil {
		limit := *in.PreApprovedLimit
		switch {
		case in.LoanAmount > PreApprovedStretch*limit:
			factors = append(factors, valueobject.Factor{
				Name:      "loan_vs_preapproved",
				Value:     fmt.Sprintf("%.2f", in.LoanAmount),
				Threshold: fmt.Sprintf("<=%.2f", PreApprovedStretch*limit),
				Status:    valueobject.FactorFail,
				Reason:    "requested amount exceeds twice the pre-approved limit",
			})
			return rejected("requested amount far exceeds pre-approved limit", factors)
		case in.LoanAmount > limit:
			factors = append(factors, valueobject.Factor{
				Name:      "loan_vs_preapproved",
				Value:     fmt.Sprintf("%.2f", in.LoanAmount),
				Threshold: fmt.Sprintf("<=%.2f", limit),
				Status:    valueobject.FactorConditional,
				Reason:    "amount above pre-approved limit, salary slip required",
			})
		default:
			factors = append(factors, valueobject.Factor{
				Name:      "loan_vs_preapproved",
				Value:     fmt.Sprintf("%.2f", in.LoanAmount),
				Threshold: fmt.Sprintf("<=%.2f", limit),
				Status:    valueobject.FactorPass,
				Reason:    "amount within pre-approved limit",
			})
		}
	} else {
		factors = append(factors, valueobject.Factor{
			Name:      "loan_vs_preapproved",
			Threshold: "pre-approved limit on file",
			Status:    valueobject.FactorUnknown,
			Reason:    "no pre-approved limit on file",
		})
	}

	if in.MonthlyIncome == nil || *in.MonthlyIncome <= 0 || in.ProposedEMI == nil || *in.ProposedEMI <= 0 {
		factors = append(factors, valueobject.Factor{
			Name:      "debt_to_income",
			Threshold: fmt.Sprintf("<=%.0f%%", MaxDTIRatio*100),
			Status:    valueobject.FactorFail,
			Reason:    "income or proposed EMI unavailable",
		})
		return rejected("missing DTI inputs", factors)
	}
	dti := *in.ProposedEMI / *in.MonthlyIncome
	if dti > MaxDTIRatio {
		factors = append(factors, valueobject.Factor{
			Name:      "debt_to_income",
			Value:     fmt.Sprintf("%.1f%%", dti*100),
			Threshold: fmt.Sprintf("<=%.0f%%", MaxDTIRatio*100),
			Status:    valueobject.FactorFail,
			Reason:    "EMI exceeds half of monthly income",
		})
		return rejected("EMI exceeds 50% of income", factors)
	}
	factors = append(factors, valueobject.Factor{
		Name:      "debt_to_income",
		Value:     fmt.Sprintf("%.1f%%", dti*100),
		Threshold: fmt.Sprintf("<=%.0f%%", MaxDTIRatio*100),
		Status:    valueobject.FactorPass,
		Reason:    "EMI within half of monthly income",
	})

	return valueobject.Explainability{
		Decision: "approved",
		Summary:  "all underwriting gates passed",
		Factors:  factors,
	}
}

func rejected(summary string, factors []valueobject.Factor) valueobject.Explainability {
	return valueobject.Explainability{
		Decision: "rejected",
		Summary:  summary,
		Factors:  factors,
	}
}

// EvaluateConditionalApproval runs the richer multi-factor gate over the
// customer profile, bureau snapshot and the proposed offer. The DTI here
// sums existing loan EMIs with the proposed one and is deliberately
// unclamped so that ratios above 100% are visible.
func (e *UnderwritingEngine) EvaluateConditionalApproval(
	profile *valueobject.CustomerProfile,
	bureau *valueobject.BureauReport,
	loanAmount, proposedEMI float64,
) (valueobject.Decision, valueobject.Explainability) {
	totalEMI := proposedEMI
	var income float64
	var preApproved *float64
	var creditScore *int
	if profile != nil {
		for _, emi := range profile.ExistingLoanEMIs {
			totalEMI += emi
		}
		if profile.MonthlyIncome != nil {
			income = *profile.MonthlyIncome
		}
		preApproved = profile.PreApprovedLimit
		creditScore = profile.CreditScore
	}
	if bureau != nil && bureau.Score != nil {
		creditScore = bureau.Score
	}

	dti := 2.0
	if income > 0 {
		dti = totalEMI / income
	}

	defaults := 0
	enquiries := 0
	if bureau != nil {
		defaults = bureau.PaymentDefaults
		enquiries = bureau.EnquiriesLast6Month
	}

	base := e.RunRules(RuleInputs{
		CreditScore:      creditScore,
		LoanAmount:       loanAmount,
		PreApprovedLimit: preApproved,
		MonthlyIncome:    floatPtr(income),
		ProposedEMI:      floatPtr(proposedEMI),
	})

	// Hard stop before any approval path.
	if dti > 1.0 || defaults >= 2 {
		return valueobject.Decision{
			Kind:       valueobject.DecisionManualReview,
			DTIPercent: round2(dti * 100),
			Reason:     "obligations or repayment history require a manual look",
		}, base
	}

	if base.Approved() {
		if dti <= MaxDTIRatio {
			return valueobject.Decision{
				Kind:       valueobject.DecisionInstantApprove,
				DTIPercent: round2(dti * 100),
			}, base
		}
		return valueobject.Decision{
			Kind:              valueobject.DecisionNeedsSalaryVerification,
			DTIPercent:        round2(dti * 100),
			RequiredDocuments: []string{"salary_slip_last_3_months"},
		}, base
	}

	if base.HasConditionalFactor() || defaults == 1 || enquiries >= 5 {
		return valueobject.Decision{
			Kind:   valueobject.DecisionManualReview,
			Reason: base.Summary,
		}, base
	}

	return valueobject.Decision{
		Kind:   valueobject.DecisionReject,
		Reason: base.Summary,
	}, base
}

// ReevaluateWithSalary re-checks affordability after a salary slip upload.
func (e *UnderwritingEngine) ReevaluateWithSalary(requestedEMI, netMonthlySalary float64) valueobject.Decision {
	if netMonthlySalary <= 0 {
		return valueobject.Decision{
			Kind:   valueobject.DecisionManualReview,
			Reason: "salary extraction failed",
		}
	}
	ratio := requestedEMI / netMonthlySalary * 100
	if ratio <= 50 {
		return valueobject.Decision{
			Kind:       valueobject.DecisionApproved,
			DTIPercent: round2(ratio),
			Rate:       ReevaluationRate,
		}
	}
	return valueobject.Decision{
		Kind:             valueobject.DecisionPartialApproval,
		DTIPercent:       round2(ratio),
		MaxAffordableEMI: round2(netMonthlySalary * 0.5),
	}
}

func floatPtr(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}
