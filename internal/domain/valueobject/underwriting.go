package valueobject

// ---------------------------------------------------------------------------
// Underwriting explainability
// ---------------------------------------------------------------------------

// FactorStatus is the outcome of one underwriting criterion.
type FactorStatus string

const (
	FactorPass        FactorStatus = "pass"
	FactorFail        FactorStatus = "fail"
	FactorConditional FactorStatus = "conditional"
	FactorUnknown     FactorStatus = "unknown"
)

// Factor is one named criterion contributing to an underwriting decision.
type Factor struct {
	Name      string       `json:"name"`
	Value     string       `json:"value,omitempty"`
	Threshold string       `json:"threshold"`
	Status    FactorStatus `json:"status"`
	Reason    string       `json:"reason"`
}

// Explainability is the full evidence trail of one rule-engine evaluation.
// Factors appear in evaluation order; evaluation short-circuits on the
// first hard failure.
type Explainability struct {
	Decision string   `json:"decision"` // "approved" or "rejected"
	Summary  string   `json:"summary"`
	Factors  []Factor `json:"factors"`
}

// Approved reports whether the base rule engine approved.
func (e Explainability) Approved() bool { return e.Decision == "approved" }

// HasConditionalFactor reports whether any factor was recorded as
// conditional (salary slip required).
func (e Explainability) HasConditionalFactor() bool {
	for _, f := range e.Factors {
		if f.Status == FactorConditional {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Decision variants
// ---------------------------------------------------------------------------

// DecisionKind tags the variant of an underwriting decision.
type DecisionKind string

const (
	DecisionInstantApprove          DecisionKind = "INSTANT_APPROVE"
	DecisionNeedsSalaryVerification DecisionKind = "NEEDS_SALARY_VERIFICATION"
	DecisionManualReview            DecisionKind = "MANUAL_REVIEW"
	DecisionReject                  DecisionKind = "REJECT"
	DecisionApproved                DecisionKind = "APPROVED"
	DecisionPartialApproval         DecisionKind = "PARTIAL_APPROVAL"
)

// Decision is a tagged variant: exactly the fields relevant to Kind are
// populated. The underwriting output shape varies by decision branch, and
// this keeps each branch's payload typed instead of an open map.
type Decision struct {
	Kind DecisionKind `json:"kind"`

	// Populated for INSTANT_APPROVE and APPROVED.
	DTIPercent float64 `json:"dti_percent,omitempty"`
	Rate       float64 `json:"rate,omitempty"`

	// Populated for NEEDS_SALARY_VERIFICATION.
	RequiredDocuments []string `json:"required_documents,omitempty"`

	// Populated for MANUAL_REVIEW and REJECT.
	Reason string `json:"reason,omitempty"`

	// Populated for PARTIAL_APPROVAL.
	MaxAffordableEMI float64 `json:"max_affordable_emi,omitempty"`
}

// Approvable reports whether the decision lets the journey advance toward
// sanction without further documents.
func (d Decision) Approvable() bool {
	return d.Kind == DecisionInstantApprove || d.Kind == DecisionApproved
}

// ---------------------------------------------------------------------------
// Collaborator snapshots consumed by underwriting
// ---------------------------------------------------------------------------

// BureauReport is the credit bureau snapshot for one identifier.
type BureauReport struct {
	Score               *int    `json:"score,omitempty"`
	Utilization         float64 `json:"utilization"`
	Accounts            int     `json:"accounts"`
	PaymentDefaults     int     `json:"payment_defaults"`
	EnquiriesLast6Month int     `json:"enquiries_last_6_months"`
}

// CustomerProfile is the CRM view of a customer, as consumed by pricing and
// underwriting. All optional numerics are pointers so that "missing" is
// distinguishable from zero.
type CustomerProfile struct {
	CustomerID         string    `json:"customer_id,omitempty"`
	Name               string    `json:"name,omitempty"`
	Phone              string    `json:"phone,omitempty"`
	Email              string    `json:"email,omitempty"`
	Employer           string    `json:"employer,omitempty"`
	MonthlyIncome      *float64  `json:"monthly_income,omitempty"`
	PreApprovedLimit   *float64  `json:"pre_approved_limit,omitempty"`
	CreditScore        *int      `json:"credit_score,omitempty"`
	LoyaltyYears       *int      `json:"loyalty_years,omitempty"`
	AutoDebitEnabled   bool      `json:"auto_debit_enabled,omitempty"`
	UtilizationBelow30 bool      `json:"utilization_lt_30,omitempty"`
	HomeLoanCustomer   bool      `json:"is_home_loan_customer,omitempty"`
	ExistingLoanEMIs   []float64 `json:"existing_loan_emis,omitempty"`
}
