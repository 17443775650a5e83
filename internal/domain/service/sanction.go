package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/loanpilot/loanpilot/internal/domain/model"
)

// ---------------------------------------------------------------------------
// SanctionIssuer – formal approval artifact generation
// ---------------------------------------------------------------------------

const (
	// SanctionValidityDays is how long a sanction letter stays accept-able.
	SanctionValidityDays = 30
	// ProcessingFeeRate is deducted from the sanctioned amount at disbursal.
	ProcessingFeeRate = 0.01
)

// SanctionIssuer builds sanction artifacts with their repayment schedule.
// Number format is SL/<yyyymmdd>/<customer_id>; idempotence against
// re-entering the sanction stage is enforced by the aggregate, not here.
type SanctionIssuer struct {
	documentBaseURL string
}

// NewSanctionIssuer returns an issuer that links letters under the given
// document base URL.
func NewSanctionIssuer(documentBaseURL string) *SanctionIssuer {
	if documentBaseURL == "" {
		documentBaseURL = "https://docs.loanpilot.local/sanctions"
	}
	return &SanctionIssuer{documentBaseURL: documentBaseURL}
}

// Issue creates the sanction artifact for the conversation's current offer.
func (s *SanctionIssuer) Issue(c *model.Conversation, now time.Time) model.Sanction {
	customerID := c.CustomerID
	if customerID == "" {
		customerID = "UNKNOWN"
	}
	number := fmt.Sprintf("SL/%s/%s", now.Format("20060102"), customerID)

	amount := decimal.NewFromFloat(c.Offer.Amount)
	fee := amount.Mul(decimal.NewFromFloat(ProcessingFeeRate)).Round(2)

	return model.Sanction{
		SanctionNumber: number,
		PDFURL:         fmt.Sprintf("%s/%s.pdf", s.documentBaseURL, c.ID),
		ValidUntil:     now.AddDate(0, 0, SanctionValidityDays).Format("2006-01-02"),
		ProcessingFee:  fee.InexactFloat64(),
		Schedule:       model.BuildRepaymentSchedule(amount, c.Offer.PersonalizedRate, c.Offer.Tenure, now),
	}
}

// NetDisbursalAmount is the sanctioned amount minus the processing fee.
func (s *SanctionIssuer) NetDisbursalAmount(sanctionedAmount float64) float64 {
	amount := decimal.NewFromFloat(sanctionedAmount)
	fee := amount.Mul(decimal.NewFromFloat(ProcessingFeeRate)).Round(2)
	return amount.Sub(fee).InexactFloat64()
}
