package dto

import (
	"github.com/loanpilot/loanpilot/internal/domain/model"
	"github.com/loanpilot/loanpilot/internal/domain/service"
	"github.com/loanpilot/loanpilot/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// Request DTOs
// ---------------------------------------------------------------------------

// TurnRequest is one inbound conversational turn: free text, an explicit
// system event, or both.
type TurnRequest struct {
	ConversationID string                        `json:"conversation_id,omitempty"`
	CustomerID     string                        `json:"customer_id,omitempty"`
	Language       string                        `json:"language,omitempty"`
	UserMessage    string                        `json:"user_message,omitempty"`
	Event          string                        `json:"event,omitempty"`
	LoanRequest    *LoanRequestInput             `json:"loan_request,omitempty"`
	Profile        *valueobject.CustomerProfile  `json:"customer_profile,omitempty"`
	SalaryData     *SalaryDataInput              `json:"salary_data,omitempty"`
}

// LoanRequestInput carries requested loan parameters on a turn.
type LoanRequestInput struct {
	Amount       float64 `json:"requested_amount"`
	TenureMonths int     `json:"requested_tenure"`
	Purpose      string  `json:"purpose,omitempty"`
}

// SalaryDataInput accompanies a document_uploaded event when extraction
// already ran out-of-band.
type SalaryDataInput struct {
	FileID           string  `json:"file_id,omitempty"`
	NetMonthlySalary float64 `json:"net_monthly_salary"`
	Confidence       float64 `json:"confidence,omitempty"`
}

// EvaluateUnderwritingRequest is the direct rule-engine API input.
type EvaluateUnderwritingRequest struct {
	CreditScore      *int     `json:"credit_score"`
	LoanAmount       float64  `json:"loan_amount"`
	PreApprovedLimit *float64 `json:"pre_approved_limit,omitempty"`
	MonthlyIncome    *float64 `json:"monthly_income,omitempty"`
	ProposedEMI      *float64 `json:"proposed_emi,omitempty"`
}

// ReevaluateRequest is the post-upload affordability re-check input.
type ReevaluateRequest struct {
	RequestedEMI     float64 `json:"requested_emi"`
	NetMonthlySalary float64 `json:"net_monthly_salary"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// TurnResponse is the envelope returned for every processed turn.
type TurnResponse struct {
	ConversationID string                `json:"conversation_id"`
	Stage          string                `json:"stage"`
	Message        string                `json:"message"`
	NextAction     string                `json:"next_action"`
	Worker         string                `json:"worker"`
	State          *model.Conversation   `json:"state"`
	Audit          *model.AuditEntry     `json:"audit,omitempty"`
	Badge          *service.Badge        `json:"badge,omitempty"`
	Offers         []service.PartnerOffer `json:"offers,omitempty"`
	FallbackUsed   bool                  `json:"fallback_used"`
	ModelVersion   string                `json:"model_version,omitempty"`
}

// UnderwritingResponse is the direct rule-engine API output.
type UnderwritingResponse struct {
	Decision       string                      `json:"decision"`
	Explainability *valueobject.Explainability `json:"explainability,omitempty"`
	Result         *valueobject.Decision       `json:"result,omitempty"`
}
