package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/loanpilot/loanpilot/internal/domain/event"
	"github.com/loanpilot/loanpilot/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// Conversation aggregate root (conversational loan origination)
// ---------------------------------------------------------------------------

// EmotionState is the last detected emotional signal.
type EmotionState struct {
	Primary    valueobject.Emotion `json:"primary"`
	Confidence float64             `json:"confidence"`
}

// LoanRequest carries what the customer asked for.
type LoanRequest struct {
	RequestedAmount float64 `json:"requested_amount,omitempty"`
	RequestedTenure int     `json:"requested_tenure,omitempty"`
	Purpose         string  `json:"purpose,omitempty"`
}

// Offer is the current priced offer. It is overwritten whenever the pricing
// inputs change so rate and EMI are never stale.
type Offer struct {
	Amount           float64 `json:"amount,omitempty"`
	Tenure           int     `json:"tenure,omitempty"`
	PersonalizedRate float64 `json:"personalized_rate,omitempty"`
	EMI              float64 `json:"emi,omitempty"`
	StandardRate     float64 `json:"standard_rate,omitempty"`
}

// KYCState tracks identity verification.
type KYCState struct {
	OTPStatus   string                        `json:"otp_status"` // "pending" or "verified"
	Verified    bool                          `json:"verified"`
	PhoneMask   string                        `json:"phone_mask,omitempty"`
	CRMSnapshot *valueobject.CustomerProfile  `json:"crm_snapshot,omitempty"`
}

// UnderwritingState carries the bureau snapshot and the last decision with
// its explainability trail.
type UnderwritingState struct {
	Bureau           *valueobject.BureauReport   `json:"bureau,omitempty"`
	PreApprovedLimit *float64                    `json:"pre_approved_limit,omitempty"`
	Explainability   *valueobject.Explainability `json:"explainability,omitempty"`
	Decision         *valueobject.Decision       `json:"decision,omitempty"`
}

// SalarySlip is the extracted salary document state.
type SalarySlip struct {
	FileID           string  `json:"file_id,omitempty"`
	NetMonthlySalary float64 `json:"net_monthly_salary,omitempty"`
	Confidence       float64 `json:"confidence,omitempty"`
}

// Sanction is the formal approval artifact.
type Sanction struct {
	SanctionNumber     string              `json:"sanction_number,omitempty"`
	PDFURL             string              `json:"pdf_url,omitempty"`
	ValidUntil         string              `json:"valid_until,omitempty"`
	ProcessingFee      float64             `json:"processing_fee,omitempty"`
	Accepted           bool                `json:"accepted,omitempty"`
	Disbursed          bool                `json:"disbursed,omitempty"`
	DisbursementAmount float64             `json:"disbursement_amount,omitempty"`
	DisbursementRef    string              `json:"disbursement_reference,omitempty"`
	DisbursedAt        *time.Time          `json:"disbursed_at,omitempty"`
	Schedule           []AmortizationEntry `json:"schedule,omitempty"`
}

// Flags holds journey-level boolean markers.
type Flags struct {
	NeedsHuman     bool `json:"needs_human"`
	FallbackNeeded bool `json:"fallback_needed"`
	Abandoned      bool `json:"abandoned"`
}

// Conversation is the per-conversation aggregate. The conversation id is
// immutable once assigned and is the sole identity of the state record.
type Conversation struct {
	ID           string             `json:"conversation_id"`
	CustomerID   string             `json:"customer_id,omitempty"`
	Language     string             `json:"language"`
	Stage        valueobject.Stage  `json:"stage"`
	LastIntent   valueobject.Intent `json:"last_intent,omitempty"`
	Emotion      EmotionState       `json:"emotion"`
	LoanRequest  LoanRequest        `json:"loan_request"`
	Offer        Offer              `json:"offer"`
	KYC          KYCState           `json:"kyc"`
	Underwriting UnderwritingState  `json:"underwriting"`
	SalarySlip   SalarySlip         `json:"salary_slip"`
	Sanction     Sanction           `json:"sanction"`
	Flags        Flags              `json:"flags"`
	AuditLog     []AuditEntry       `json:"audit_log"`
	Version      int                `json:"version"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`

	domainEvents []event.DomainEvent
}

// NewConversation creates a fresh conversation in the NEW stage, generating
// an id when the caller does not supply one.
func NewConversation(id, customerID, language string, now time.Time) *Conversation {
	if id == "" {
		id = uuid.New().String()
	}
	if language == "" {
		language = "en"
	}
	c := &Conversation{
		ID:         id,
		CustomerID: customerID,
		Language:   language,
		Stage:      valueobject.StageNew,
		KYC:        KYCState{OTPStatus: "pending"},
		Emotion:    EmotionState{Primary: valueobject.EmotionNeutral},
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	c.record(event.NewConversationStarted(id, customerID, language))
	return c
}

// ---------------------------------------------------------------------------
// State transitions
// ---------------------------------------------------------------------------

// AdvanceStage moves the conversation to the stage chosen by the stage
// router. Only the router's output may be passed here; no other component
// decides stages.
func (c *Conversation) AdvanceStage(next valueobject.Stage, now time.Time) {
	if next == c.Stage || next.IsZero() {
		return
	}
	c.record(event.NewStageChanged(c.ID, c.Stage.String(), next.String()))
	c.Stage = next
	c.UpdatedAt = now
}

// RefreshOffer overwrites the priced offer and mirrors the request inputs.
// Rate and EMI are recomputed by the caller whenever requested amount or
// tenure change; this method keeps them in lock-step on the state.
func (c *Conversation) RefreshOffer(amount float64, tenure int, personalizedRate, emi, standardRate float64, now time.Time) {
	c.LoanRequest.RequestedAmount = amount
	c.LoanRequest.RequestedTenure = tenure
	c.Offer = Offer{
		Amount:           amount,
		Tenure:           tenure,
		PersonalizedRate: personalizedRate,
		EMI:              emi,
		StandardRate:     standardRate,
	}
	c.UpdatedAt = now
}

// Classify persists the advisory intent and emotion signals. The intent is
// overwritten on every classified message, including with the empty
// no-match value, so a signal like escalate never outlives the message
// that carried it.
func (c *Conversation) Classify(intent valueobject.Intent, emotion valueobject.Emotion, confidence float64, now time.Time) {
	c.LastIntent = intent
	c.Emotion = EmotionState{Primary: emotion, Confidence: confidence}
	c.UpdatedAt = now
}

// MarkKYCVerified transitions the OTP status to verified.
func (c *Conversation) MarkKYCVerified(phoneMask string, now time.Time) {
	c.KYC.OTPStatus = "verified"
	c.KYC.Verified = true
	if phoneMask != "" {
		c.KYC.PhoneMask = phoneMask
	}
	c.UpdatedAt = now
}

// AttachProfile stores the CRM snapshot used for pricing, if not already set.
func (c *Conversation) AttachProfile(profile *valueobject.CustomerProfile, now time.Time) {
	if profile == nil || c.KYC.CRMSnapshot != nil {
		return
	}
	c.KYC.CRMSnapshot = profile
	if profile.PreApprovedLimit != nil {
		c.Underwriting.PreApprovedLimit = profile.PreApprovedLimit
	}
	c.UpdatedAt = now
}

// RecordBureau stores the bureau snapshot fetched during verification.
func (c *Conversation) RecordBureau(report valueobject.BureauReport, now time.Time) {
	c.Underwriting.Bureau = &report
	c.UpdatedAt = now
}

// RecordDecision stores the latest underwriting decision and, when present,
// its explainability trail. It also emits an UnderwritingDecided event.
func (c *Conversation) RecordDecision(decision valueobject.Decision, explain *valueobject.Explainability, now time.Time) {
	c.Underwriting.Decision = &decision
	if explain != nil {
		c.Underwriting.Explainability = explain
	}
	summary := decision.Reason
	if explain != nil && summary == "" {
		summary = explain.Summary
	}
	c.record(event.NewUnderwritingDecided(c.ID, string(decision.Kind), summary))
	c.UpdatedAt = now
}

// RecordSalarySlip stores the extracted salary document details.
func (c *Conversation) RecordSalarySlip(fileID string, netSalary, confidence float64, now time.Time) {
	c.SalarySlip = SalarySlip{
		FileID:           fileID,
		NetMonthlySalary: netSalary,
		Confidence:       confidence,
	}
	c.UpdatedAt = now
}

// AttachSanction stores a generated sanction artifact. The sanction number
// is assigned at most once: if one is already present the call is a no-op
// and the existing artifact remains authoritative.
func (c *Conversation) AttachSanction(s Sanction, now time.Time) Sanction {
	if c.Sanction.SanctionNumber != "" {
		return c.Sanction
	}
	c.Sanction = s
	c.record(event.NewSanctionIssued(c.ID, s.SanctionNumber, c.Offer.Amount, c.Offer.Tenure, c.Offer.PersonalizedRate))
	c.UpdatedAt = now
	return s
}

// MarkDisbursed records a disbursement against the sanction.
func (c *Conversation) MarkDisbursed(reference string, amount float64, now time.Time) error {
	if c.Sanction.SanctionNumber == "" {
		return valueobject.ErrInvalidStatusTransition
	}
	if c.Sanction.Disbursed {
		return nil
	}
	c.Sanction.Disbursed = true
	c.Sanction.DisbursementAmount = amount
	c.Sanction.DisbursementRef = reference
	t := now
	c.Sanction.DisbursedAt = &t
	c.record(event.NewLoanDisbursed(c.ID, reference, amount))
	c.UpdatedAt = now
	return nil
}

// AppendAudit appends one immutable entry to the evidence trail.
func (c *Conversation) AppendAudit(entry AuditEntry) {
	c.AuditLog = append(c.AuditLog, entry)
}

// ---------------------------------------------------------------------------
// Domain events
// ---------------------------------------------------------------------------

// DomainEvents returns the events recorded since the last ClearEvents.
func (c *Conversation) DomainEvents() []event.DomainEvent { return c.domainEvents }

// ClearEvents empties the pending event list (call after publishing).
func (c *Conversation) ClearEvents() { c.domainEvents = nil }

func (c *Conversation) record(evt event.DomainEvent) {
	c.domainEvents = append(c.domainEvents, evt)
}
