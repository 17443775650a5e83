package valueobject

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Stage – position in the loan-journey conversation state machine
// ---------------------------------------------------------------------------

// Stage identifies a discrete position in the conversation's loan journey.
// It is stored inside the conversation state document, so it serializes as
// its string value.
type Stage string

const (
	StageNew             Stage = "NEW"
	StageGreeting        Stage = "GREETING"
	StageSales           Stage = "SALES"
	StageVerification    Stage = "VERIFICATION"
	StageDocumentUpload  Stage = "DOCUMENT_UPLOAD"
	StageUnderwriting    Stage = "UNDERWRITING"
	StageSanction        Stage = "SANCTION"
	StageGamification    Stage = "GAMIFICATION"
	StageEcosystemOffers Stage = "ECOSYSTEM_OFFERS"
	StageCompleted       Stage = "COMPLETED"
	StageRejected        Stage = "REJECTED"
)

var validStages = map[Stage]struct{}{
	StageNew: {}, StageGreeting: {}, StageSales: {}, StageVerification: {},
	StageDocumentUpload: {}, StageUnderwriting: {}, StageSanction: {},
	StageGamification: {}, StageEcosystemOffers: {}, StageCompleted: {},
	StageRejected: {},
}

// ParseStage converts a raw string into a Stage.
func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	if _, ok := validStages[st]; !ok {
		return "", fmt.Errorf("invalid stage: %q", s)
	}
	return st, nil
}

// String returns the string representation.
func (s Stage) String() string { return string(s) }

// IsZero reports whether the stage is unset (before the first turn).
func (s Stage) IsZero() bool { return s == "" }

// Terminal reports whether the stage ends the journey.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageRejected
}

// ---------------------------------------------------------------------------
// Action – the UI-facing next action derived from stage + data completeness
// ---------------------------------------------------------------------------

// Action tells the caller what the conversation needs next.
type Action string

const (
	ActionContinue          Action = "continue"
	ActionRequestOTP        Action = "request_otp"
	ActionRequestUpload     Action = "request_upload"
	ActionProcessSalarySlip Action = "process_salary_slip"
	ActionManualReview      Action = "manual_review"
	ActionHumanHandoff      Action = "human_handoff"
	ActionEnd               Action = "end"
)

// ---------------------------------------------------------------------------
// System events accepted by the stage router
// ---------------------------------------------------------------------------

const (
	EventOTPVerified       = "otp_verified"
	EventDocumentUploaded  = "document_uploaded"
	EventSanctionGenerated = "sanction_generated"
	EventLoanDisbursed     = "loan_disbursed"
)

// Sentinel errors shared by the domain layer.
var (
	ErrConversationNotFound    = errors.New("conversation not found")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)
