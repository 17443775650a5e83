package service

import (
	"github.com/loanpilot/loanpilot/internal/domain/model"
	"github.com/loanpilot/loanpilot/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// StageRouter – event-driven stage transitions and action derivation
// ---------------------------------------------------------------------------

// StageRouter owns every stage change: the transition table is the
// authoritative override when an explicit system event accompanies a turn,
// and the turn controller consults it for intent-driven moves within a
// stage.
type StageRouter struct{}

// NewStageRouter returns a new router instance.
func NewStageRouter() *StageRouter {
	return &StageRouter{}
}

var workerByStage = map[valueobject.Stage]string{
	valueobject.StageGreeting:        "sales_agent",
	valueobject.StageSales:           "sales_agent",
	valueobject.StageVerification:    "verification_agent",
	valueobject.StageDocumentUpload:  "ocr_agent",
	valueobject.StageUnderwriting:    "underwriting_agent",
	valueobject.StageSanction:        "sanction_agent",
	valueobject.StageGamification:    "gamification_engine",
	valueobject.StageEcosystemOffers: "offer_catalog",
	valueobject.StageCompleted:       "analytics",
	valueobject.StageRejected:        "analytics",
}

// DetermineStage applies the event transition table. An unrecognized or
// empty event holds the current stage, defaulting to SALES when unset.
func (r *StageRouter) DetermineStage(current valueobject.Stage, systemEvent string) valueobject.Stage {
	if current.IsZero() {
		current = valueobject.StageSales
	}
	switch systemEvent {
	case valueobject.EventOTPVerified:
		return valueobject.StageUnderwriting
	case valueobject.EventDocumentUploaded:
		return valueobject.StageUnderwriting
	case valueobject.EventSanctionGenerated:
		return valueobject.StageSanction
	case valueobject.EventLoanDisbursed:
		return valueobject.StageCompleted
	}
	return current
}

// NextAction derives the UI-facing action from the stage and data
// completeness.
func (r *StageRouter) NextAction(stage valueobject.Stage, c *model.Conversation) valueobject.Action {
	// An escalated conversation routes to a human even when it has already
	// closed; the handoff outranks the terminal end action.
	if c.Flags.NeedsHuman {
		return valueobject.ActionHumanHandoff
	}
	if stage.Terminal() {
		return valueobject.ActionEnd
	}
	switch {
	case stage == valueobject.StageVerification && c.KYC.OTPStatus != "verified":
		return valueobject.ActionRequestOTP
	case stage == valueobject.StageDocumentUpload && c.SalarySlip.FileID == "":
		return valueobject.ActionRequestUpload
	case stage == valueobject.StageUnderwriting && c.Underwriting.Decision == nil:
		return valueobject.ActionProcessSalarySlip
	case stage == valueobject.StageSanction && c.Sanction.SanctionNumber == "":
		return valueobject.ActionManualReview
	}
	return valueobject.ActionContinue
}

// WorkerForStage names the logical component responsible for stage-specific
// content. Used for observability and response attribution only.
func (r *StageRouter) WorkerForStage(stage valueobject.Stage) string {
	if worker, ok := workerByStage[stage]; ok {
		return worker
	}
	return "sales_agent"
}
