package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/loanpilot/loanpilot/internal/domain/model"
	"github.com/loanpilot/loanpilot/internal/domain/valueobject"
)

func TestStageRouter_DetermineStage(t *testing.T) {
	router := NewStageRouter()

	tests := []struct {
		name    string
		current valueobject.Stage
		event   string
		want    valueobject.Stage
	}{
		{"otp verified", valueobject.StageVerification, valueobject.EventOTPVerified, valueobject.StageUnderwriting},
		{"document uploaded", valueobject.StageDocumentUpload, valueobject.EventDocumentUploaded, valueobject.StageUnderwriting},
		{"sanction generated", valueobject.StageUnderwriting, valueobject.EventSanctionGenerated, valueobject.StageSanction},
		{"loan disbursed", valueobject.StageSanction, valueobject.EventLoanDisbursed, valueobject.StageCompleted},
		{"unknown event holds stage", valueobject.StageGreeting, "something_else", valueobject.StageGreeting},
		{"no event holds stage", valueobject.StageVerification, "", valueobject.StageVerification},
		{"unset stage defaults to sales", "", "", valueobject.StageSales},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, router.DetermineStage(tt.current, tt.event))
		})
	}
}

func TestStageRouter_NextAction(t *testing.T) {
	router := NewStageRouter()
	now := time.Now().UTC()

	t.Run("verification without otp", func(t *testing.T) {
		c := model.NewConversation("c1", "CUST001", "en", now)
		assert.Equal(t, valueobject.ActionRequestOTP, router.NextAction(valueobject.StageVerification, c))
	})

	t.Run("verification with otp", func(t *testing.T) {
		c := model.NewConversation("c1", "CUST001", "en", now)
		c.MarkKYCVerified("", now)
		assert.Equal(t, valueobject.ActionContinue, router.NextAction(valueobject.StageVerification, c))
	})

	t.Run("document upload without file", func(t *testing.T) {
		c := model.NewConversation("c1", "CUST001", "en", now)
		assert.Equal(t, valueobject.ActionRequestUpload, router.NextAction(valueobject.StageDocumentUpload, c))
	})

	t.Run("underwriting without decision", func(t *testing.T) {
		c := model.NewConversation("c1", "CUST001", "en", now)
		assert.Equal(t, valueobject.ActionProcessSalarySlip, router.NextAction(valueobject.StageUnderwriting, c))
	})

	t.Run("sanction without number", func(t *testing.T) {
		c := model.NewConversation("c1", "CUST001", "en", now)
		assert.Equal(t, valueobject.ActionManualReview, router.NextAction(valueobject.StageSanction, c))
	})

	t.Run("sanction with number", func(t *testing.T) {
		c := model.NewConversation("c1", "CUST001", "en", now)
		c.AttachSanction(model.Sanction{SanctionNumber: "SL/20250301/CUST001"}, now)
		assert.Equal(t, valueobject.ActionContinue, router.NextAction(valueobject.StageSanction, c))
	})

	t.Run("terminal stages end", func(t *testing.T) {
		c := model.NewConversation("c1", "CUST001", "en", now)
		assert.Equal(t, valueobject.ActionEnd, router.NextAction(valueobject.StageCompleted, c))
		assert.Equal(t, valueobject.ActionEnd, router.NextAction(valueobject.StageRejected, c))
	})

	t.Run("needs human outranks everything", func(t *testing.T) {
		c := model.NewConversation("c1", "CUST001", "en", now)
		c.Flags.NeedsHuman = true
		assert.Equal(t, valueobject.ActionHumanHandoff, router.NextAction(valueobject.StageVerification, c))
		assert.Equal(t, valueobject.ActionHumanHandoff, router.NextAction(valueobject.StageCompleted, c))
	})
}

func TestStageRouter_WorkerForStage(t *testing.T) {
	router := NewStageRouter()

	assert.Equal(t, "sales_agent", router.WorkerForStage(valueobject.StageSales))
	assert.Equal(t, "verification_agent", router.WorkerForStage(valueobject.StageVerification))
	assert.Equal(t, "ocr_agent", router.WorkerForStage(valueobject.StageDocumentUpload))
	assert.Equal(t, "underwriting_agent", router.WorkerForStage(valueobject.StageUnderwriting))
	assert.Equal(t, "sanction_agent", router.WorkerForStage(valueobject.StageSanction))
	assert.Equal(t, "analytics", router.WorkerForStage(valueobject.StageCompleted))
	assert.Equal(t, "sales_agent", router.WorkerForStage("UNKNOWN"), "fallback worker")
}
