package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loanpilot/loanpilot/internal/domain/event"
	"github.com/loanpilot/loanpilot/internal/domain/valueobject"
)

func TestNewConversation(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	c := NewConversation("conv-1", "CUST001", "en", now)

	assert.Equal(t, "conv-1", c.ID)
	assert.Equal(t, "CUST001", c.CustomerID)
	assert.Equal(t, valueobject.StageNew, c.Stage)
	assert.Equal(t, "pending", c.KYC.OTPStatus)
	assert.Equal(t, 1, c.Version)

	events := c.DomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "origination.conversation.started", events[0].EventType())
	assert.Equal(t, "conv-1", events[0].AggregateID())
}

func TestNewConversation_GeneratesIDAndLanguage(t *testing.T) {
	c := NewConversation("", "CUST001", "", time.Now())
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "en", c.Language)
}

func TestConversation_AdvanceStage(t *testing.T) {
	now := time.Now().UTC()
	c := NewConversation("conv-1", "CUST001", "en", now)
	c.ClearEvents()

	c.AdvanceStage(valueobject.StageGreeting, now)
	assert.Equal(t, valueobject.StageGreeting, c.Stage)

	events := c.DomainEvents()
	require.Len(t, events, 1)
	changed, ok := events[0].(event.StageChanged)
	require.True(t, ok)
	assert.Equal(t, "NEW", changed.From)
	assert.Equal(t, "GREETING", changed.To)
}

func TestConversation_AdvanceStage_SameStageIsNoOp(t *testing.T) {
	now := time.Now().UTC()
	c := NewConversation("conv-1", "CUST001", "en", now)
	c.AdvanceStage(valueobject.StageGreeting, now)
	c.ClearEvents()

	c.AdvanceStage(valueobject.StageGreeting, now)
	assert.Empty(t, c.DomainEvents())
}

func TestConversation_RefreshOffer(t *testing.T) {
	now := time.Now().UTC()
	c := NewConversation("conv-1", "CUST001", "en", now)

	c.RefreshOffer(500_000, 36, 10.2, 16178.06, 11.5, now)

	assert.Equal(t, 500_000.0, c.LoanRequest.RequestedAmount)
	assert.Equal(t, 36, c.LoanRequest.RequestedTenure)
	assert.Equal(t, 10.2, c.Offer.PersonalizedRate)
	assert.Equal(t, 16178.06, c.Offer.EMI)
	assert.Equal(t, 11.5, c.Offer.StandardRate)
}

func TestConversation_AttachSanction_Idempotent(t *testing.T) {
	now := time.Now().UTC()
	c := NewConversation("conv-1", "CUST001", "en", now)
	c.RefreshOffer(500_000, 36, 10.2, 16178.06, 11.5, now)
	c.ClearEvents()

	first := c.AttachSanction(Sanction{
		SanctionNumber: "SL/20250301/CUST001",
		PDFURL:         "https://docs.example.com/sanction/conv-1.pdf",
	}, now)
	assert.Equal(t, "SL/20250301/CUST001", first.SanctionNumber)
	require.Len(t, c.DomainEvents(), 1)

	// A second attach returns the existing artifact unchanged.
	second := c.AttachSanction(Sanction{SanctionNumber: "SL/20250302/CUST001"}, now)
	assert.Equal(t, "SL/20250301/CUST001", second.SanctionNumber)
	assert.Equal(t, "SL/20250301/CUST001", c.Sanction.SanctionNumber)
	assert.Len(t, c.DomainEvents(), 1)
}

func TestConversation_MarkDisbursed(t *testing.T) {
	now := time.Now().UTC()
	c := NewConversation("conv-1", "CUST001", "en", now)

	t.Run("without sanction", func(t *testing.T) {
		err := c.MarkDisbursed("UTR123", 495_000, now)
		assert.ErrorIs(t, err, valueobject.ErrInvalidStatusTransition)
	})

	t.Run("after sanction", func(t *testing.T) {
		c.AttachSanction(Sanction{SanctionNumber: "SL/20250301/CUST001"}, now)
		c.ClearEvents()

		err := c.MarkDisbursed("UTR123", 495_000, now)
		require.NoError(t, err)
		assert.True(t, c.Sanction.Disbursed)
		assert.Equal(t, "UTR123", c.Sanction.DisbursementRef)
		require.Len(t, c.DomainEvents(), 1)

		// Repeat disbursement is a no-op.
		c.ClearEvents()
		err = c.MarkDisbursed("UTR456", 495_000, now)
		require.NoError(t, err)
		assert.Equal(t, "UTR123", c.Sanction.DisbursementRef)
		assert.Empty(t, c.DomainEvents())
	})
}

func TestConversation_RecordDecisionAndAudit(t *testing.T) {
	now := time.Now().UTC()
	c := NewConversation("conv-1", "CUST001", "en", now)
	c.ClearEvents()

	c.RecordDecision(valueobject.Decision{
		Kind:       valueobject.DecisionInstantApprove,
		DTIPercent: 22.5,
	}, &valueobject.Explainability{
		Decision: string(valueobject.DecisionInstantApprove),
		Summary:  "all gates passed",
	}, now)

	require.NotNil(t, c.Underwriting.Decision)
	assert.Equal(t, valueobject.DecisionInstantApprove, c.Underwriting.Decision.Kind)
	require.Len(t, c.DomainEvents(), 1)

	c.AppendAudit(AuditEntry{Timestamp: now, Actor: "underwriting_agent", Action: "decision"})
	c.AppendAudit(AuditEntry{Timestamp: now, Actor: "sanction_agent", Action: "sanction"})
	assert.Len(t, c.AuditLog, 2)
	assert.Equal(t, "underwriting_agent", c.AuditLog[0].Actor)
}

func TestConversation_Classify(t *testing.T) {
	now := time.Now().UTC()
	c := NewConversation("conv-1", "CUST001", "en", now)

	c.Classify(valueobject.IntentAskLoan, valueobject.EmotionAnxiety, 0.5, now)
	assert.Equal(t, valueobject.IntentAskLoan, c.LastIntent)
	assert.Equal(t, valueobject.EmotionAnxiety, c.Emotion.Primary)

	// A no-match classification clears the previous intent; emotion
	// always updates.
	c.Classify("", valueobject.EmotionNeutral, 0, now)
	assert.Equal(t, valueobject.Intent(""), c.LastIntent)
	assert.Equal(t, valueobject.EmotionNeutral, c.Emotion.Primary)
}

func TestConversation_Classify_IntentDoesNotOutliveMessage(t *testing.T) {
	now := time.Now().UTC()
	c := NewConversation("conv-1", "CUST001", "en", now)

	c.Classify(valueobject.IntentEscalate, valueobject.EmotionAnger, 0.8, now)
	assert.Equal(t, valueobject.IntentEscalate, c.LastIntent)

	c.Classify("", valueobject.EmotionNeutral, 1.0, now)
	assert.Equal(t, valueobject.Intent(""), c.LastIntent,
		"escalate must not survive a later message that matches no keyword")
}
