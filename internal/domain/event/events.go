package event

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is the interface all origination domain events implement.
type DomainEvent interface {
	EventID() string
	EventType() string
	AggregateID() string
	OccurredAt() time.Time
}

// BaseEvent provides the common identity fields of a domain event.
type BaseEvent struct {
	ID          string    `json:"event_id"`
	Type        string    `json:"event_type"`
	Aggregate   string    `json:"aggregate_id"`
	OccurredAtT time.Time `json:"occurred_at"`
}

// NewBaseEvent creates a BaseEvent with a generated id and the current time.
func NewBaseEvent(eventType, aggregateID string) BaseEvent {
	return BaseEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Aggregate:   aggregateID,
		OccurredAtT: time.Now().UTC(),
	}
}

func (e BaseEvent) EventID() string       { return e.ID }
func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) AggregateID() string   { return e.Aggregate }
func (e BaseEvent) OccurredAt() time.Time { return e.OccurredAtT }

// ---------------------------------------------------------------------------
// Conversation events
// ---------------------------------------------------------------------------

// ConversationStarted is raised when a conversation is created on its first turn.
type ConversationStarted struct {
	BaseEvent
	CustomerID string `json:"customer_id,omitempty"`
	Language   string `json:"language"`
}

func NewConversationStarted(conversationID, customerID, language string) ConversationStarted {
	return ConversationStarted{
		BaseEvent:  NewBaseEvent("origination.conversation.started", conversationID),
		CustomerID: customerID,
		Language:   language,
	}
}

// StageChanged is raised whenever the stage router advances a conversation.
type StageChanged struct {
	BaseEvent
	From string `json:"from"`
	To   string `json:"to"`
}

func NewStageChanged(conversationID, from, to string) StageChanged {
	return StageChanged{
		BaseEvent: NewBaseEvent("origination.conversation.stage_changed", conversationID),
		From:      from,
		To:        to,
	}
}

// ---------------------------------------------------------------------------
// Underwriting and sanction events
// ---------------------------------------------------------------------------

// UnderwritingDecided is raised when a rule-engine decision is recorded.
type UnderwritingDecided struct {
	BaseEvent
	Decision string `json:"decision"`
	Summary  string `json:"summary,omitempty"`
}

func NewUnderwritingDecided(conversationID, decision, summary string) UnderwritingDecided {
	return UnderwritingDecided{
		BaseEvent: NewBaseEvent("origination.underwriting.decided", conversationID),
		Decision:  decision,
		Summary:   summary,
	}
}

// SanctionIssued is raised when a sanction letter is generated.
type SanctionIssued struct {
	BaseEvent
	SanctionNumber string  `json:"sanction_number"`
	Amount         float64 `json:"amount"`
	TenureMonths   int     `json:"tenure_months"`
	Rate           float64 `json:"rate"`
}

func NewSanctionIssued(conversationID, sanctionNumber string, amount float64, tenureMonths int, rate float64) SanctionIssued {
	return SanctionIssued{
		BaseEvent:      NewBaseEvent("origination.sanction.issued", conversationID),
		SanctionNumber: sanctionNumber,
		Amount:         amount,
		TenureMonths:   tenureMonths,
		Rate:           rate,
	}
}

// LoanDisbursed is raised when funds are released against a sanction.
type LoanDisbursed struct {
	BaseEvent
	Reference string  `json:"disbursement_reference"`
	Amount    float64 `json:"amount"`
}

func NewLoanDisbursed(conversationID, reference string, amount float64) LoanDisbursed {
	return LoanDisbursed{
		BaseEvent: NewBaseEvent("origination.loan.disbursed", conversationID),
		Reference: reference,
		Amount:    amount,
	}
}
