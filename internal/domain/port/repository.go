package port

import (
	"context"
	"time"

	"github.com/loanpilot/loanpilot/internal/domain/event"
	"github.com/loanpilot/loanpilot/internal/domain/model"
	"github.com/loanpilot/loanpilot/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// Repository ports (driven/secondary adapters)
// ---------------------------------------------------------------------------

// ConversationRepository persists and retrieves conversation state.
type ConversationRepository interface {
	FindByID(ctx context.Context, conversationID string) (*model.Conversation, error)
	Save(ctx context.Context, c *model.Conversation) error
	Delete(ctx context.Context, conversationID string) error
}

// OTPStore holds short-lived one-time passwords keyed by conversation.
type OTPStore interface {
	Put(ctx context.Context, conversationID, code string, ttl time.Duration) error
	Get(ctx context.Context, conversationID string) (string, error)
	Invalidate(ctx context.Context, conversationID string) error
}

// ---------------------------------------------------------------------------
// Event publisher port
// ---------------------------------------------------------------------------

// EventPublisher publishes domain events to external consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.DomainEvent) error
}

// ---------------------------------------------------------------------------
// External service ports
// ---------------------------------------------------------------------------

// CRMClient resolves customer profiles. Implementations return a default
// profile rather than an error when the customer is unknown.
type CRMClient interface {
	GetCustomerProfile(ctx context.Context, customerID string) (*valueobject.CustomerProfile, error)
}

// CreditBureauClient fetches a bureau snapshot for one identifier.
type CreditBureauClient interface {
	FetchReport(ctx context.Context, identifier string) (*valueobject.BureauReport, error)
}

// SalarySlipExtractor runs document extraction over an uploaded salary slip.
type SalarySlipExtractor interface {
	ExtractSalarySlip(ctx context.Context, document []byte) (netMonthlySalary, confidence float64, err error)
}

// Notifier dispatches customer notifications. Calls are best-effort; a
// failed dispatch never fails the surrounding turn.
type Notifier interface {
	Notify(ctx context.Context, customerID, channel, message string) error
}

// TextGenerator phrases user-facing messages. Callers must tolerate
// failure and fall back to deterministic templates.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	ModelVersion() string
}
