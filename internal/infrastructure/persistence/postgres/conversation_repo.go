package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loanpilot/loanpilot/internal/domain/model"
	"github.com/loanpilot/loanpilot/internal/domain/valueobject"
)

const (
	saveAttempts = 3
	retryBackoff = 50 * time.Millisecond
)

// ConversationRepo implements port.ConversationRepository on PostgreSQL.
// The full state document is stored as JSONB; the id column is the only
// relational key. Writes retry with backoff before surfacing an error.
type ConversationRepo struct {
	pool *pgxpool.Pool
}

// NewConversationRepo creates a new PostgreSQL-backed conversation store.
func NewConversationRepo(pool *pgxpool.Pool) *ConversationRepo {
	return &ConversationRepo{pool: pool}
}

// Save upserts the full state document, bumping the stored version.
func (r *ConversationRepo) Save(ctx context.Context, c *model.Conversation) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}

	query := `
		INSERT INTO conversations (id, customer_id, stage, state, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			customer_id = EXCLUDED.customer_id,
			stage       = EXCLUDED.stage,
			state       = EXCLUDED.state,
			version     = conversations.version + 1,
			updated_at  = EXCLUDED.updated_at
	`

	var lastErr error
	for attempt := 0; attempt < saveAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff << attempt):
			}
		}
		_, lastErr = r.pool.Exec(ctx, query,
			c.ID, c.CustomerID, c.Stage.String(), doc,
			c.Version, c.CreatedAt, c.UpdatedAt,
		)
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("save conversation after %d attempts: %w", saveAttempts, lastErr)
}

// FindByID loads one state document.
func (r *ConversationRepo) FindByID(ctx context.Context, conversationID string) (*model.Conversation, error) {
	var doc []byte
	err := r.pool.QueryRow(ctx,
		`SELECT state FROM conversations WHERE id = $1`, conversationID,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, valueobject.ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	var c model.Conversation
	if err := json.Unmarshal(doc, &c); err != nil {
		return nil, fmt.Errorf("unmarshal conversation: %w", err)
	}
	return &c, nil
}

// Delete removes the state document. Deleting an unknown id is not an error.
func (r *ConversationRepo) Delete(ctx context.Context, conversationID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM conversations WHERE id = $1`, conversationID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}
