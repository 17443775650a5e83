package persistence

import (
	"context"
	"errors"
	"log/slog"

	"github.com/loanpilot/loanpilot/internal/domain/model"
	"github.com/loanpilot/loanpilot/internal/domain/port"
	"github.com/loanpilot/loanpilot/internal/domain/valueobject"
)

// TieredStore layers an in-process cache behind a durable repository. The
// durable store is authoritative: reads and writes go there first, and the
// cache is consulted only when the durable read itself fails (not on a
// simple miss). Every successful durable write refreshes the cache so a
// later outage serves recent state.
type TieredStore struct {
	durable port.ConversationRepository
	cache   port.ConversationRepository
	logger  *slog.Logger
}

// NewTieredStore wires the two tiers.
func NewTieredStore(durable, cache port.ConversationRepository, logger *slog.Logger) *TieredStore {
	return &TieredStore{durable: durable, cache: cache, logger: logger}
}

// Save writes through to the durable store, then mirrors into the cache.
// A cache write failure is logged and swallowed; a durable failure is the
// one hard error a turn cannot survive.
func (s *TieredStore) Save(ctx context.Context, c *model.Conversation) error {
	if err := s.durable.Save(ctx, c); err != nil {
		return err
	}
	if err := s.cache.Save(ctx, c); err != nil {
		s.logger.Warn("cache save failed", "conversation_id", c.ID, "error", err)
	}
	return nil
}

// FindByID reads from the durable store, falling back to the cache only on
// durable-store failure.
func (s *TieredStore) FindByID(ctx context.Context, conversationID string) (*model.Conversation, error) {
	c, err := s.durable.FindByID(ctx, conversationID)
	if err == nil || errors.Is(err, valueobject.ErrConversationNotFound) {
		return c, err
	}
	s.logger.Warn("durable read failed, trying cache",
		"conversation_id", conversationID, "error", err)
	return s.cache.FindByID(ctx, conversationID)
}

// Delete removes the record from both tiers.
func (s *TieredStore) Delete(ctx context.Context, conversationID string) error {
	if err := s.cache.Delete(ctx, conversationID); err != nil {
		s.logger.Warn("cache delete failed", "conversation_id", conversationID, "error", err)
	}
	return s.durable.Delete(ctx, conversationID)
}
