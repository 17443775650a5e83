package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/loanpilot/loanpilot/internal/domain/model"
	"github.com/loanpilot/loanpilot/internal/domain/valueobject"
)

// ConversationStore is an in-process conversation repository. It backs unit
// tests and serves as the degraded-mode cache behind the durable store.
// Documents are stored as serialized JSON so callers never share mutable
// state through the map.
type ConversationStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewConversationStore creates an empty store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{docs: make(map[string][]byte)}
}

// Save stores a deep copy of the state document.
func (s *ConversationStore) Save(_ context.Context, c *model.Conversation) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	s.mu.Lock()
	s.docs[c.ID] = doc
	s.mu.Unlock()
	return nil
}

// FindByID returns a fresh copy of the stored state document.
func (s *ConversationStore) FindByID(_ context.Context, conversationID string) (*model.Conversation, error) {
	s.mu.RLock()
	doc, ok := s.docs[conversationID]
	s.mu.RUnlock()
	if !ok {
		return nil, valueobject.ErrConversationNotFound
	}
	var c model.Conversation
	if err := json.Unmarshal(doc, &c); err != nil {
		return nil, fmt.Errorf("unmarshal conversation: %w", err)
	}
	return &c, nil
}

// Delete removes the document. Unknown ids are not an error.
func (s *ConversationStore) Delete(_ context.Context, conversationID string) error {
	s.mu.Lock()
	delete(s.docs, conversationID)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored conversations.
func (s *ConversationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
