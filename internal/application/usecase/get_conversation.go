package usecase

import (
	"context"
	"fmt"

	"github.com/loanpilot/loanpilot/internal/domain/model"
	"github.com/loanpilot/loanpilot/internal/domain/port"
)

// GetConversationUseCase retrieves one conversation's full state.
type GetConversationUseCase struct {
	repo port.ConversationRepository
}

// NewGetConversationUseCase wires dependencies.
func NewGetConversationUseCase(repo port.ConversationRepository) *GetConversationUseCase {
	return &GetConversationUseCase{repo: repo}
}

// Execute loads the conversation by id.
func (uc *GetConversationUseCase) Execute(ctx context.Context, conversationID string) (*model.Conversation, error) {
	c, err := uc.repo.FindByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation %s: %w", conversationID, err)
	}
	return c, nil
}

// DeleteConversationUseCase removes a conversation's state, honoring
// data-erasure requests.
type DeleteConversationUseCase struct {
	repo port.ConversationRepository
}

// NewDeleteConversationUseCase wires dependencies.
func NewDeleteConversationUseCase(repo port.ConversationRepository) *DeleteConversationUseCase {
	return &DeleteConversationUseCase{repo: repo}
}

// Execute deletes the conversation by id.
func (uc *DeleteConversationUseCase) Execute(ctx context.Context, conversationID string) error {
	if err := uc.repo.Delete(ctx, conversationID); err != nil {
		return fmt.Errorf("delete conversation %s: %w", conversationID, err)
	}
	return nil
}
