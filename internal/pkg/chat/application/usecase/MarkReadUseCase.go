package usecase

import (
	"context"
	"fmt"

	repository "conversa/internal/pkg/chat/persistence/repository/port"

	"github.com/google/uuid"
)

// MarkReadUseCase flips the read flag on every message addressed to the
// reader in one conversation.
type MarkReadUseCase struct {
	Store repository.ChatStore
}

func NewMarkReadUseCase(store repository.ChatStore) *MarkReadUseCase {
	return &MarkReadUseCase{Store: store}
}

func (uc *MarkReadUseCase) Execute(ctx context.Context, conversationID uuid.UUID, username string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if err := uc.Store.MarkRead(ctx, conversationID, username); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}
