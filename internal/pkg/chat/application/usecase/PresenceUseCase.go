package usecase

import (
	"context"
	"fmt"

	repository "conversa/internal/pkg/chat/persistence/repository/port"

	"github.com/google/uuid"
)

// PresenceUseCase mutates and reads a conversation's transient online set.
// Join and Leave are idempotent; the set is the source of truth for the
// online_user_list pushed to clients.
type PresenceUseCase struct {
	Store repository.ChatStore
}

func NewPresenceUseCase(store repository.ChatStore) *PresenceUseCase {
	return &PresenceUseCase{Store: store}
}

func (uc *PresenceUseCase) Join(ctx context.Context, conversationID uuid.UUID, username string) error {
	if err := uc.Store.AddOnline(ctx, conversationID, username); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func (uc *PresenceUseCase) Leave(ctx context.Context, conversationID uuid.UUID, username string) error {
	if err := uc.Store.RemoveOnline(ctx, conversationID, username); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

func (uc *PresenceUseCase) Online(ctx context.Context, conversationID uuid.UUID) ([]string, error) {
	users, err := uc.Store.OnlineUsers(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return users, nil
}
