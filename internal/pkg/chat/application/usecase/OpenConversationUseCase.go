package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "conversa/internal/pkg/chat/application/domain"
	repository "conversa/internal/pkg/chat/persistence/repository/port"
)

// OpenConversationUseCase resolves a conversation name to its conversation,
// creating it on first reference. Idempotent on name.
// Hexagonal: depends on the store port only.
type OpenConversationUseCase struct {
	Store repository.ChatStore
}

func NewOpenConversationUseCase(store repository.ChatStore) *OpenConversationUseCase {
	return &OpenConversationUseCase{Store: store}
}

func (uc *OpenConversationUseCase) Execute(ctx context.Context, name string) (chat.Conversation, error) {
	if name == "" {
		return chat.Conversation{}, chat.ErrBadConversationName
	}
	conv, err := uc.Store.GetOrCreateConversation(ctx, name)
	if errors.Is(err, chat.ErrBadConversationName) {
		return chat.Conversation{}, err
	}
	if err != nil {
		return chat.Conversation{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return conv, nil
}
