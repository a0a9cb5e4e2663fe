package usecase

import (
	"context"
	"fmt"

	repository "conversa/internal/pkg/chat/persistence/repository/port"
)

// UnreadCountUseCase counts unread messages addressed to a user across all
// conversations. Pushed once on notification connect; live increments are
// the client's business as new_message_notification events arrive.
type UnreadCountUseCase struct {
	Store repository.ChatStore
}

func NewUnreadCountUseCase(store repository.ChatStore) *UnreadCountUseCase {
	return &UnreadCountUseCase{Store: store}
}

func (uc *UnreadCountUseCase) Execute(ctx context.Context, username string) (int, error) {
	if username == "" {
		return 0, fmt.Errorf("username is required")
	}
	n, err := uc.Store.UnreadCount(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return n, nil
}
