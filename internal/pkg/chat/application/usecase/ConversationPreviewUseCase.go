package usecase

import (
	"context"
	"fmt"

	chat "conversa/internal/pkg/chat/application/domain"
	repository "conversa/internal/pkg/chat/persistence/repository/port"

	"github.com/google/uuid"
)

const (
	// previewLimit caps the number of messages pushed on connect.
	previewLimit = 10
	// previewThreshold decides has_more: "there exist more messages than
	// fit in a short preview", independent of the preview size.
	previewThreshold = 5
)

// ConversationPreview is the backlog snapshot pushed to a freshly connected
// client: the most recent messages newest-first, plus whether older history
// exists beyond a short preview.
type ConversationPreview struct {
	Messages []chat.Message
	HasMore  bool
}

// ConversationPreviewUseCase assembles the connect-time backlog preview.
type ConversationPreviewUseCase struct {
	Store repository.ChatStore
}

func NewConversationPreviewUseCase(store repository.ChatStore) *ConversationPreviewUseCase {
	return &ConversationPreviewUseCase{Store: store}
}

func (uc *ConversationPreviewUseCase) Execute(ctx context.Context, conversationID uuid.UUID) (ConversationPreview, error) {
	messages, err := uc.Store.RecentMessages(ctx, conversationID, previewLimit)
	if err != nil {
		return ConversationPreview{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	total, err := uc.Store.MessageCount(ctx, conversationID)
	if err != nil {
		return ConversationPreview{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return ConversationPreview{Messages: messages, HasMore: total > previewThreshold}, nil
}
