package usecase

import (
	"context"
	"fmt"

	chat "conversa/internal/pkg/chat/application/domain"
	repository "conversa/internal/pkg/chat/persistence/repository/port"
	users "conversa/internal/repository/port"
)

// SendMessageInput carries the data needed to send a new message. The
// recipient is not part of the input: it is always the other participant of
// the conversation, resolved from the stored pair.
type SendMessageInput struct {
	Conversation chat.Conversation
	Sender       chat.User
	Content      string
}

// SendMessageUseCase persists one message for a conversation.
// Hexagonal: depends on the store and identity ports, returns the domain
// entity with its store-assigned id and timestamp.
type SendMessageUseCase struct {
	Store repository.ChatStore
	Users users.UserRepository
}

func NewSendMessageUseCase(store repository.ChatStore, userRepo users.UserRepository) *SendMessageUseCase {
	return &SendMessageUseCase{Store: store, Users: userRepo}
}

// Execute validates, resolves the recipient and persists the message.
// chat.ErrNotParticipant means the sender is not part of the conversation's
// stored pair; the caller drops the message without broadcasting anything.
func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (chat.Message, error) {
	recipientName, err := in.Conversation.Other(in.Sender.Username)
	if err != nil {
		return chat.Message{}, err
	}

	recipient, err := uc.Users.FindByUsername(ctx, recipientName)
	if err != nil {
		return chat.Message{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	msg, err := chat.NewMessage(in.Conversation, in.Sender, recipient, in.Content)
	if err != nil {
		return chat.Message{}, err
	}

	saved, err := uc.Store.SaveMessage(ctx, msg)
	if err != nil {
		return chat.Message{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return saved, nil
}
