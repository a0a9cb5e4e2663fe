package session

import (
	"context"
	"log/slog"

	"conversa/internal/infrastructure/backplane/port"
	chat "conversa/internal/pkg/chat/application/domain"
)

// PublishMessage fans out one persisted message: a chat_message_echo to the
// conversation group and a new_message_notification to the recipient's
// private notification group. The notification publish is fire-and-forget:
// if the recipient has no connected sessions the backplane drops it
// silently, and the recipient catches up through the unread count on next
// connect. Durability of unread state is the store's responsibility, never
// the backplane's.
//
// Callers must only pass messages that were actually persisted.
func PublishMessage(ctx context.Context, bp port.Backplane, conversationName string, m chat.Message, log *slog.Logger) {
	if payload, err := EncodeOutbound(NewChatMessageEcho(m)); err == nil {
		if err := bp.Publish(ctx, conversationName, payload); err != nil {
			log.Error("echo publish failed", "conversation", conversationName, "error", err)
		}
	}

	if payload, err := EncodeOutbound(NewNewMessageNotification(conversationName, m)); err == nil {
		if err := bp.Publish(ctx, chat.NotificationGroup(m.To.Username), payload); err != nil {
			log.Error("notification publish failed", "recipient", m.To.Username, "error", err)
		}
	}
}
