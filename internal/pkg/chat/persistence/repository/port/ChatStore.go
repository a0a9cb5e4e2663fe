package repository

import (
	"context"

	chat "conversa/internal/pkg/chat/application/domain"

	"github.com/google/uuid"
)

// ChatStore defines persistence operations for the chat domain.
// Implementations own their internal consistency: GetOrCreateConversation
// must be atomic under concurrent calls for the same name, and online-set
// mutations must tolerate concurrent sessions.
type ChatStore interface {
	// GetOrCreateConversation resolves name to its conversation, creating it
	// on first reference. Repeated calls with the same name return the same
	// conversation.
	GetOrCreateConversation(ctx context.Context, name string) (chat.Conversation, error)

	// SaveMessage persists m, assigning its ID and Timestamp. Timestamps are
	// monotonically non-decreasing within a conversation.
	SaveMessage(ctx context.Context, m chat.Message) (chat.Message, error)

	// RecentMessages returns up to limit messages ordered newest-first.
	RecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]chat.Message, error)

	// MessageCount returns the total number of messages in the conversation.
	MessageCount(ctx context.Context, conversationID uuid.UUID) (int, error)

	// UnreadCount counts messages addressed to username that are still unread,
	// across all conversations.
	UnreadCount(ctx context.Context, username string) (int, error)

	// MarkRead flips the read flag on all messages addressed to username in
	// the conversation.
	MarkRead(ctx context.Context, conversationID uuid.UUID, username string) error

	// AddOnline and RemoveOnline mutate the conversation's transient presence
	// set. Both are idempotent; presence does not survive a process restart.
	AddOnline(ctx context.Context, conversationID uuid.UUID, username string) error
	RemoveOnline(ctx context.Context, conversationID uuid.UUID, username string) error

	// OnlineUsers lists the handles currently online in the conversation.
	OnlineUsers(ctx context.Context, conversationID uuid.UUID) ([]string, error)
}
