package chat

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is an immutable log entry in a conversation. Only the Read flag
// mutates after creation, flipped by a read event outside the send path.
type Message struct {
	ID             uuid.UUID `db:"id"`
	ConversationID uuid.UUID `db:"conversation_id"`
	From           User
	To             User
	Content        string    `db:"content"`
	Timestamp      time.Time `db:"timestamp"`
	Read           bool      `db:"read"`
}

// NewMessage validates and shapes a message ready to persist. The store
// assigns ID and Timestamp; per-conversation timestamps are non-decreasing.
func NewMessage(conv Conversation, from, to User, content string) (Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Message{}, ErrEmptyMessage
	}
	return Message{
		ConversationID: conv.ID,
		From:           from,
		To:             to,
		Content:        content,
	}, nil
}

// HexID renders an opaque id for the wire: plain lowercase hex, no
// delimiters (not the canonical dashed form).
func HexID(id uuid.UUID) string {
	return hex.EncodeToString(id[:])
}
