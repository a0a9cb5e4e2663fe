package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NameSeparator joins the two participant handles into a conversation name,
// e.g. "alice__bob". The client derives the name; get-or-create on the same
// name is idempotent, so the same pair always lands in the same conversation.
const NameSeparator = "__"

const notificationGroupSuffix = NameSeparator + "notifications"

// Domain-level errors for conversation behaviors.
var (
	ErrBadConversationName = fmt.Errorf("chat: conversation name is not a %q-joined participant pair", NameSeparator)
	ErrNotParticipant      = fmt.Errorf("chat: user is not a participant in the conversation")
	ErrEmptyMessage        = fmt.Errorf("chat: empty message content")
)

// Conversation represents a 1:1 thread. Participants is derived from Name
// exactly once, at creation, so recipient resolution works off the stored
// pair instead of re-parsing the name on every message.
type Conversation struct {
	ID           uuid.UUID `db:"id"`
	Name         string    `db:"name"`
	Participants [2]string
	CreatedAt    time.Time `db:"created_at"`
}

// NewConversation validates the name and derives the participant pair.
func NewConversation(name string) (Conversation, error) {
	pair, err := SplitName(name)
	if err != nil {
		return Conversation{}, err
	}
	return Conversation{
		ID:           uuid.New(),
		Name:         name,
		Participants: pair,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// SplitName recovers the participant pair from a conversation name.
func SplitName(name string) ([2]string, error) {
	parts := strings.Split(name, NameSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return [2]string{}, ErrBadConversationName
	}
	return [2]string{parts[0], parts[1]}, nil
}

// HasParticipant tells whether username is part of this conversation.
func (c Conversation) HasParticipant(username string) bool {
	return c.Participants[0] == username || c.Participants[1] == username
}

// Other returns the participant that is not username. ErrNotParticipant
// indicates a session attached to a conversation it is not party to.
func (c Conversation) Other(username string) (string, error) {
	switch username {
	case c.Participants[0]:
		return c.Participants[1], nil
	case c.Participants[1]:
		return c.Participants[0], nil
	}
	return "", ErrNotParticipant
}

// NotificationGroup names the private broadcast group carrying
// cross-conversation notifications for one user. Every active session of
// that user subscribes to it, so multiple simultaneous devices all hear
// about new messages.
func NotificationGroup(username string) string {
	return username + notificationGroupSuffix
}
