package chat

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewConversation_DerivesParticipants(t *testing.T) {
	conv, err := NewConversation("alice__bob")
	require.NoError(t, err)
	require.Equal(t, "alice__bob", conv.Name)
	require.Equal(t, [2]string{"alice", "bob"}, conv.Participants)
	require.NotEqual(t, uuid.Nil, conv.ID)
}

func TestSplitName_Invalid(t *testing.T) {
	for _, name := range []string{"", "alice", "alice__", "__bob", "a__b__c"} {
		_, err := SplitName(name)
		require.ErrorIs(t, err, ErrBadConversationName, "name %q", name)
	}
}

func TestConversation_Other(t *testing.T) {
	conv, err := NewConversation("alice__bob")
	require.NoError(t, err)

	other, err := conv.Other("alice")
	require.NoError(t, err)
	require.Equal(t, "bob", other)

	other, err = conv.Other("bob")
	require.NoError(t, err)
	require.Equal(t, "alice", other)

	_, err = conv.Other("mallory")
	require.ErrorIs(t, err, ErrNotParticipant)
}

func TestNewMessage_TrimsAndRejectsEmpty(t *testing.T) {
	conv, err := NewConversation("alice__bob")
	require.NoError(t, err)
	alice := User{ID: uuid.New(), Username: "alice"}
	bob := User{ID: uuid.New(), Username: "bob"}

	m, err := NewMessage(conv, alice, bob, "  hi  ")
	require.NoError(t, err)
	require.Equal(t, "hi", m.Content)
	require.Equal(t, conv.ID, m.ConversationID)

	_, err = NewMessage(conv, alice, bob, "   ")
	require.ErrorIs(t, err, ErrEmptyMessage)
}

func TestHexID(t *testing.T) {
	id := uuid.New()
	hexed := HexID(id)
	require.Len(t, hexed, 32)
	require.NotContains(t, hexed, "-")
	require.Equal(t, strings.ToLower(hexed), hexed)
}

func TestNotificationGroup(t *testing.T) {
	require.Equal(t, "alice__notifications", NotificationGroup("alice"))
}
