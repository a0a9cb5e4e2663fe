package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	chat "conversa/internal/pkg/chat/application/domain"
)

// Closed tag vocabulary for the wire. Inbound and outbound frames are
// UTF-8 JSON over a single bidirectional text channel; every frame carries
// its own "type" tag.
const (
	// client -> server
	TypeTyping       = "typing"
	TypeChatMessage  = "chat_message"
	TypeReadMessages = "read_messages"

	// server -> client
	TypeOnlineUserList         = "online_user_list"
	TypeLastMessages           = "last_50_messages"
	TypeUserJoin               = "user_join"
	TypeUserLeave              = "user_leave"
	TypeChatMessageEcho        = "chat_message_echo"
	TypeNewMessageNotification = "new_message_notification"
	TypeUnreadCount            = "unread_count"
)

// ErrUnknownEventType reports an inbound tag outside the closed vocabulary.
// Callers ignore these frames rather than erroring the connection.
var ErrUnknownEventType = errors.New("session: unknown event type")

// Inbound is the closed set of client events.
type Inbound interface{ inbound() }

// TypingEvent toggles the typing indicator; never persisted.
type TypingEvent struct {
	Typing bool
}

// ChatMessageEvent carries one message to the other participant.
type ChatMessageEvent struct {
	Content string
}

// ReadMessagesEvent marks everything addressed to the reader in this
// conversation as read.
type ReadMessagesEvent struct{}

func (TypingEvent) inbound()       {}
func (ChatMessageEvent) inbound()  {}
func (ReadMessagesEvent) inbound() {}

// DecodeInbound parses one client frame into its variant.
func DecodeInbound(raw []byte) (Inbound, error) {
	var env struct {
		Type    string `json:"type"`
		Typing  bool   `json:"typing"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("session: decode frame: %w", err)
	}
	switch env.Type {
	case TypeTyping:
		return TypingEvent{Typing: env.Typing}, nil
	case TypeChatMessage:
		return ChatMessageEvent{Content: env.Message}, nil
	case TypeReadMessages:
		return ReadMessagesEvent{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, env.Type)
}

// Outbound is the closed set of server frames. Each variant marshals to the
// exact wire shape; the Type field is fixed by its constructor.
type Outbound interface{ outbound() }

// UserDTO is the wire shape of a user reference.
type UserDTO struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

// MessageDTO is the wire shape of a message. Ids are plain lowercase hex
// with no delimiters; timestamps are RFC 3339.
type MessageDTO struct {
	ID           string  `json:"id"`
	Conversation string  `json:"conversation"`
	FromUser     UserDTO `json:"from_user"`
	ToUser       UserDTO `json:"to_user"`
	Content      string  `json:"content"`
	Timestamp    string  `json:"timestamp"`
	Read         bool    `json:"read"`
}

type OnlineUserList struct {
	Type  string   `json:"type"`
	Users []string `json:"users"`
}

// LastMessages carries the preview pushed on connect. The tag predates the
// preview being capped at 10 and is kept for client compatibility.
type LastMessages struct {
	Type     string       `json:"type"`
	Messages []MessageDTO `json:"messages"`
	HasMore  bool         `json:"has_more"`
}

type UserJoin struct {
	Type string `json:"type"`
	User string `json:"user"`
}

type UserLeave struct {
	Type string `json:"type"`
	User string `json:"user"`
}

type Typing struct {
	Type   string `json:"type"`
	User   string `json:"user"`
	Typing bool   `json:"typing"`
}

// ChatMessageEcho rebroadcasts a persisted message to the conversation
// group; Name is the sender's handle.
type ChatMessageEcho struct {
	Type    string     `json:"type"`
	Name    string     `json:"name"`
	Message MessageDTO `json:"message"`
}

// NewMessageNotification lands in the recipient's private notification
// group; Name is the conversation name so the client can navigate to it.
type NewMessageNotification struct {
	Type    string     `json:"type"`
	Name    string     `json:"name"`
	Message MessageDTO `json:"message"`
}

type UnreadCount struct {
	Type        string `json:"type"`
	UnreadCount int    `json:"unread_count"`
}

func (OnlineUserList) outbound()         {}
func (LastMessages) outbound()           {}
func (UserJoin) outbound()               {}
func (UserLeave) outbound()              {}
func (Typing) outbound()                 {}
func (ChatMessageEcho) outbound()        {}
func (NewMessageNotification) outbound() {}
func (UnreadCount) outbound()            {}

func NewOnlineUserList(users []string) OnlineUserList {
	if users == nil {
		users = []string{}
	}
	return OnlineUserList{Type: TypeOnlineUserList, Users: users}
}

func NewLastMessages(messages []chat.Message, hasMore bool) LastMessages {
	dtos := make([]MessageDTO, 0, len(messages))
	for _, m := range messages {
		dtos = append(dtos, ToMessageDTO(m))
	}
	return LastMessages{Type: TypeLastMessages, Messages: dtos, HasMore: hasMore}
}

func NewUserJoin(username string) UserJoin {
	return UserJoin{Type: TypeUserJoin, User: username}
}

func NewUserLeave(username string) UserLeave {
	return UserLeave{Type: TypeUserLeave, User: username}
}

func NewTyping(username string, typing bool) Typing {
	return Typing{Type: TypeTyping, User: username, Typing: typing}
}

func NewChatMessageEcho(m chat.Message) ChatMessageEcho {
	return ChatMessageEcho{Type: TypeChatMessageEcho, Name: m.From.Username, Message: ToMessageDTO(m)}
}

func NewNewMessageNotification(conversationName string, m chat.Message) NewMessageNotification {
	return NewMessageNotification{Type: TypeNewMessageNotification, Name: conversationName, Message: ToMessageDTO(m)}
}

func NewUnreadCount(n int) UnreadCount {
	return UnreadCount{Type: TypeUnreadCount, UnreadCount: n}
}

// EncodeOutbound serializes a server frame for the wire.
func EncodeOutbound(o Outbound) ([]byte, error) {
	return json.Marshal(o)
}

// ToUserDTO maps a domain user to its wire shape.
func ToUserDTO(u chat.User) UserDTO {
	return UserDTO{Username: u.Username, Name: u.Name}
}

// ToMessageDTO maps a domain message to its wire shape.
func ToMessageDTO(m chat.Message) MessageDTO {
	return MessageDTO{
		ID:           chat.HexID(m.ID),
		Conversation: chat.HexID(m.ConversationID),
		FromUser:     ToUserDTO(m.From),
		ToUser:       ToUserDTO(m.To),
		Content:      m.Content,
		Timestamp:    m.Timestamp.UTC().Format(time.RFC3339),
		Read:         m.Read,
	}
}
