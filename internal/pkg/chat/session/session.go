package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"conversa/internal/infrastructure/backplane/port"
	chat "conversa/internal/pkg/chat/application/domain"
	"conversa/internal/pkg/chat/application/usecase"
	repository "conversa/internal/pkg/chat/persistence/repository/port"
	users "conversa/internal/repository/port"

	"github.com/google/uuid"
)

// State tracks the session lifecycle. Every reachable state passes through
// StateClosed on termination, including error paths.
type State int

const (
	StateConnecting State = iota
	StateAuthenticated
	StateJoined
	StateClosed
)

// Kind selects which groups a session joins and which inbound events it
// honors.
type Kind int

const (
	// KindConversation binds the session to one two-party conversation.
	KindConversation Kind = iota
	// KindNotification binds the session to the user's private
	// notification group; multiple simultaneous connections are fine.
	KindNotification
)

// Wire sends one serialized frame to exactly this session's client. It must
// be safe for concurrent use and must not block the caller on a slow client.
type Wire interface {
	Send(payload []byte) error
}

// Deps bundles everything a session needs. One Deps value is shared by all
// sessions of a process.
type Deps struct {
	Open     *usecase.OpenConversationUseCase
	Preview  *usecase.ConversationPreviewUseCase
	Send     *usecase.SendMessageUseCase
	Presence *usecase.PresenceUseCase
	Unread   *usecase.UnreadCountUseCase
	MarkRead *usecase.MarkReadUseCase

	Backplane port.Backplane
	Registry  *Registry
	Log       *slog.Logger
}

// NewDeps wires the use cases over the given ports.
func NewDeps(store repository.ChatStore, userRepo users.UserRepository, bp port.Backplane, log *slog.Logger) Deps {
	return Deps{
		Open:      usecase.NewOpenConversationUseCase(store),
		Preview:   usecase.NewConversationPreviewUseCase(store),
		Send:      usecase.NewSendMessageUseCase(store, userRepo),
		Presence:  usecase.NewPresenceUseCase(store),
		Unread:    usecase.NewUnreadCountUseCase(store),
		MarkRead:  usecase.NewMarkReadUseCase(store),
		Backplane: bp,
		Registry:  NewRegistry(),
		Log:       log,
	}
}

// Session is the server-side state machine for one live connection. All of
// its methods for a single connection run sequentially on the connection's
// read loop; Deliver is the only entry point reached from other goroutines
// and it never touches session state.
//
// A Session is only ever constructed for connections that passed
// authentication: the Connecting -> Authenticated transition happens at the
// transport boundary, where unauthenticated connects are rejected silently.
type Session struct {
	id   string
	kind Kind
	user chat.User
	wire Wire
	deps Deps

	conversationName string
	conv             chat.Conversation

	state   State
	groups  []string
	cleanup sync.Once
}

// NewConversationSession builds a session bound to the named conversation.
func NewConversationSession(deps Deps, user chat.User, conversationName string, wire Wire) *Session {
	return &Session{
		id:               uuid.NewString(),
		kind:             KindConversation,
		user:             user,
		wire:             wire,
		deps:             deps,
		conversationName: conversationName,
		state:            StateAuthenticated,
	}
}

// NewNotificationSession builds a session bound to the user's private
// notification group.
func NewNotificationSession(deps Deps, user chat.User, wire Wire) *Session {
	return &Session{
		id:    uuid.NewString(),
		kind:  KindNotification,
		user:  user,
		wire:  wire,
		deps:  deps,
		state: StateAuthenticated,
	}
}

// SubscriberID implements port.Subscriber.
func (s *Session) SubscriberID() string { return s.id }

// Deliver implements port.Subscriber: backplane events for joined groups are
// forwarded to the client verbatim. The frame already carries its own tag.
func (s *Session) Deliver(payload []byte) {
	if err := s.wire.Send(payload); err != nil {
		s.deps.Log.Debug("session delivery dropped", "session", s.id, "user", s.user.Username, "error", err)
	}
}

// State reports the current lifecycle state.
func (s *Session) State() State { return s.state }

// Conversation returns the resolved conversation of a conversation session.
// Zero until Connect succeeds.
func (s *Session) Conversation() chat.Conversation { return s.conv }

// Connect performs the join sequence. For conversation sessions: resolve or
// create the conversation, reject users outside its participant pair, join
// its group, announce user_join, enter the
// online set, then push the online member list and the backlog preview. For
// notification sessions: join the private group and push the unread count.
// On error the caller must still call Disconnect; cleanup releases whatever
// was acquired.
func (s *Session) Connect(ctx context.Context) error {
	if s.state != StateAuthenticated {
		return fmt.Errorf("session: connect in state %d", s.state)
	}

	switch s.kind {
	case KindNotification:
		if err := s.join(ctx, chat.NotificationGroup(s.user.Username)); err != nil {
			return err
		}
		s.state = StateJoined

		unread, err := s.deps.Unread.Execute(ctx, s.user.Username)
		if err != nil {
			return err
		}
		return s.push(NewUnreadCount(unread))

	default:
		conv, err := s.deps.Open.Execute(ctx, s.conversationName)
		if err != nil {
			return err
		}
		if !conv.HasParticipant(s.user.Username) {
			return fmt.Errorf("session: connect to %s: %w", conv.Name, chat.ErrNotParticipant)
		}
		s.conv = conv

		if err := s.join(ctx, conv.Name); err != nil {
			return err
		}
		s.state = StateJoined

		s.publish(ctx, conv.Name, NewUserJoin(s.user.Username))

		// Presence set and registry membership move in lockstep: this add
		// is undone by Disconnect, exactly once.
		if err := s.deps.Presence.Join(ctx, conv.ID, s.user.Username); err != nil {
			return err
		}

		online, err := s.deps.Presence.Online(ctx, conv.ID)
		if err != nil {
			return err
		}
		if err := s.push(NewOnlineUserList(online)); err != nil {
			return err
		}

		preview, err := s.deps.Preview.Execute(ctx, conv.ID)
		if err != nil {
			return err
		}
		return s.push(NewLastMessages(preview.Messages, preview.HasMore))
	}
}

// HandleFrame dispatches one inbound client frame. Unknown and malformed
// frames are ignored and the connection stays open.
func (s *Session) HandleFrame(ctx context.Context, raw []byte) {
	ev, err := DecodeInbound(raw)
	if err != nil {
		s.deps.Log.Debug("ignoring inbound frame", "session", s.id, "error", err)
		return
	}
	if s.state != StateJoined {
		return
	}

	switch ev := ev.(type) {
	case TypingEvent:
		s.handleTyping(ctx, ev)
	case ChatMessageEvent:
		s.handleChatMessage(ctx, ev)
	case ReadMessagesEvent:
		s.handleReadMessages(ctx)
	}
}

// Disconnect releases everything the session acquired: leave every joined
// backplane group, deregister from the registry, exit the online set and
// announce user_leave. It runs exactly once no matter how the connection
// terminated, and is a no-op for sessions that never joined anything.
func (s *Session) Disconnect(ctx context.Context) {
	s.cleanup.Do(func() {
		groups := s.groups
		s.groups = nil
		for _, g := range groups {
			if err := s.deps.Backplane.Leave(ctx, g, s); err != nil {
				s.deps.Log.Error("backplane leave failed", "group", g, "error", err)
			}
			s.deps.Registry.Leave(g, s)
		}

		if s.kind == KindConversation && s.state == StateJoined && s.conv.ID != uuid.Nil {
			if err := s.deps.Presence.Leave(ctx, s.conv.ID, s.user.Username); err != nil {
				s.deps.Log.Error("presence leave failed", "conversation", s.conv.Name, "error", err)
			}
			// Published after leaving the group, so the departing session
			// never hears its own user_leave.
			s.publish(ctx, s.conv.Name, NewUserLeave(s.user.Username))
		}
		s.state = StateClosed
	})
}

func (s *Session) handleTyping(ctx context.Context, ev TypingEvent) {
	if s.kind != KindConversation {
		return
	}
	// Rebroadcast verbatim; typing state is never persisted.
	s.publish(ctx, s.conv.Name, NewTyping(s.user.Username, ev.Typing))
}

func (s *Session) handleChatMessage(ctx context.Context, ev ChatMessageEvent) {
	if s.kind != KindConversation {
		return
	}

	msg, err := s.deps.Send.Execute(ctx, usecase.SendMessageInput{
		Conversation: s.conv,
		Sender:       s.user,
		Content:      ev.Content,
	})
	switch {
	case errors.Is(err, chat.ErrNotParticipant):
		// Corrupted conversation name or a session attached to a
		// conversation it is not party to. Fatal for this message only.
		s.deps.Log.Error("dropping message from non-participant",
			"conversation", s.conv.Name, "user", s.user.Username)
		return
	case errors.Is(err, chat.ErrEmptyMessage):
		s.deps.Log.Debug("dropping empty message", "user", s.user.Username)
		return
	case err != nil:
		// Not persisted: no echo, no notification.
		s.deps.Log.Error("message not persisted",
			"conversation", s.conv.Name, "user", s.user.Username, "error", err)
		return
	}

	PublishMessage(ctx, s.deps.Backplane, s.conv.Name, msg, s.deps.Log)
}

func (s *Session) handleReadMessages(ctx context.Context) {
	if s.kind != KindConversation {
		return
	}
	if err := s.deps.MarkRead.Execute(ctx, s.conv.ID, s.user.Username); err != nil {
		s.deps.Log.Error("mark read failed", "conversation", s.conv.Name, "error", err)
		return
	}
	unread, err := s.deps.Unread.Execute(ctx, s.user.Username)
	if err != nil {
		s.deps.Log.Error("unread recount failed", "user", s.user.Username, "error", err)
		return
	}
	// Refresh the badge on every device the reader has connected.
	s.publish(ctx, chat.NotificationGroup(s.user.Username), NewUnreadCount(unread))
}

// join adds the session to a group in both the registry and the backplane.
// The two are kept mutually consistent: a failed backplane join rolls the
// registry back.
func (s *Session) join(ctx context.Context, group string) error {
	s.deps.Registry.Join(group, s)
	if err := s.deps.Backplane.Join(ctx, group, s); err != nil {
		s.deps.Registry.Leave(group, s)
		return fmt.Errorf("session: join group %s: %w", group, err)
	}
	s.groups = append(s.groups, group)
	return nil
}

// push serializes an event and sends it to exactly this client.
func (s *Session) push(o Outbound) error {
	payload, err := EncodeOutbound(o)
	if err != nil {
		return fmt.Errorf("session: encode outbound: %w", err)
	}
	return s.wire.Send(payload)
}

// publish serializes an event and fans it out to a group. Errors are logged
// and swallowed: broadcast is fire-and-forget.
func (s *Session) publish(ctx context.Context, group string, o Outbound) {
	payload, err := EncodeOutbound(o)
	if err != nil {
		s.deps.Log.Error("encode outbound failed", "error", err)
		return
	}
	if err := s.deps.Backplane.Publish(ctx, group, payload); err != nil {
		s.deps.Log.Error("publish failed", "group", group, "error", err)
	}
}
