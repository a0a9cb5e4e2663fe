package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	bpadapter "conversa/internal/infrastructure/backplane/adapter"
	chat "conversa/internal/pkg/chat/application/domain"
	storeadapter "conversa/internal/pkg/chat/persistence/repository/adapter"
	repository "conversa/internal/pkg/chat/persistence/repository/port"
	useradapter "conversa/internal/repository/adapter"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeWire records every frame pushed or delivered to one client.
type fakeWire struct {
	mu     sync.Mutex
	frames [][]byte
}

func (w *fakeWire) Send(payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frames = append(w.frames, payload)
	return nil
}

func (w *fakeWire) typed(t *testing.T, eventType string) []map[string]any {
	t.Helper()
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []map[string]any
	for _, raw := range w.frames {
		var frame map[string]any
		require.NoError(t, json.Unmarshal(raw, &frame))
		if frame["type"] == eventType {
			out = append(out, frame)
		}
	}
	return out
}

type testEnv struct {
	deps  Deps
	store *storeadapter.MemoryChatStore
	users *useradapter.MemoryUserRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := storeadapter.NewMemoryChatStore()
	users := useradapter.NewMemoryUserRepository()
	return &testEnv{
		deps:  NewDeps(store, users, bpadapter.NewHub(), testLogger()),
		store: store,
		users: users,
	}
}

func (e *testEnv) user(t *testing.T, username string) chat.User {
	t.Helper()
	u, err := e.users.FindByUsername(context.Background(), username)
	require.NoError(t, err)
	return u
}

func (e *testEnv) connectChat(t *testing.T, username, conversationName string) (*Session, *fakeWire) {
	t.Helper()
	wire := &fakeWire{}
	s := NewConversationSession(e.deps, e.user(t, username), conversationName, wire)
	require.NoError(t, s.Connect(context.Background()))
	return s, wire
}

func (e *testEnv) connectNotifications(t *testing.T, username string) (*Session, *fakeWire) {
	t.Helper()
	wire := &fakeWire{}
	s := NewNotificationSession(e.deps, e.user(t, username), wire)
	require.NoError(t, s.Connect(context.Background()))
	return s, wire
}

func TestConnect_BothSidesSeeUserJoin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, aliceWire := env.connectChat(t, "alice", "alice__bob")
	_, bobWire := env.connectChat(t, "bob", "alice__bob")

	joins := aliceWire.typed(t, TypeUserJoin)
	require.Len(t, joins, 2) // her own join plus bob's
	require.Equal(t, "bob", joins[1]["user"])

	require.Len(t, bobWire.typed(t, TypeUserJoin), 1)

	conv, err := env.store.GetOrCreateConversation(ctx, "alice__bob")
	require.NoError(t, err)
	online, err := env.store.OnlineUsers(ctx, conv.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"alice", "bob"}, online)
}

func TestConnect_PushesOnlineListAndPreview(t *testing.T) {
	env := newTestEnv(t)

	_, aliceWire := env.connectChat(t, "alice", "alice__bob")

	lists := aliceWire.typed(t, TypeOnlineUserList)
	require.Len(t, lists, 1)
	require.Equal(t, []any{"alice"}, lists[0]["users"])

	backlog := aliceWire.typed(t, TypeLastMessages)
	require.Len(t, backlog, 1)
	require.Equal(t, false, backlog[0]["has_more"])
	require.Empty(t, backlog[0]["messages"])
}

func TestConnect_RejectsNonParticipant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, bobWire := env.connectChat(t, "bob", "alice__bob")

	wire := &fakeWire{}
	s := NewConversationSession(env.deps, env.user(t, "mallory"), "alice__bob", wire)
	require.ErrorIs(t, s.Connect(ctx), chat.ErrNotParticipant)
	s.Disconnect(ctx)

	// nothing was announced and nothing joined
	require.Len(t, bobWire.typed(t, TypeUserJoin), 1)
	require.Equal(t, 1, env.deps.Registry.Count("alice__bob"))

	conv, err := env.store.GetOrCreateConversation(ctx, "alice__bob")
	require.NoError(t, err)
	online, err := env.store.OnlineUsers(ctx, conv.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"bob"}, online)
}

func TestChatMessage_EchoAndNotification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, aliceWire := env.connectChat(t, "alice", "alice__bob")
	bobSess, _ := env.connectChat(t, "bob", "alice__bob")
	_, aliceNotif := env.connectNotifications(t, "alice")

	bobSess.HandleFrame(ctx, []byte(`{"type":"chat_message","message":"hi"}`))

	echoes := aliceWire.typed(t, TypeChatMessageEcho)
	require.Len(t, echoes, 1)
	msg := echoes[0]["message"].(map[string]any)
	require.Equal(t, "hi", msg["content"])
	require.Equal(t, "bob", msg["from_user"].(map[string]any)["username"])
	require.Equal(t, "alice", msg["to_user"].(map[string]any)["username"])

	notifs := aliceNotif.typed(t, TypeNewMessageNotification)
	require.Len(t, notifs, 1)
	require.Equal(t, "alice__bob", notifs[0]["name"])
	require.Equal(t, "hi", notifs[0]["message"].(map[string]any)["content"])
}

func TestDisconnect_AnnouncesLeaveAndCleansUp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	aliceSess, aliceWire := env.connectChat(t, "alice", "alice__bob")
	_, bobWire := env.connectChat(t, "bob", "alice__bob")

	aliceSess.Disconnect(ctx)
	aliceSess.Disconnect(ctx) // exactly-once cleanup

	leaves := bobWire.typed(t, TypeUserLeave)
	require.Len(t, leaves, 1)
	require.Equal(t, "alice", leaves[0]["user"])

	// the departing session never hears its own leave
	require.Empty(t, aliceWire.typed(t, TypeUserLeave))

	conv, err := env.store.GetOrCreateConversation(ctx, "alice__bob")
	require.NoError(t, err)
	online, err := env.store.OnlineUsers(ctx, conv.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"bob"}, online)
	require.Equal(t, 1, env.deps.Registry.Count("alice__bob"))
	require.Equal(t, StateClosed, aliceSess.State())
}

func TestConnect_BacklogPreviewBoundaries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sender, _ := env.connectChat(t, "alice", "alice__bob")
	for i := 0; i < 7; i++ {
		sender.HandleFrame(ctx, []byte(`{"type":"chat_message","message":"hello"}`))
	}

	_, bobWire := env.connectChat(t, "bob", "alice__bob")
	backlog := bobWire.typed(t, TypeLastMessages)
	require.Len(t, backlog, 1)
	require.Equal(t, true, backlog[0]["has_more"])
	require.Len(t, backlog[0]["messages"], 7)
}

func TestConnect_PreviewCappedAtTen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sender, _ := env.connectChat(t, "alice", "alice__bob")
	for i := 0; i < 12; i++ {
		sender.HandleFrame(ctx, []byte(`{"type":"chat_message","message":"hello"}`))
	}

	_, bobWire := env.connectChat(t, "bob", "alice__bob")
	backlog := bobWire.typed(t, TypeLastMessages)
	require.Len(t, backlog, 1)
	require.Len(t, backlog[0]["messages"], 10)
	require.Equal(t, true, backlog[0]["has_more"])
}

func TestTyping_RebroadcastWithoutPersistence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, aliceWire := env.connectChat(t, "alice", "alice__bob")
	bobSess, _ := env.connectChat(t, "bob", "alice__bob")

	bobSess.HandleFrame(ctx, []byte(`{"type":"typing","typing":true}`))

	typings := aliceWire.typed(t, TypeTyping)
	require.Len(t, typings, 1)
	require.Equal(t, "bob", typings[0]["user"])
	require.Equal(t, true, typings[0]["typing"])

	conv, err := env.store.GetOrCreateConversation(ctx, "alice__bob")
	require.NoError(t, err)
	total, err := env.store.MessageCount(ctx, conv.ID)
	require.NoError(t, err)
	require.Equal(t, 0, total)
}

func TestUnknownInboundTagIsIgnored(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	sess, wire := env.connectChat(t, "alice", "alice__bob")
	before := len(wire.frames)

	sess.HandleFrame(ctx, []byte(`{"type":"emoji_reaction","emoji":"🔥"}`))
	sess.HandleFrame(ctx, []byte(`{broken`))

	require.Equal(t, StateJoined, sess.State())
	require.Len(t, wire.frames, before)
}

func TestNotificationConnect_PushesUnreadCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bobSess, _ := env.connectChat(t, "bob", "alice__bob")
	bobSess.HandleFrame(ctx, []byte(`{"type":"chat_message","message":"one"}`))
	bobSess.HandleFrame(ctx, []byte(`{"type":"chat_message","message":"two"}`))

	_, aliceNotif := env.connectNotifications(t, "alice")
	counts := aliceNotif.typed(t, TypeUnreadCount)
	require.Len(t, counts, 1)
	require.Equal(t, float64(2), counts[0]["unread_count"])
}

func TestReadMessages_RefreshesUnreadCount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bobSess, _ := env.connectChat(t, "bob", "alice__bob")
	bobSess.HandleFrame(ctx, []byte(`{"type":"chat_message","message":"one"}`))

	aliceSess, _ := env.connectChat(t, "alice", "alice__bob")
	_, aliceNotif := env.connectNotifications(t, "alice")

	aliceSess.HandleFrame(ctx, []byte(`{"type":"read_messages"}`))

	counts := aliceNotif.typed(t, TypeUnreadCount)
	// one on connect, one after reading
	require.Len(t, counts, 2)
	require.Equal(t, float64(0), counts[1]["unread_count"])
}

// failingStore persists nothing.
type failingStore struct {
	repository.ChatStore
}

func (failingStore) SaveMessage(ctx context.Context, m chat.Message) (chat.Message, error) {
	return chat.Message{}, errors.New("store down")
}

func TestNoEchoWithoutPersist(t *testing.T) {
	store := storeadapter.NewMemoryChatStore()
	users := useradapter.NewMemoryUserRepository()
	deps := NewDeps(failingStore{store}, users, bpadapter.NewHub(), testLogger())
	env := &testEnv{deps: deps, store: store, users: users}

	_, aliceWire := env.connectChat(t, "alice", "alice__bob")
	bobSess, _ := env.connectChat(t, "bob", "alice__bob")
	_, aliceNotif := env.connectNotifications(t, "alice")

	bobSess.HandleFrame(context.Background(), []byte(`{"type":"chat_message","message":"hi"}`))

	require.Empty(t, aliceWire.typed(t, TypeChatMessageEcho))
	require.Empty(t, aliceNotif.typed(t, TypeNewMessageNotification))
}

func TestMultipleNotificationSessionsPerUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, laptop := env.connectNotifications(t, "alice")
	_, phone := env.connectNotifications(t, "alice")

	bobSess, _ := env.connectChat(t, "bob", "alice__bob")
	bobSess.HandleFrame(ctx, []byte(`{"type":"chat_message","message":"hi"}`))

	require.Len(t, laptop.typed(t, TypeNewMessageNotification), 1)
	require.Len(t, phone.typed(t, TypeNewMessageNotification), 1)
}
