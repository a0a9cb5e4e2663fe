package adapter

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingSub struct {
	id string

	mu       sync.Mutex
	payloads [][]byte
}

func (s *recordingSub) SubscriberID() string { return s.id }

func (s *recordingSub) Deliver(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, payload)
}

func (s *recordingSub) received() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.payloads...)
}

func TestHub_FanOutReachesEverySubscriber(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()

	subs := make([]*recordingSub, 3)
	for i := range subs {
		subs[i] = &recordingSub{id: fmt.Sprintf("sub-%d", i)}
		require.NoError(t, hub.Join(ctx, "room", subs[i]))
	}

	require.NoError(t, hub.Publish(ctx, "room", []byte("hello")))

	for _, sub := range subs {
		require.Len(t, sub.received(), 1, "subscriber %s", sub.id)
		require.Equal(t, []byte("hello"), sub.received()[0])
	}
}

func TestHub_JoinIsIdempotent(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()
	sub := &recordingSub{id: "sub-1"}

	require.NoError(t, hub.Join(ctx, "room", sub))
	require.NoError(t, hub.Join(ctx, "room", sub))
	require.Equal(t, 1, hub.Members("room"))

	require.NoError(t, hub.Publish(ctx, "room", []byte("once")))
	require.Len(t, sub.received(), 1)
}

func TestHub_LeaveNonMemberIsNoOp(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()
	sub := &recordingSub{id: "sub-1"}

	require.NoError(t, hub.Leave(ctx, "room", sub))
	require.Equal(t, 0, hub.Members("room"))
}

func TestHub_PublishToEmptyGroupIsSilent(t *testing.T) {
	hub := NewHub()
	require.NoError(t, hub.Publish(context.Background(), "ghost-room", []byte("anyone?")))
}

func TestHub_LeftSubscriberStopsReceiving(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()
	staying := &recordingSub{id: "staying"}
	leaving := &recordingSub{id: "leaving"}

	require.NoError(t, hub.Join(ctx, "room", staying))
	require.NoError(t, hub.Join(ctx, "room", leaving))
	require.NoError(t, hub.Leave(ctx, "room", leaving))

	require.NoError(t, hub.Publish(ctx, "room", []byte("bye")))
	require.Len(t, staying.received(), 1)
	require.Empty(t, leaving.received())
}

func TestHub_PreservesPublishOrderPerPublisher(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()
	sub := &recordingSub{id: "sub-1"}
	require.NoError(t, hub.Join(ctx, "room", sub))

	for i := 0; i < 20; i++ {
		require.NoError(t, hub.Publish(ctx, "room", []byte(fmt.Sprintf("m%d", i))))
	}

	got := sub.received()
	require.Len(t, got, 20)
	for i, payload := range got {
		require.Equal(t, fmt.Sprintf("m%d", i), string(payload))
	}
}
