package adapter

import (
	"context"
	"sync"
	"time"

	chat "conversa/internal/pkg/chat/application/domain"
	repository "conversa/internal/pkg/chat/persistence/repository/port"

	"github.com/google/uuid"
)

// MemoryChatStore is a mutex-guarded in-memory ChatStore. It backs tests and
// lets the server run without Postgres.
type MemoryChatStore struct {
	mu            sync.Mutex
	conversations map[string]chat.Conversation
	messages      map[uuid.UUID][]chat.Message
	lastTimestamp map[uuid.UUID]time.Time
	online        map[uuid.UUID]map[string]struct{}
}

func NewMemoryChatStore() *MemoryChatStore {
	return &MemoryChatStore{
		conversations: make(map[string]chat.Conversation),
		messages:      make(map[uuid.UUID][]chat.Message),
		lastTimestamp: make(map[uuid.UUID]time.Time),
		online:        make(map[uuid.UUID]map[string]struct{}),
	}
}

var _ repository.ChatStore = (*MemoryChatStore)(nil)

func (s *MemoryChatStore) GetOrCreateConversation(ctx context.Context, name string) (chat.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.conversations[name]; ok {
		return c, nil
	}
	c, err := chat.NewConversation(name)
	if err != nil {
		return chat.Conversation{}, err
	}
	s.conversations[name] = c
	return c, nil
}

func (s *MemoryChatStore) SaveMessage(ctx context.Context, m chat.Message) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = uuid.New()
	ts := time.Now().UTC()
	// Per-conversation timestamps must never go backwards.
	if last := s.lastTimestamp[m.ConversationID]; ts.Before(last) {
		ts = last
	}
	m.Timestamp = ts
	m.Read = false
	s.lastTimestamp[m.ConversationID] = ts
	s.messages[m.ConversationID] = append(s.messages[m.ConversationID], m)
	return m, nil
}

func (s *MemoryChatStore) RecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.messages[conversationID]
	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	msgs := make([]chat.Message, 0, limit)
	for i := len(all) - 1; i >= 0 && len(msgs) < limit; i-- {
		msgs = append(msgs, all[i])
	}
	return msgs, nil
}

func (s *MemoryChatStore) MessageCount(ctx context.Context, conversationID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages[conversationID]), nil
}

func (s *MemoryChatStore) UnreadCount(ctx context.Context, username string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, msgs := range s.messages {
		for _, m := range msgs {
			if m.To.Username == username && !m.Read {
				n++
			}
		}
	}
	return n, nil
}

func (s *MemoryChatStore) MarkRead(ctx context.Context, conversationID uuid.UUID, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[conversationID]
	for i := range msgs {
		if msgs[i].To.Username == username {
			msgs[i].Read = true
		}
	}
	return nil
}

func (s *MemoryChatStore) AddOnline(ctx context.Context, conversationID uuid.UUID, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.online[conversationID]
	if set == nil {
		set = make(map[string]struct{})
		s.online[conversationID] = set
	}
	set[username] = struct{}{}
	return nil
}

func (s *MemoryChatStore) RemoveOnline(ctx context.Context, conversationID uuid.UUID, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.online[conversationID]
	delete(set, username)
	if len(set) == 0 {
		delete(s.online, conversationID)
	}
	return nil
}

func (s *MemoryChatStore) OnlineUsers(ctx context.Context, conversationID uuid.UUID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.online[conversationID]
	users := make([]string, 0, len(set))
	for u := range set {
		users = append(users, u)
	}
	return users, nil
}
