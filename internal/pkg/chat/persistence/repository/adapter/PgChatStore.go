package adapter

import (
	"context"
	"errors"
	"sync"

	chat "conversa/internal/pkg/chat/application/domain"
	repository "conversa/internal/pkg/chat/persistence/repository/port"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgChatStore persists conversations and messages in Postgres. The online
// presence set is transient by design and is kept off the database: it lives
// in process memory and vanishes on restart, matching presence semantics.
type PgChatStore struct {
	pool *pgxpool.Pool

	mu     sync.Mutex
	online map[uuid.UUID]map[string]struct{}
}

func NewPgChatStore(pool *pgxpool.Pool) *PgChatStore {
	return &PgChatStore{
		pool:   pool,
		online: make(map[uuid.UUID]map[string]struct{}),
	}
}

var _ repository.ChatStore = (*PgChatStore)(nil)

func (s *PgChatStore) GetOrCreateConversation(ctx context.Context, name string) (chat.Conversation, error) {
	if s == nil || s.pool == nil {
		return chat.Conversation{}, errors.New("PgChatStore: nil pool")
	}
	fresh, err := chat.NewConversation(name)
	if err != nil {
		return chat.Conversation{}, err
	}

	// Single round trip; the no-op DO UPDATE makes RETURNING fire on
	// conflict too, so a concurrent create for the same name resolves to
	// one row.
	var c chat.Conversation
	err = s.pool.QueryRow(ctx, `
		INSERT INTO chat.conversation (id, name, participant_a, participant_b, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, participant_a, participant_b, created_at
	`, fresh.ID, fresh.Name, fresh.Participants[0], fresh.Participants[1], fresh.CreatedAt,
	).Scan(&c.ID, &c.Name, &c.Participants[0], &c.Participants[1], &c.CreatedAt)
	if err != nil {
		return chat.Conversation{}, err
	}
	return c, nil
}

func (s *PgChatStore) SaveMessage(ctx context.Context, m chat.Message) (chat.Message, error) {
	if s == nil || s.pool == nil {
		return chat.Message{}, errors.New("PgChatStore: nil pool")
	}
	m.ID = uuid.New()
	err := s.pool.QueryRow(ctx, `
		INSERT INTO chat.message (id, conversation_id, from_username, to_username, content, timestamp, read)
		VALUES ($1, $2, $3, $4, $5, now(), FALSE)
		RETURNING timestamp
	`, m.ID, m.ConversationID, m.From.Username, m.To.Username, m.Content).Scan(&m.Timestamp)
	if err != nil {
		return chat.Message{}, err
	}
	m.Read = false
	return m, nil
}

func (s *PgChatStore) RecentMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]chat.Message, error) {
	if s == nil || s.pool == nil {
		return nil, errors.New("PgChatStore: nil pool")
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT m.id, m.conversation_id, m.content, m.timestamp, m.read,
		       fu.id, fu.username, fu.name,
		       tu.id, tu.username, tu.name
		FROM chat.message m
		JOIN users fu ON fu.username = m.from_username
		JOIN users tu ON tu.username = m.to_username
		WHERE m.conversation_id = $1
		ORDER BY m.timestamp DESC
		LIMIT $2
	`, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(
			&m.ID, &m.ConversationID, &m.Content, &m.Timestamp, &m.Read,
			&m.From.ID, &m.From.Username, &m.From.Name,
			&m.To.ID, &m.To.Username, &m.To.Name,
		); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *PgChatStore) MessageCount(ctx context.Context, conversationID uuid.UUID) (int, error) {
	if s == nil || s.pool == nil {
		return 0, errors.New("PgChatStore: nil pool")
	}
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM chat.message WHERE conversation_id = $1`,
		conversationID,
	).Scan(&n)
	return n, err
}

func (s *PgChatStore) UnreadCount(ctx context.Context, username string) (int, error) {
	if s == nil || s.pool == nil {
		return 0, errors.New("PgChatStore: nil pool")
	}
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM chat.message WHERE to_username = $1 AND NOT read`,
		username,
	).Scan(&n)
	return n, err
}

func (s *PgChatStore) MarkRead(ctx context.Context, conversationID uuid.UUID, username string) error {
	if s == nil || s.pool == nil {
		return errors.New("PgChatStore: nil pool")
	}
	_, err := s.pool.Exec(ctx, `
		UPDATE chat.message
		SET read = TRUE
		WHERE conversation_id = $1 AND to_username = $2 AND NOT read
	`, conversationID, username)
	return err
}

func (s *PgChatStore) AddOnline(ctx context.Context, conversationID uuid.UUID, username string) error {
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

func (s *PgChatStore) RemoveOnline(ctx context.Context, conversationID uuid.UUID, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.online[conversationID]
	delete(set, username)
	if len(set) == 0 {
		delete(s.online, conversationID)
	}
	return nil
}

func (s *PgChatStore) OnlineUsers(ctx context.Context, conversationID uuid.UUID) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.online[conversationID]
	users := make([]string, 0, len(set))
	for u := range set {
		users = append(users, u)
	}
	return users, nil
}
