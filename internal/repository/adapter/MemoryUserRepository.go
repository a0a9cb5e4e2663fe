package adapter

import (
	"context"
	"sync"

	chat "conversa/internal/pkg/chat/application/domain"
	port "conversa/internal/repository/port"

	"github.com/google/uuid"
)

// MemoryUserRepository is the dev/test stand-in for the external identity
// store. Unknown handles are materialized on first lookup so a fresh server
// accepts any authenticated user without seeding.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]chat.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]chat.User)}
}

var _ port.UserRepository = (*MemoryUserRepository)(nil)

// Put seeds or replaces an identity.
func (r *MemoryUserRepository) Put(u chat.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.Username] = u
}

func (r *MemoryUserRepository) FindByUsername(ctx context.Context, username string) (chat.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[username]; ok {
		return u, nil
	}
	u := chat.User{ID: uuid.New(), Username: username, Name: username}
	r.users[username] = u
	return u, nil
}
