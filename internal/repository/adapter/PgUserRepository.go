package adapter

import (
	"context"
	"errors"

	chat "conversa/internal/pkg/chat/application/domain"
	port "conversa/internal/repository/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgUserRepository resolves identities from the users table.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

var _ port.UserRepository = (*PgUserRepository)(nil)

func (r *PgUserRepository) FindByUsername(ctx context.Context, username string) (chat.User, error) {
	if r == nil || r.pool == nil {
		return chat.User{}, errors.New("PgUserRepository: nil pool")
	}
	var u chat.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, username, name FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return chat.User{}, port.ErrUserNotFound
	}
	if err != nil {
		return chat.User{}, err
	}
	return u, nil
}
