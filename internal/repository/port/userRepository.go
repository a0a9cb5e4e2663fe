package repository

import (
	"context"
	"errors"

	chat "conversa/internal/pkg/chat/application/domain"
)

// ErrUserNotFound signals that no identity exists for the given handle.
var ErrUserNotFound = errors.New("user repository: user not found")

// UserRepository is the read-side boundary to the external identity store.
// The chat core only ever resolves users by handle; account management lives
// elsewhere.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (chat.User, error)
}
