package chat

import "github.com/google/uuid"

// User is an identity resolved from the external identity store.
// Immutable from the chat core's point of view.
type User struct {
	ID       uuid.UUID `db:"id"`
	Username string    `db:"username"`
	Name     string    `db:"name"`
}
