package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAuthenticate_QueryToken(t *testing.T) {
	a := NewJWTAuthenticator("test-secret")
	token, err := a.Issue("alice", time.Minute)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/ws/chats/alice__bob?token="+token, nil)
	username, err := a.Authenticate(r)
	require.NoError(t, err)
	require.Equal(t, "alice", username)
}

func TestAuthenticate_BearerHeader(t *testing.T) {
	a := NewJWTAuthenticator("test-secret")
	token, err := a.Issue("bob", time.Minute)
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/ws/notifications", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	username, err := a.Authenticate(r)
	require.NoError(t, err)
	require.Equal(t, "bob", username)
}

func TestAuthenticate_Rejections(t *testing.T) {
	a := NewJWTAuthenticator("test-secret")

	t.Run("missing token", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/ws/notifications", nil)
		_, err := a.Authenticate(r)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("garbage token", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/ws/notifications?token=not-a-jwt", nil)
		_, err := a.Authenticate(r)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTAuthenticator("other-secret")
		token, err := other.Issue("alice", time.Minute)
		require.NoError(t, err)

		r := httptest.NewRequest("GET", "/ws/notifications?token="+token, nil)
		_, err = a.Authenticate(r)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := a.Issue("alice", -time.Minute)
		require.NoError(t, err)

		r := httptest.NewRequest("GET", "/ws/notifications?token="+token, nil)
		_, err = a.Authenticate(r)
		require.ErrorIs(t, err, ErrUnauthenticated)
	})
}
