package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthenticated covers every authentication failure uniformly. The
// transport layer rejects silently either way, so callers never learn which
// check failed.
var ErrUnauthenticated = errors.New("auth: unauthenticated")

// Authenticator resolves an incoming request to a user handle. Identity
// storage itself lives outside this service; this is only the verification
// boundary.
type Authenticator interface {
	Authenticate(r *http.Request) (username string, err error)
}

// JWTAuthenticator verifies HMAC-signed tokens whose subject is the user
// handle. Browser websocket clients cannot set headers, so the token is
// also accepted as a "token" query parameter.
type JWTAuthenticator struct {
	secret []byte
}

func NewJWTAuthenticator(secret string) *JWTAuthenticator {
	return &JWTAuthenticator{secret: []byte(secret)}
}

var _ Authenticator = (*JWTAuthenticator)(nil)

func (a *JWTAuthenticator) Authenticate(r *http.Request) (string, error) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			raw = strings.TrimPrefix(h, "Bearer ")
		}
	}
	if raw == "" {
		return "", ErrUnauthenticated
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return "", ErrUnauthenticated
	}
	return claims.Subject, nil
}

// Issue mints a token for username, valid for ttl. Used by tooling and
// tests; production tokens come from the identity service.
func (a *JWTAuthenticator) Issue(username string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString(a.secret)
}
