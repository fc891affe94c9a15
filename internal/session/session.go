// Package session provides refresh token storage backends. Redis is the
// primary backend; deployments without Redis fall back to the
// refresh_sessions table in Postgres.
package session

import (
	"context"
	"errors"
	"time"

	"drive/api/internal/store"
)

// ErrNotFound is returned when a refresh token is unknown, expired, or
// revoked. Callers map it to an authentication failure.
var ErrNotFound = errors.New("session: refresh token not found")

// Store is refresh token storage keyed by the SHA-256 hash of the token.
// Raw tokens are never persisted.
type Store interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
	Ping(ctx context.Context) error
}
