package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"drive/api/internal/store"
)

// PostgresStore adapts the refresh_sessions table to the session.Store
// interface for deployments that run without Redis.
type PostgresStore struct {
	st store.Store
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(st store.Store) *PostgresStore {
	return &PostgresStore{st: st}
}

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	return s.st.SaveRefreshSession(ctx, tokenHash, userID, expiresAt)
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error) {
	user, err := s.st.LookupRefreshSession(ctx, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, ErrNotFound
	}
	return user, err
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	return s.st.RevokeRefreshSession(ctx, tokenHash)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.st.Ping(ctx)
}
