package store

import (
	"context"
	"time"
)

// Store is the metadata persistence surface for the item tree, share
// grants, and user accounts. PostgresStore implements it both directly and
// as a transaction-bound handle obtained through WithTx.
type Store interface {
	// WithTx runs fn against a single transaction snapshot. Access checks,
	// structural invariant checks, and the mutation they protect must all
	// happen inside one WithTx call so that a concurrent move or revoke
	// cannot slip between check and use. Nested calls reuse the outer
	// transaction.
	WithTx(ctx context.Context, fn func(Store) error) error

	GetItem(ctx context.Context, id string) (Item, error)
	ListChildren(ctx context.Context, parentID string) ([]Item, error)
	ListRootChildren(ctx context.Context, ownerID string) ([]Item, error)
	InsertItem(ctx context.Context, item Item) error
	RenameItem(ctx context.Context, id, name string) error
	MoveItem(ctx context.Context, id string, parentID *string) error
	TouchItem(ctx context.Context, id string) error
	IsInSubtree(ctx context.Context, rootID, candidateID string) (bool, error)
	SubtreeDepthOrder(ctx context.Context, rootID string) ([]SubtreeNode, error)
	DeleteItemByID(ctx context.Context, id string) error

	SearchOwned(ctx context.Context, ownerID, query string, limit int) ([]Item, error)
	SearchInSubtree(ctx context.Context, rootID, query string, limit int) ([]Item, error)
	SearchSharedVisible(ctx context.Context, userID, query string, limit int) ([]Item, error)

	UpsertShare(ctx context.Context, itemID, userID string, role ShareRole) error
	GetShare(ctx context.Context, itemID, userID string) (ShareGrant, error)
	ListSharesForUser(ctx context.Context, userID string) ([]ShareGrant, error)
	StrongestAncestorShareRole(ctx context.Context, itemID, userID string) (ShareRole, bool, error)

	CreateUser(ctx context.Context, user User) error
	GetUserByID(ctx context.Context, id string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)

	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error

	RevokeAccessToken(ctx context.Context, jti string, expiresAt time.Time) error
	IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error)

	Ping(ctx context.Context) error
}
