// Package access resolves the effective access level a user has on an
// item: ownership grants full access, and share grants on any ancestor
// flow down to the whole subtree.
package access

import (
	"context"
	"database/sql"
	"errors"

	"drive/api/internal/store"
)

// Level is the resolved effective access for a (user, item) pair. It is
// derived on every call and never persisted.
type Level int

const (
	None Level = iota
	Viewer
	Editor
)

func (l Level) String() string {
	switch l {
	case Viewer:
		return "VIEWER"
	case Editor:
		return "EDITOR"
	default:
		return "NONE"
	}
}

func (l Level) CanRead() bool  { return l != None }
func (l Level) CanWrite() bool { return l == Editor }

// FromRole maps a stored share role to the level it confers. OWNER and
// EDITOR grants both resolve to Editor.
func FromRole(role store.ShareRole) Level {
	switch role {
	case store.RoleOwner, store.RoleEditor:
		return Editor
	case store.RoleViewer:
		return Viewer
	default:
		return None
	}
}

// Store is the slice of the metadata store the resolver reads.
type Store interface {
	GetItem(ctx context.Context, id string) (store.Item, error)
	StrongestAncestorShareRole(ctx context.Context, itemID, userID string) (store.ShareRole, bool, error)
}

// Resolve computes the effective access userID has on itemID.
//
// Missing items resolve to None rather than an error. Owners always get
// Editor, independent of grants. Otherwise the strongest grant anywhere on
// the ancestor chain wins: a narrow grant downstream never downgrades a
// broader one upstream, and a generous grant deeper in the tree is honored
// even under a restrictive one higher up.
//
// Callers must invoke this on the same store handle (transaction) as the
// read or mutation it protects.
func Resolve(ctx context.Context, st Store, userID, itemID string) (Level, error) {
	item, err := st.GetItem(ctx, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return None, nil
	}
	if err != nil {
		return None, err
	}

	if item.OwnerUserID == userID {
		return Editor, nil
	}

	role, found, err := st.StrongestAncestorShareRole(ctx, itemID, userID)
	if err != nil {
		return None, err
	}
	if !found {
		return None, nil
	}
	return FromRole(role), nil
}
