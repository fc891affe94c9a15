package store

import "time"

// ItemType discriminates the three node kinds in the tree. Only folders
// may parent other items.
type ItemType string

const (
	TypeFolder ItemType = "FOLDER"
	TypeFile   ItemType = "FILE"
	TypeDoc    ItemType = "DOC"
)

// ShareRole is the role recorded on a share grant. OWNER and EDITOR both
// resolve to write access; VIEWER to read access.
type ShareRole string

const (
	RoleViewer ShareRole = "VIEWER"
	RoleEditor ShareRole = "EDITOR"
	RoleOwner  ShareRole = "OWNER"
)

// Item is a node in a per-owner tree. ParentID nil means the item is a
// tree root. BlobKey is set for FILE items (object storage) and empty for
// folders; DOC payloads live in the external document service under the
// item's own id.
type Item struct {
	ID          string
	OwnerUserID string
	ParentID    *string
	Type        ItemType
	Name        string
	MimeType    string
	SizeBytes   *int64
	BlobKey     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ShareGrant is one (item, grantee) row. The pair is the primary key, so
// re-sharing upserts the role in place.
type ShareGrant struct {
	ItemID           string
	SharedWithUserID string
	Role             ShareRole
	CreatedAt        time.Time
}

// SubtreeNode is one row of a depth-ordered subtree listing.
type SubtreeNode struct {
	ID      string
	Type    ItemType
	BlobKey string
	Depth   int
}

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
