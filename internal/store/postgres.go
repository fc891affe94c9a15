package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore holds either a *sql.DB or, when obtained through WithTx, a
// *sql.Tx. All queries go through q() so the same methods work in both
// modes.
type PostgresStore struct {
	db *sql.DB
	tx *sql.Tx
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) q() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *PostgresStore) WithTx(ctx context.Context, fn func(Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&PostgresStore{db: s.db, tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const itemColumns = `id, owner_user_id, parent_id, type, name, COALESCE(mime_type, ''), size_bytes, COALESCE(blob_key, ''), created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (Item, error) {
	var item Item
	err := row.Scan(
		&item.ID,
		&item.OwnerUserID,
		&item.ParentID,
		&item.Type,
		&item.Name,
		&item.MimeType,
		&item.SizeBytes,
		&item.BlobKey,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}

func collectItems(rows *sql.Rows) ([]Item, error) {
	defer rows.Close()
	items := make([]Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetItem(ctx context.Context, id string) (Item, error) {
	item, err := scanItem(s.q().QueryRowContext(ctx, `SELECT `+itemColumns+` FROM item WHERE id=$1`, id))
	if err != nil {
		return Item{}, err
	}
	return item, nil
}

// Children listings group folders before files and docs, then sort by
// name, then by creation time. The ordering is a UI contract.
const childOrder = ` ORDER BY (type <> 'FOLDER') ASC, name ASC, created_at ASC`

func (s *PostgresStore) ListChildren(ctx context.Context, parentID string) ([]Item, error) {
	rows, err := s.q().QueryContext(ctx, `SELECT `+itemColumns+` FROM item WHERE parent_id=$1`+childOrder, parentID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return collectItems(rows)
}

func (s *PostgresStore) ListRootChildren(ctx context.Context, ownerID string) ([]Item, error) {
	rows, err := s.q().QueryContext(ctx, `SELECT `+itemColumns+` FROM item WHERE owner_user_id=$1 AND parent_id IS NULL`+childOrder, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list root children: %w", err)
	}
	return collectItems(rows)
}

func (s *PostgresStore) InsertItem(ctx context.Context, item Item) error {
	_, err := s.q().ExecContext(ctx, `
		INSERT INTO item (id, owner_user_id, parent_id, type, name, mime_type, size_bytes, blob_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, NULLIF($8, ''), $9, $10)
	`, item.ID, item.OwnerUserID, item.ParentID, item.Type, item.Name, item.MimeType, item.SizeBytes, item.BlobKey, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (s *PostgresStore) RenameItem(ctx context.Context, id, name string) error {
	result, err := s.q().ExecContext(ctx, `UPDATE item SET name=$2, updated_at=NOW() WHERE id=$1`, id, name)
	if err != nil {
		return fmt.Errorf("rename item: %w", err)
	}
	return oneRow(result)
}

func (s *PostgresStore) MoveItem(ctx context.Context, id string, parentID *string) error {
	result, err := s.q().ExecContext(ctx, `UPDATE item SET parent_id=$2, updated_at=NOW() WHERE id=$1`, id, parentID)
	if err != nil {
		return fmt.Errorf("move item: %w", err)
	}
	return oneRow(result)
}

func (s *PostgresStore) TouchItem(ctx context.Context, id string) error {
	result, err := s.q().ExecContext(ctx, `UPDATE item SET updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("touch item: %w", err)
	}
	return oneRow(result)
}

func oneRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// IsInSubtree reports whether candidateID lies in the subtree rooted at
// rootID, inclusive. A single bounded traversal over the parent/child edge.
func (s *PostgresStore) IsInSubtree(ctx context.Context, rootID, candidateID string) (bool, error) {
	const query = `
		WITH RECURSIVE subtree AS (
			SELECT id FROM item WHERE id = $1
			UNION
			SELECT c.id FROM item c JOIN subtree t ON c.parent_id = t.id
		)
		SELECT EXISTS(SELECT 1 FROM subtree WHERE id = $2)
	`
	var exists bool
	if err := s.q().QueryRowContext(ctx, query, rootID, candidateID).Scan(&exists); err != nil {
		return false, fmt.Errorf("subtree membership: %w", err)
	}
	return exists, nil
}

// SubtreeDepthOrder lists every node in the subtree rooted at rootID,
// deepest first. Deletion walks this so no child row ever outlives its
// parent when a cascade is interrupted.
func (s *PostgresStore) SubtreeDepthOrder(ctx context.Context, rootID string) ([]SubtreeNode, error) {
	const query = `
		WITH RECURSIVE subtree AS (
			SELECT id, type, blob_key, 0 AS depth FROM item WHERE id = $1
			UNION ALL
			SELECT c.id, c.type, c.blob_key, t.depth + 1 FROM item c JOIN subtree t ON c.parent_id = t.id
		)
		SELECT id, type, COALESCE(blob_key, ''), depth FROM subtree ORDER BY depth DESC
	`
	rows, err := s.q().QueryContext(ctx, query, rootID)
	if err != nil {
		return nil, fmt.Errorf("subtree depth order: %w", err)
	}
	defer rows.Close()

	nodes := make([]SubtreeNode, 0)
	for rows.Next() {
		var node SubtreeNode
		if err := rows.Scan(&node.ID, &node.Type, &node.BlobKey, &node.Depth); err != nil {
			return nil, fmt.Errorf("scan subtree node: %w", err)
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subtree: %w", err)
	}
	return nodes, nil
}

func (s *PostgresStore) DeleteItemByID(ctx context.Context, id string) error {
	if _, err := s.q().ExecContext(ctx, `DELETE FROM item WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

func (s *PostgresStore) SearchOwned(ctx context.Context, ownerID, query string, limit int) ([]Item, error) {
	rows, err := s.q().QueryContext(ctx, `
		SELECT `+itemColumns+` FROM item
		WHERE owner_user_id=$1 AND lower(name) LIKE lower($2)
		ORDER BY updated_at DESC
		LIMIT $3
	`, ownerID, "%"+query+"%", atLeastOne(limit))
	if err != nil {
		return nil, fmt.Errorf("search owned: %w", err)
	}
	return collectItems(rows)
}

func (s *PostgresStore) SearchInSubtree(ctx context.Context, rootID, query string, limit int) ([]Item, error) {
	rows, err := s.q().QueryContext(ctx, `
		WITH RECURSIVE subtree AS (
			SELECT id FROM item WHERE id = $1
			UNION
			SELECT c.id FROM item c JOIN subtree t ON c.parent_id = t.id
		)
		SELECT `+qualifiedItemColumns+` FROM item i
		JOIN subtree t ON i.id = t.id
		WHERE lower(i.name) LIKE lower($2)
		ORDER BY i.updated_at DESC
		LIMIT $3
	`, rootID, "%"+query+"%", atLeastOne(limit))
	if err != nil {
		return nil, fmt.Errorf("search in subtree: %w", err)
	}
	return collectItems(rows)
}

// SearchSharedVisible walks downward from every item directly granted to
// the user and matches names inside that forest. UNION (not UNION ALL)
// dedupes nodes reachable from more than one grant.
func (s *PostgresStore) SearchSharedVisible(ctx context.Context, userID, query string, limit int) ([]Item, error) {
	rows, err := s.q().QueryContext(ctx, `
		WITH RECURSIVE visible AS (
			SELECT s.item_id AS id FROM item_share s WHERE s.shared_with_user_id = $1
			UNION
			SELECT c.id FROM item c JOIN visible v ON c.parent_id = v.id
		)
		SELECT `+qualifiedItemColumns+` FROM item i
		JOIN visible v ON i.id = v.id
		WHERE lower(i.name) LIKE lower($2)
		ORDER BY i.updated_at DESC
		LIMIT $3
	`, userID, "%"+query+"%", atLeastOne(limit))
	if err != nil {
		return nil, fmt.Errorf("search shared visible: %w", err)
	}
	return collectItems(rows)
}

const qualifiedItemColumns = `i.id, i.owner_user_id, i.parent_id, i.type, i.name, COALESCE(i.mime_type, ''), i.size_bytes, COALESCE(i.blob_key, ''), i.created_at, i.updated_at`

func atLeastOne(limit int) int {
	if limit < 1 {
		return 1
	}
	return limit
}

func (s *PostgresStore) UpsertShare(ctx context.Context, itemID, userID string, role ShareRole) error {
	_, err := s.q().ExecContext(ctx, `
		INSERT INTO item_share (item_id, shared_with_user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (item_id, shared_with_user_id) DO UPDATE SET role=EXCLUDED.role
	`, itemID, userID, role)
	if err != nil {
		return fmt.Errorf("upsert share: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetShare(ctx context.Context, itemID, userID string) (ShareGrant, error) {
	var grant ShareGrant
	err := s.q().QueryRowContext(ctx, `
		SELECT item_id, shared_with_user_id, role, created_at
		FROM item_share
		WHERE item_id=$1 AND shared_with_user_id=$2
	`, itemID, userID).Scan(&grant.ItemID, &grant.SharedWithUserID, &grant.Role, &grant.CreatedAt)
	if err != nil {
		return ShareGrant{}, err
	}
	return grant, nil
}

func (s *PostgresStore) ListSharesForUser(ctx context.Context, userID string) ([]ShareGrant, error) {
	rows, err := s.q().QueryContext(ctx, `
		SELECT item_id, shared_with_user_id, role, created_at
		FROM item_share
		WHERE shared_with_user_id=$1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list shares for user: %w", err)
	}
	defer rows.Close()

	grants := make([]ShareGrant, 0)
	for rows.Next() {
		var grant ShareGrant
		if err := rows.Scan(&grant.ItemID, &grant.SharedWithUserID, &grant.Role, &grant.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		grants = append(grants, grant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shares: %w", err)
	}
	return grants, nil
}

// StrongestAncestorShareRole walks the ancestor chain of itemID (inclusive)
// in one traversal and returns the strongest role granted to userID on any
// node in that chain. Strongest-anywhere, not nearest-ancestor-wins:
// access flows down and accumulates, it never shrinks.
func (s *PostgresStore) StrongestAncestorShareRole(ctx context.Context, itemID, userID string) (ShareRole, bool, error) {
	const query = `
		WITH RECURSIVE ancestors AS (
			SELECT id, parent_id FROM item WHERE id = $1
			UNION
			SELECT p.id, p.parent_id FROM item p JOIN ancestors a ON a.parent_id = p.id
		)
		SELECT s.role
		FROM item_share s
		JOIN ancestors a ON a.id = s.item_id
		WHERE s.shared_with_user_id = $2
		ORDER BY CASE s.role WHEN 'OWNER' THEN 3 WHEN 'EDITOR' THEN 2 WHEN 'VIEWER' THEN 1 ELSE 0 END DESC
		LIMIT 1
	`
	var role ShareRole
	err := s.q().QueryRowContext(ctx, query, itemID, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("strongest ancestor share role: %w", err)
	}
	return role, true, nil
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
