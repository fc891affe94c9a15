package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

// These tests need a reachable Postgres instance and are skipped under
// -short. They exercise the recursive-CTE queries that the in-memory
// fakes in other packages reimplement: subtree membership, depth-ordered
// listings, and ancestor share resolution.

func TestPostgresTreeQueries(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := Open(ctx, getTestDatabaseURL(t))
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	defer db.Close()

	if err := ApplyMigrations(ctx, db, filepath.Join("..", "..", "db", "migrations")); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	if _, err := db.ExecContext(ctx, `TRUNCATE item_share, item, refresh_sessions, revoked_access_tokens, users CASCADE`); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	st := NewPostgresStore(db)

	owner := User{ID: uuid.NewString(), Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	grantee := User{ID: uuid.NewString(), Username: "bob", Email: "bob@example.com", PasswordHash: "x"}
	for _, u := range []User{owner, grantee} {
		if err := st.CreateUser(ctx, u); err != nil {
			t.Fatalf("create user %s: %v", u.Username, err)
		}
	}

	// root
	//   reports/        (folder)
	//     q3.pdf        (file)
	//     archive/      (folder)
	//       old.pdf     (file)
	//   notes           (doc)
	root := insertTestItem(ctx, t, st, Item{OwnerUserID: owner.ID, Type: TypeFolder, Name: "root"})
	reports := insertTestItem(ctx, t, st, Item{OwnerUserID: owner.ID, ParentID: &root.ID, Type: TypeFolder, Name: "reports"})
	q3 := insertTestItem(ctx, t, st, Item{OwnerUserID: owner.ID, ParentID: &reports.ID, Type: TypeFile, Name: "q3.pdf", BlobKey: "items/q3"})
	archive := insertTestItem(ctx, t, st, Item{OwnerUserID: owner.ID, ParentID: &reports.ID, Type: TypeFolder, Name: "archive"})
	old := insertTestItem(ctx, t, st, Item{OwnerUserID: owner.ID, ParentID: &archive.ID, Type: TypeFile, Name: "old.pdf", BlobKey: "items/old"})
	notes := insertTestItem(ctx, t, st, Item{OwnerUserID: owner.ID, ParentID: &root.ID, Type: TypeDoc, Name: "notes"})

	t.Run("children ordering puts folders first then name", func(t *testing.T) {
		children, err := st.ListChildren(ctx, root.ID)
		if err != nil {
			t.Fatalf("list children: %v", err)
		}
		if len(children) != 2 {
			t.Fatalf("expected 2 children, got %d", len(children))
		}
		if children[0].ID != reports.ID || children[1].ID != notes.ID {
			t.Fatalf("expected [reports notes], got [%s %s]", children[0].Name, children[1].Name)
		}
	})

	t.Run("root listing returns only parentless items", func(t *testing.T) {
		roots, err := st.ListRootChildren(ctx, owner.ID)
		if err != nil {
			t.Fatalf("list roots: %v", err)
		}
		if len(roots) != 1 || roots[0].ID != root.ID {
			t.Fatalf("expected single root %s, got %v", root.ID, roots)
		}
	})

	t.Run("subtree membership", func(t *testing.T) {
		cases := []struct {
			rootID, candidateID string
			want                bool
		}{
			{reports.ID, old.ID, true},
			{reports.ID, reports.ID, true},
			{reports.ID, notes.ID, false},
			{archive.ID, q3.ID, false},
		}
		for _, tc := range cases {
			got, err := st.IsInSubtree(ctx, tc.rootID, tc.candidateID)
			if err != nil {
				t.Fatalf("is in subtree: %v", err)
			}
			if got != tc.want {
				t.Fatalf("IsInSubtree(%s, %s) = %v, want %v", tc.rootID, tc.candidateID, got, tc.want)
			}
		}
	})

	t.Run("subtree listing is deepest first", func(t *testing.T) {
		nodes, err := st.SubtreeDepthOrder(ctx, reports.ID)
		if err != nil {
			t.Fatalf("subtree depth order: %v", err)
		}
		if len(nodes) != 4 {
			t.Fatalf("expected 4 nodes, got %d", len(nodes))
		}
		for i := 1; i < len(nodes); i++ {
			if nodes[i].Depth > nodes[i-1].Depth {
				t.Fatalf("nodes not depth-descending at %d: %v", i, nodes)
			}
		}
		if nodes[0].ID != old.ID {
			t.Fatalf("expected deepest node %s first, got %s", old.ID, nodes[0].ID)
		}
		if nodes[len(nodes)-1].ID != reports.ID {
			t.Fatalf("expected subtree root last, got %s", nodes[len(nodes)-1].ID)
		}
	})

	t.Run("strongest ancestor share role", func(t *testing.T) {
		if err := st.UpsertShare(ctx, reports.ID, grantee.ID, RoleViewer); err != nil {
			t.Fatalf("upsert share: %v", err)
		}
		if err := st.UpsertShare(ctx, archive.ID, grantee.ID, RoleEditor); err != nil {
			t.Fatalf("upsert share: %v", err)
		}

		role, ok, err := st.StrongestAncestorShareRole(ctx, old.ID, grantee.ID)
		if err != nil {
			t.Fatalf("strongest role: %v", err)
		}
		if !ok || role != RoleEditor {
			t.Fatalf("expected EDITOR on old.pdf, got %s (found=%v)", role, ok)
		}

		role, ok, err = st.StrongestAncestorShareRole(ctx, q3.ID, grantee.ID)
		if err != nil {
			t.Fatalf("strongest role: %v", err)
		}
		if !ok || role != RoleViewer {
			t.Fatalf("expected VIEWER on q3.pdf, got %s (found=%v)", role, ok)
		}

		_, ok, err = st.StrongestAncestorShareRole(ctx, notes.ID, grantee.ID)
		if err != nil {
			t.Fatalf("strongest role: %v", err)
		}
		if ok {
			t.Fatal("expected no grant on notes")
		}

		// Re-sharing the same item replaces the role in place.
		if err := st.UpsertShare(ctx, reports.ID, grantee.ID, RoleEditor); err != nil {
			t.Fatalf("upsert share: %v", err)
		}
		grants, err := st.ListSharesForUser(ctx, grantee.ID)
		if err != nil {
			t.Fatalf("list shares: %v", err)
		}
		if len(grants) != 2 {
			t.Fatalf("expected 2 grants after upsert, got %d", len(grants))
		}
	})

	t.Run("scoped search", func(t *testing.T) {
		hits, err := st.SearchInSubtree(ctx, reports.ID, "pdf", 10)
		if err != nil {
			t.Fatalf("search in subtree: %v", err)
		}
		if len(hits) != 2 {
			t.Fatalf("expected 2 subtree hits, got %d", len(hits))
		}

		hits, err = st.SearchOwned(ctx, owner.ID, "notes", 10)
		if err != nil {
			t.Fatalf("search owned: %v", err)
		}
		if len(hits) != 1 || hits[0].ID != notes.ID {
			t.Fatalf("expected notes hit, got %v", hits)
		}

		hits, err = st.SearchSharedVisible(ctx, grantee.ID, "old", 10)
		if err != nil {
			t.Fatalf("search shared: %v", err)
		}
		if len(hits) != 1 || hits[0].ID != old.ID {
			t.Fatalf("expected shared hit for old.pdf, got %v", hits)
		}
	})

	t.Run("delete is bottom-up safe", func(t *testing.T) {
		nodes, err := st.SubtreeDepthOrder(ctx, archive.ID)
		if err != nil {
			t.Fatalf("subtree depth order: %v", err)
		}
		for _, n := range nodes {
			if err := st.DeleteItemByID(ctx, n.ID); err != nil {
				t.Fatalf("delete %s: %v", n.ID, err)
			}
		}
		ok, err := st.IsInSubtree(ctx, reports.ID, old.ID)
		if err != nil {
			t.Fatalf("is in subtree: %v", err)
		}
		if ok {
			t.Fatal("deleted node still reachable")
		}
	})
}

func TestPostgresRefreshSessions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := Open(ctx, getTestDatabaseURL(t))
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	defer db.Close()

	if err := ApplyMigrations(ctx, db, filepath.Join("..", "..", "db", "migrations")); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	st := NewPostgresStore(db)

	user := User{ID: uuid.NewString(), Username: "carol-" + uuid.NewString()[:8], PasswordHash: "x"}
	if err := st.CreateUser(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	hash := "hash-" + uuid.NewString()
	if err := st.SaveRefreshSession(ctx, hash, user.ID, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("save session: %v", err)
	}

	got, err := st.LookupRefreshSession(ctx, hash)
	if err != nil {
		t.Fatalf("lookup session: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, got.ID)
	}

	if err := st.RevokeRefreshSession(ctx, hash); err != nil {
		t.Fatalf("revoke session: %v", err)
	}
	if _, err := st.LookupRefreshSession(ctx, hash); err == nil {
		t.Fatal("expected lookup of revoked session to fail")
	}

	expired := "hash-" + uuid.NewString()
	if err := st.SaveRefreshSession(ctx, expired, user.ID, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("save expired session: %v", err)
	}
	if _, err := st.LookupRefreshSession(ctx, expired); err == nil {
		t.Fatal("expected lookup of expired session to fail")
	}
}

func insertTestItem(ctx context.Context, t *testing.T, st Store, item Item) Item {
	t.Helper()
	item.ID = uuid.NewString()
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	if err := st.InsertItem(ctx, item); err != nil {
		t.Fatalf("insert item %s: %v", item.Name, err)
	}
	// Distinct created_at values keep the ordering assertions stable.
	time.Sleep(2 * time.Millisecond)
	return item
}

// getTestDatabaseURL returns the database URL for testing. It checks the
// TEST_DATABASE_URL environment variable first, then falls back to the
// standard Postgres environment variables.
func getTestDatabaseURL(t *testing.T) string {
	t.Helper()

	if url := getenv("TEST_DATABASE_URL", ""); url != "" {
		return url
	}

	host := getenv("POSTGRES_HOST", "localhost")
	port := getenv("POSTGRES_PORT", "5432")
	user := getenv("POSTGRES_USER", "drive")
	pass := getenv("POSTGRES_PASSWORD", "drive")
	dbname := getenv("POSTGRES_DB", "drive_test")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + dbname + "?sslmode=disable"
}

func getenv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
