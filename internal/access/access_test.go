package access

import (
	"context"
	"database/sql"
	"testing"

	"drive/api/internal/store"
)

type fakeStore struct {
	items  map[string]store.Item
	shares map[string]store.ShareRole // itemID -> strongest ancestor role for the test user
}

func (f *fakeStore) GetItem(ctx context.Context, id string) (store.Item, error) {
	it, ok := f.items[id]
	if !ok {
		return store.Item{}, sql.ErrNoRows
	}
	return it, nil
}

func (f *fakeStore) StrongestAncestorShareRole(ctx context.Context, itemID, userID string) (store.ShareRole, bool, error) {
	role, ok := f.shares[itemID]
	return role, ok, nil
}

func TestResolveOwnerIsEditor(t *testing.T) {
	st := &fakeStore{items: map[string]store.Item{
		"f1": {ID: "f1", OwnerUserID: "u1", Type: store.TypeFolder},
	}}
	lvl, err := Resolve(context.Background(), st, "u1", "f1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if lvl != Editor {
		t.Fatalf("owner level = %v, want Editor", lvl)
	}
}

func TestResolveMissingItemIsNone(t *testing.T) {
	st := &fakeStore{items: map[string]store.Item{}}
	lvl, err := Resolve(context.Background(), st, "u1", "gone")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if lvl != None {
		t.Fatalf("missing item level = %v, want None", lvl)
	}
}

func TestResolveNoGrantIsNone(t *testing.T) {
	st := &fakeStore{items: map[string]store.Item{
		"f1": {ID: "f1", OwnerUserID: "u1", Type: store.TypeFolder},
	}}
	lvl, err := Resolve(context.Background(), st, "u2", "f1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if lvl != None {
		t.Fatalf("stranger level = %v, want None", lvl)
	}
}

func TestResolveGrantRoles(t *testing.T) {
	cases := []struct {
		role store.ShareRole
		want Level
	}{
		{store.RoleViewer, Viewer},
		{store.RoleEditor, Editor},
		{store.RoleOwner, Editor},
	}
	for _, tc := range cases {
		st := &fakeStore{
			items:  map[string]store.Item{"d1": {ID: "d1", OwnerUserID: "u1", Type: store.TypeDoc}},
			shares: map[string]store.ShareRole{"d1": tc.role},
		}
		lvl, err := Resolve(context.Background(), st, "u2", "d1")
		if err != nil {
			t.Fatalf("resolve %s: %v", tc.role, err)
		}
		if lvl != tc.want {
			t.Fatalf("role %s level = %v, want %v", tc.role, lvl, tc.want)
		}
	}
}

// A viewer grant on the root plus an editor grant on a nested doc must
// resolve to Editor on the doc and to Viewer on its siblings.
func TestResolveStrongestAncestorWins(t *testing.T) {
	root := "root"
	st := &fakeStore{
		items: map[string]store.Item{
			"root":    {ID: "root", OwnerUserID: "u1", Type: store.TypeFolder},
			"doc":     {ID: "doc", OwnerUserID: "u1", ParentID: &root, Type: store.TypeDoc},
			"sibling": {ID: "sibling", OwnerUserID: "u1", ParentID: &root, Type: store.TypeDoc},
		},
		shares: map[string]store.ShareRole{
			"root":    store.RoleViewer,
			"doc":     store.RoleEditor,
			"sibling": store.RoleViewer,
		},
	}

	lvl, err := Resolve(context.Background(), st, "u2", "doc")
	if err != nil {
		t.Fatalf("resolve doc: %v", err)
	}
	if lvl != Editor {
		t.Fatalf("doc level = %v, want Editor", lvl)
	}

	lvl, err = Resolve(context.Background(), st, "u2", "sibling")
	if err != nil {
		t.Fatalf("resolve sibling: %v", err)
	}
	if lvl != Viewer {
		t.Fatalf("sibling level = %v, want Viewer", lvl)
	}
}

func TestLevelPredicates(t *testing.T) {
	if None.CanRead() || None.CanWrite() {
		t.Fatal("None must not read or write")
	}
	if !Viewer.CanRead() || Viewer.CanWrite() {
		t.Fatal("Viewer reads but must not write")
	}
	if !Editor.CanRead() || !Editor.CanWrite() {
		t.Fatal("Editor must read and write")
	}
}
