package search

import (
	"testing"

	"drive/api/internal/store"
)

func TestServiceWithoutIndexIsNoop(t *testing.T) {
	svc := NewService(nil)

	if svc.Enabled() {
		t.Fatal("nil index must report disabled")
	}

	// These must not panic with no backend configured.
	svc.IndexItem(ItemRecord{ID: "i1", Name: "report"})
	svc.DeleteItem("i1")

	ids, ok := svc.OwnedCandidates("u1", "report", 10)
	if ok {
		t.Fatal("nil index must not claim candidates")
	}
	if len(ids) != 0 {
		t.Fatalf("ids = %v, want none", ids)
	}
}

func TestRecordFromItem(t *testing.T) {
	rec := RecordFromItem(store.Item{
		ID:          "i1",
		OwnerUserID: "u1",
		Type:        store.TypeDoc,
		Name:        "meeting notes",
	})
	if rec.ID != "i1" || rec.OwnerID != "u1" || rec.Type != "DOC" || rec.Name != "meeting notes" {
		t.Fatalf("record = %+v", rec)
	}
}
