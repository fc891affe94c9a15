// Package search provides an optional Meilisearch accelerator for name
// search over drive items. It only ever produces candidate IDs; access
// filtering happens in the service layer against Postgres, so a stale or
// unavailable index can degrade recall but never leak an item.
package search

import "drive/api/internal/store"

// ItemRecord is the data we index for a drive item.
type ItemRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"ownerId"`
	Type    string `json:"type"`
}

// RecordFromItem projects the searchable slice of an item.
func RecordFromItem(item store.Item) ItemRecord {
	return ItemRecord{
		ID:      item.ID,
		Name:    item.Name,
		OwnerID: item.OwnerUserID,
		Type:    string(item.Type),
	}
}

// Indexer can push items into a search index.
type Indexer interface {
	IndexItem(rec ItemRecord) error
	DeleteItem(id string) error
}

// Searcher can fetch candidate item IDs for an owner-scoped query.
type Searcher interface {
	SearchOwnedIDs(ownerID, text string, limit int) ([]string, error)
	Healthy() bool
}
