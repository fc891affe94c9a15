package search

import (
	"github.com/rs/zerolog/log"
)

// Service is the facade the item service talks to. It hides whether an
// index is configured at all; indexing calls are fire-and-forget and
// candidate lookups report whether they produced anything usable.
type Service struct {
	meili *Meili
}

// NewService creates a search service. meili may be nil when Meilisearch
// is not configured; every method degrades to a no-op then.
func NewService(meili *Meili) *Service {
	return &Service{meili: meili}
}

// Enabled reports whether an index is configured and reachable.
func (s *Service) Enabled() bool {
	return s.meili != nil && s.meili.Healthy()
}

// IndexItem pushes an item into the index (fire-and-forget).
func (s *Service) IndexItem(rec ItemRecord) {
	if !s.Enabled() {
		return
	}
	go func() {
		if err := s.meili.IndexItem(rec); err != nil {
			log.Warn().Err(err).Str("item_id", rec.ID).Msg("search: index item")
		}
	}()
}

// DeleteItem removes an item from the index (fire-and-forget).
func (s *Service) DeleteItem(id string) {
	if !s.Enabled() {
		return
	}
	go func() {
		if err := s.meili.DeleteItem(id); err != nil {
			log.Warn().Err(err).Str("item_id", id).Msg("search: delete item")
		}
	}()
}

// OwnedCandidates returns candidate item IDs for an owner-scoped query.
// ok is false when the index is unavailable or errored; the caller falls
// back to SQL then.
func (s *Service) OwnedCandidates(ownerID, text string, limit int) (ids []string, ok bool) {
	if !s.Enabled() {
		return nil, false
	}
	ids, err := s.meili.SearchOwnedIDs(ownerID, text, limit)
	if err != nil {
		log.Warn().Err(err).Msg("search: meilisearch error, falling back to sql")
		return nil, false
	}
	return ids, true
}
