// Package memory provides in-memory implementations of the remote
// work-item and document store boundaries. They back dry runs and
// tests; the REST-based stores live behind the same interfaces.
package memory

import (
	"context"
	"fmt"
	gosync "sync"

	"github.com/google/uuid"

	"github.com/archsync/archsync/pkg/errors"
	"github.com/archsync/archsync/pkg/sync"
	"github.com/archsync/archsync/pkg/workitem"
)

// Store is an in-memory work-item store. The zero value is not usable,
// use NewStore. All operations are safe for concurrent use.
type Store struct {
	mu    gosync.RWMutex
	items map[string]*workitem.RemoteItem // by remote ID

	// Call counters, readable through Stats.
	creates, patches, statusUpdates, deletes int
}

// Stats reports how many mutating calls of each kind the store served.
type Stats struct {
	Creates       int
	Patches       int
	StatusUpdates int
	Deletes       int
}

// NewStore creates an empty in-memory work-item store.
func NewStore() *Store {
	return &Store{items: make(map[string]*workitem.RemoteItem)}
}

// Seed inserts remote items directly, bypassing the call counters.
// Items without an ID get a generated one.
func (s *Store) Seed(items ...*workitem.RemoteItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		if item.ID == "" {
			item.ID = newRemoteID()
		}
		s.items[item.ID] = item
	}
}

// Stats returns the mutating call counts.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Creates:       s.creates,
		Patches:       s.patches,
		StatusUpdates: s.statusUpdates,
		Deletes:       s.deletes,
	}
}

// GetManagedItems returns a snapshot of every item carrying an
// external key.
func (s *Store) GetManagedItems(ctx context.Context) ([]*workitem.RemoteItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var managed []*workitem.RemoteItem
	for _, item := range s.items {
		if item.ExternalKey == "" {
			continue
		}
		copied := *item
		managed = append(managed, &copied)
	}
	return managed, nil
}

// CreateBatch stores the drafts and returns remote items with newly
// assigned identifiers, in input order.
func (s *Store) CreateBatch(ctx context.Context, drafts []*workitem.Draft) ([]*workitem.RemoteItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	created := make([]*workitem.RemoteItem, 0, len(drafts))
	for _, draft := range drafts {
		item := &workitem.RemoteItem{
			ID:          newRemoteID(),
			ExternalKey: draft.ExternalKey,
			Type:        draft.Type,
			Title:       draft.Title,
			Status:      draft.Status,
			Checksum:    draft.Checksum(),
		}
		s.items[item.ID] = item
		copied := *item
		created = append(created, &copied)
	}
	return created, nil
}

// PatchBatch applies content patches. Checksum and content change
// together or not at all.
func (s *Store) PatchBatch(ctx context.Context, patches []sync.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patches++
	for _, patch := range patches {
		item, ok := s.items[patch.RemoteID]
		if !ok {
			return errors.NewRemoteError("patch", patch.ExternalKey, errors.ErrNotFound)
		}
		item.Title = patch.Draft.Title
		item.Status = workitem.StatusOpen
		item.Checksum = patch.Checksum
	}
	return nil
}

// SetStatusBatch applies status-only updates.
func (s *Store) SetStatusBatch(ctx context.Context, updates []sync.StatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusUpdates++
	for _, update := range updates {
		item, ok := s.items[update.RemoteID]
		if !ok {
			return errors.NewRemoteError("status", update.ExternalKey, errors.ErrNotFound)
		}
		item.Status = update.Status
	}
	return nil
}

// DeleteBatch removes items permanently.
func (s *Store) DeleteBatch(ctx context.Context, remoteIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	for _, id := range remoteIDs {
		delete(s.items, id)
	}
	return nil
}

// newRemoteID allocates a remote work-item identifier.
func newRemoteID() string {
	return fmt.Sprintf("WI-%s", uuid.NewString()[:8])
}
