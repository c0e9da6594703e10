// Package sync decides, per external key, whether the remote store
// needs a create, a patch, a status update or nothing at all, and
// issues the minimal set of batched remote mutations. Identity is
// preserved across runs through the external-key custom field.
package sync

import (
	"context"

	"github.com/archsync/archsync/pkg/workitem"
)

// Patch carries the changed externally visible fields of one item plus
// the new checksum. Checksum and content are always written together.
type Patch struct {
	RemoteID    string
	ExternalKey string
	Draft       *workitem.Draft
	Checksum    string
}

// StatusUpdate sets the status field of one remote item.
type StatusUpdate struct {
	RemoteID    string
	ExternalKey string
	Status      string
}

// Store is the remote work-item store boundary. Every operation is
// batched and idempotent when retried with the same payload. REST
// transport, authentication and optimistic-concurrency handling live
// behind this interface.
type Store interface {
	// GetManagedItems returns every remote item carrying an external
	// key, the snapshot the run reconciles against.
	GetManagedItems(ctx context.Context) ([]*workitem.RemoteItem, error)

	// CreateBatch creates the drafts and returns the remote items with
	// their remote-assigned identifiers, in input order.
	CreateBatch(ctx context.Context, drafts []*workitem.Draft) ([]*workitem.RemoteItem, error)

	// PatchBatch applies content patches.
	PatchBatch(ctx context.Context, patches []Patch) error

	// SetStatusBatch applies status-only updates.
	SetStatusBatch(ctx context.Context, updates []StatusUpdate) error

	// DeleteBatch removes items permanently. Only used in
	// destructive-delete mode.
	DeleteBatch(ctx context.Context, remoteIDs []string) error
}
