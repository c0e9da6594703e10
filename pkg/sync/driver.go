package sync

import (
	"context"
	"sort"

	"github.com/archsync/archsync/pkg/config"
	"github.com/archsync/archsync/pkg/errors"
	"github.com/archsync/archsync/pkg/logging"
	"github.com/archsync/archsync/pkg/workitem"
)

// Driver compares drafts against the last-known remote inventory and
// issues the minimal set of batched remote mutations. One Driver
// serves one run.
//
// A single item's remote failure is recorded and never aborts the
// batch phase; already committed batches stay applied.
type Driver struct {
	store     Store
	inventory *workitem.Inventory
	opts      *Options

	// managedTypes is the management scope: remote items of other
	// types are never patched or deleted, even when their external key
	// collides with this configuration's key space.
	managedTypes map[string]bool

	// quarantined keys violated the at-most-one-representation
	// invariant in the remote snapshot and are excluded from all
	// phases of this run.
	quarantined map[string]bool

	result *Result
}

// NewDriver creates a Driver. The managed type set usually comes from
// config.Config.TargetTypes.
func NewDriver(store Store, inventory *workitem.Inventory, managedTypes map[string]bool, opts ...Option) *Driver {
	return &Driver{
		store:        store,
		inventory:    inventory,
		opts:         Defaults().Apply(opts...),
		managedTypes: managedTypes,
		quarantined:  make(map[string]bool),
		result:       newResult(),
	}
}

// Result returns the accumulated run result.
func (d *Driver) Result() *Result {
	return d.result
}

// LoadRemote fills the inventory from the remote snapshot. Keys held
// by more than one remote item are quarantined: the violation is
// reported and the key takes no further part in this run.
func (d *Driver) LoadRemote(ctx context.Context) error {
	items, err := d.store.GetManagedItems(ctx)
	if err != nil {
		return errors.WrapRemote("get", "", err)
	}

	byKey := make(map[string][]*workitem.RemoteItem)
	for _, item := range items {
		if item.ExternalKey == "" {
			continue
		}
		byKey[item.ExternalKey] = append(byKey[item.ExternalKey], item)
	}
	for key, matches := range byKey {
		if len(matches) > 1 {
			d.quarantined[key] = true
			d.result.addError(key, errors.NewInvariantError(
				"at-most-one-representation", key,
				"multiple remote items share one external key"))
			logging.Error().
				Str("external_key", key).
				Int("items", len(matches)).
				Msg("Duplicate external key in remote inventory, key excluded from this run")
			continue
		}
		d.inventory.Upsert(matches[0])
	}
	return nil
}

// CreateMissing issues bulk creates for every draft whose external key
// has no remote representation. Remote-assigned identifiers are
// recorded into the inventory so link resolution of subsequent
// elements can use them.
func (d *Driver) CreateMissing(ctx context.Context, session config.Session) {
	var missing []*workitem.Draft
	for _, key := range session.Keys() {
		data := session[key]
		if data.Draft == nil || d.quarantined[key] || d.inventory.Has(key) {
			continue
		}
		missing = append(missing, data.Draft)
	}

	for _, batch := range chunk(missing, d.opts.BatchSize) {
		created, err := d.store.CreateBatch(ctx, batch)
		if err != nil {
			for _, draft := range batch {
				d.result.addError(draft.ExternalKey, errors.WrapRemote("create", draft.ExternalKey, err))
			}
			logging.Error().Err(err).Int("items", len(batch)).Msg("Creating work items failed")
			continue
		}
		d.inventory.Upsert(created...)
		for _, item := range created {
			d.result.Created++
			d.result.States[item.ExternalKey] = StateCreated
			logging.Info().
				Str("external_key", item.ExternalKey).
				Str("remote_id", item.ID).
				Msg("Created work item")
		}
	}
}

// PatchChanged compares every draft with a remote representation
// against the stored checksum and patches only the changed ones.
// Checksum and content are always written in the same patch.
func (d *Driver) PatchChanged(ctx context.Context, session config.Session) {
	var patches []Patch
	restored := make(map[string]bool)
	for _, key := range session.Keys() {
		data := session[key]
		if data.Draft == nil || d.quarantined[key] {
			continue
		}
		remote, ok := d.inventory.Get(key)
		if !ok {
			continue
		}
		if !d.inScope(remote) {
			d.result.Skipped++
			logging.Warn().
				Str("external_key", key).
				Str("type", remote.Type).
				Msg("Remote item type outside management scope, not patched")
			continue
		}

		reappeared := remote.Status == workitem.StatusDeleted
		checksum := data.Draft.Checksum()
		if checksum == remote.Checksum && !reappeared && !d.opts.ForceUpdate {
			// Items created earlier in this pass settle here; counting
			// them as unchanged would double-count them in the summary.
			if d.result.States[key] != StateCreated {
				d.result.Unchanged++
			}
			d.markSynced(key)
			continue
		}
		if !d.opts.allowsStatus(remote.Status) && !reappeared {
			d.result.Skipped++
			d.markSynced(key)
			logging.Info().
				Str("external_key", key).
				Str("status", remote.Status).
				Msg("Status outside allow-list, item left unmodified")
			continue
		}
		if reappeared {
			restored[key] = true
		}
		patches = append(patches, Patch{
			RemoteID:    remote.ID,
			ExternalKey: key,
			Draft:       data.Draft,
			Checksum:    checksum,
		})
	}

	for _, batch := range chunk(patches, d.opts.BatchSize) {
		if err := d.store.PatchBatch(ctx, batch); err != nil {
			for _, patch := range batch {
				d.result.addError(patch.ExternalKey, errors.WrapRemote("patch", patch.ExternalKey, err))
			}
			logging.Error().Err(err).Int("items", len(batch)).Msg("Patching work items failed")
			continue
		}
		for _, patch := range batch {
			if remote, ok := d.inventory.Get(patch.ExternalKey); ok {
				remote.Checksum = patch.Checksum
				remote.Status = workitem.StatusOpen
				remote.Title = patch.Draft.Title
			}
			d.result.Patched++
			if restored[patch.ExternalKey] {
				d.result.Restored++
			}
			d.markSynced(patch.ExternalKey)
			logging.Info().
				Str("external_key", patch.ExternalKey).
				Str("remote_id", patch.RemoteID).
				Msg("Patched work item")
		}
	}
}

// MarkRemoved handles external keys that were previously synced but
// have no corresponding element in the current pass: one status update
// marking them deleted, or a hard deletion in destructive-delete mode.
func (d *Driver) MarkRemoved(ctx context.Context, session config.Session) {
	var updates []StatusUpdate
	var deletions []string
	deletionKeys := make(map[string]string)
	for _, key := range d.inventory.Keys() {
		if d.quarantined[key] {
			continue
		}
		if _, present := session[key]; present {
			continue
		}
		remote, _ := d.inventory.Get(key)
		if !d.inScope(remote) {
			continue
		}
		if remote.Status == workitem.StatusDeleted {
			// Already marked in an earlier run, nothing to issue.
			d.result.States[key] = StateMarkedDeleted
			continue
		}
		if d.opts.DeleteItems {
			deletions = append(deletions, remote.ID)
			deletionKeys[remote.ID] = key
		} else {
			updates = append(updates, StatusUpdate{
				RemoteID:    remote.ID,
				ExternalKey: key,
				Status:      workitem.StatusDeleted,
			})
		}
	}

	for _, batch := range chunk(updates, d.opts.BatchSize) {
		if err := d.store.SetStatusBatch(ctx, batch); err != nil {
			for _, update := range batch {
				d.result.addError(update.ExternalKey, errors.WrapRemote("status", update.ExternalKey, err))
			}
			logging.Error().Err(err).Int("items", len(batch)).Msg("Marking work items deleted failed")
			continue
		}
		for _, update := range batch {
			if remote, ok := d.inventory.Get(update.ExternalKey); ok {
				remote.Status = workitem.StatusDeleted
			}
			d.result.MarkedDeleted++
			d.result.States[update.ExternalKey] = StateMarkedDeleted
			logging.Info().Str("external_key", update.ExternalKey).Msg("Marked work item deleted")
		}
	}

	if len(deletions) > 0 {
		sort.Strings(deletions)
		if err := d.store.DeleteBatch(ctx, deletions); err != nil {
			for _, id := range deletions {
				d.result.addError(deletionKeys[id], errors.WrapRemote("delete", deletionKeys[id], err))
			}
			logging.Error().Err(err).Int("items", len(deletions)).Msg("Deleting work items failed")
			return
		}
		for _, id := range deletions {
			d.result.Deleted++
			d.result.States[deletionKeys[id]] = StateAbsent
		}
	}
}

// markSynced records the per-key synced state. Items created this run
// end up synced too once their checksum settles; the created count on
// the result keeps the creation visible.
func (d *Driver) markSynced(key string) {
	d.result.States[key] = StateSynced
}

// inScope reports whether a remote item belongs to this
// configuration's management scope.
func (d *Driver) inScope(remote *workitem.RemoteItem) bool {
	if len(d.managedTypes) == 0 || remote.Type == "" {
		return true
	}
	return d.managedTypes[remote.Type]
}

// chunk splits items into batches of at most size items. Size zero
// yields a single batch.
func chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 || size >= len(items) {
		return [][]T{items}
	}
	var batches [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end])
	}
	return batches
}
