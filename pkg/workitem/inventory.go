package workitem

import (
	"sort"
)

// Inventory is a bidirectional mapping between external keys and
// remote-assigned identifiers, holding the last-known remote items.
//
// It only holds data already present in the remote store and receives
// updates when data was written there. The mapping is append-mostly
// during a run: keys created earlier in a pass become visible to link
// resolution of later elements.
type Inventory struct {
	byKey map[string]*RemoteItem
	keyID map[string]string // external key -> remote ID
	idKey map[string]string // remote ID -> external key
}

// NewInventory creates an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{
		byKey: make(map[string]*RemoteItem),
		keyID: make(map[string]string),
		idKey: make(map[string]string),
	}
}

// Upsert records items written to the remote store during this run.
// An item whose remote identifier was already mapped replaces the
// previous entry.
func (inv *Inventory) Upsert(items ...*RemoteItem) {
	for _, item := range items {
		if key, ok := inv.idKey[item.ID]; ok {
			delete(inv.byKey, key)
			delete(inv.keyID, key)
			delete(inv.idKey, item.ID)
		}
		inv.insert(item)
	}
}

func (inv *Inventory) insert(item *RemoteItem) {
	inv.byKey[item.ExternalKey] = item
	if item.ID != "" {
		inv.keyID[item.ExternalKey] = item.ID
		inv.idKey[item.ID] = item.ExternalKey
	}
}

// Has reports whether an external key has a remote representation.
func (inv *Inventory) Has(externalKey string) bool {
	_, ok := inv.byKey[externalKey]
	return ok
}

// RemoteID returns the remote identifier for an external key.
func (inv *Inventory) RemoteID(externalKey string) (string, bool) {
	id, ok := inv.keyID[externalKey]
	return id, ok
}

// KeyOf returns the external key for a remote identifier.
func (inv *Inventory) KeyOf(remoteID string) (string, bool) {
	key, ok := inv.idKey[remoteID]
	return key, ok
}

// Get returns the remote item for an external key.
func (inv *Inventory) Get(externalKey string) (*RemoteItem, bool) {
	item, ok := inv.byKey[externalKey]
	return item, ok
}

// Len returns the number of mapped external keys.
func (inv *Inventory) Len() int {
	return len(inv.byKey)
}

// Keys returns all external keys in sorted order for deterministic
// iteration.
func (inv *Inventory) Keys() []string {
	keys := make([]string, 0, len(inv.byKey))
	for key := range inv.byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Items yields all remote items ordered by external key.
func (inv *Inventory) Items() []*RemoteItem {
	items := make([]*RemoteItem, 0, len(inv.byKey))
	for _, key := range inv.Keys() {
		items = append(items, inv.byKey[key])
	}
	return items
}
