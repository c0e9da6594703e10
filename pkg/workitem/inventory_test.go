package workitem_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archsync/archsync/pkg/workitem"
)

func TestInventoryLookups(t *testing.T) {
	inv := workitem.NewInventory()
	inv.Upsert(
		&workitem.RemoteItem{ID: "WI-1", ExternalKey: "uuid-1"},
		&workitem.RemoteItem{ID: "WI-2", ExternalKey: "uuid-2"},
	)
	assert.Equal(t, 2, inv.Len())

	id, ok := inv.RemoteID("uuid-1")
	require.True(t, ok)
	assert.Equal(t, "WI-1", id)

	key, ok := inv.KeyOf("WI-2")
	require.True(t, ok)
	assert.Equal(t, "uuid-2", key)

	_, ok = inv.RemoteID("uuid-3")
	assert.False(t, ok)
}

func TestInventoryUpsert(t *testing.T) {
	inv := workitem.NewInventory()
	inv.Upsert(&workitem.RemoteItem{ID: "WI-1", ExternalKey: "uuid-1", Checksum: "c1"})
	inv.Upsert(&workitem.RemoteItem{ID: "WI-1", ExternalKey: "uuid-1", Checksum: "c2"})

	item, ok := inv.Get("uuid-1")
	require.True(t, ok)
	assert.Equal(t, "c2", item.Checksum)
	assert.Equal(t, 1, inv.Len())
}

func TestInventoryKeysSorted(t *testing.T) {
	inv := workitem.NewInventory()
	inv.Upsert(
		&workitem.RemoteItem{ID: "WI-2", ExternalKey: "b"},
		&workitem.RemoteItem{ID: "WI-1", ExternalKey: "a"},
		&workitem.RemoteItem{ID: "WI-3", ExternalKey: "c"},
	)
	assert.Equal(t, []string{"a", "b", "c"}, inv.Keys())

	items := inv.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "a", items[0].ExternalKey)
}
