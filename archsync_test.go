package archsync_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archsync/archsync"
	"github.com/archsync/archsync/internal/memory"
	"github.com/archsync/archsync/pkg/config"
	"github.com/archsync/archsync/pkg/document"
	"github.com/archsync/archsync/pkg/model"
)

const engineConfig = `
sa:
  SystemCapability:
    target_type: systemCapability
    serializer: generic
    links:
      - attr: involved
        role: involves
        reverse_field: involves_reverse
  SystemFunction:
    target_type: systemFunction
    serializer: generic
`

const engineTemplate = `
sections:
  - heading:
      level: 1
      text: Capabilities
  - work_items:
      type: SystemCapability
`

func modelGraph() []model.Element {
	fn := model.NewObject("fn-1", "SystemFunction", "sa", "Filter")
	cap := model.NewObject("cap-1", "SystemCapability", "sa", "Fly").
		Set("involved", model.Of(fn)).
		Set("description", model.OfString("<p>Fly around.</p>"))
	return []model.Element{cap, fn}
}

func newEngine(t *testing.T) (*archsync.Engine, *memory.Store, *memory.DocumentStore) {
	t.Helper()
	cfg, err := config.Parse([]byte(engineConfig), config.LoadOptions{})
	require.NoError(t, err)
	store := memory.NewStore()
	docs := memory.NewDocumentStore()
	engine := archsync.New(cfg, store, archsync.WithDocumentStore(docs))
	return engine, store, docs
}

func TestEngineFullRun(t *testing.T) {
	engine, store, _ := newEngine(t)
	ctx := context.Background()

	state, err := engine.SyncElements(ctx, modelGraph())
	require.NoError(t, err)
	require.False(t, state.Result.HasErrors(), "%v", state.Result.Errors)

	assert.Equal(t, 2, state.Result.Created)
	// Both items gain grouped link fields after creation, so the same
	// pass patches them.
	assert.Equal(t, 2, state.Result.Patched)

	t.Run("backlink lands on the target", func(t *testing.T) {
		fn := state.Session["fn-1"].Draft
		require.NotNil(t, fn)
		_, ok := fn.CustomFields["involves_reverse"]
		assert.True(t, ok)
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		patchesBefore := store.Stats().Patches
		second, err := engine.SyncElements(ctx, modelGraph())
		require.NoError(t, err)
		assert.Equal(t, 0, second.Result.TotalMutations(), second.Result.Summary())
		assert.Equal(t, 1, store.Stats().Creates)
		assert.Equal(t, patchesBefore, store.Stats().Patches)
	})
}

func TestEngineDocuments(t *testing.T) {
	engine, _, docs := newEngine(t)
	ctx := context.Background()

	tplPath := filepath.Join(t.TempDir(), "caps.yaml")
	require.NoError(t, os.WriteFile(tplPath, []byte(engineTemplate), 0o644))

	state, err := engine.SyncElements(ctx, modelGraph())
	require.NoError(t, err)

	docConfigs := []document.Config{{
		Space:    "_default",
		Name:     "capabilities",
		Template: tplPath,
		Mode:     document.ModeFull,
	}}

	results := engine.RenderDocuments(ctx, state, docConfigs, nil)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.True(t, results[0].Created)
	assert.Equal(t, 2, results[0].Sections)

	t.Run("rerun updates in place", func(t *testing.T) {
		results := engine.RenderDocuments(ctx, state, docConfigs, nil)
		require.Len(t, results, 1)
		require.NoError(t, results[0].Err)
		assert.False(t, results[0].Created)

		doc, err := docs.GetDocument(ctx, "_default", "capabilities")
		require.NoError(t, err)
		require.Len(t, doc.Sections, 2)
		assert.NotEmpty(t, doc.Sections[0].RemoteID, "heading keeps its work item")
	})
}
