package document_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archsync/archsync/pkg/config"
	"github.com/archsync/archsync/pkg/document"
	"github.com/archsync/archsync/pkg/errors"
	"github.com/archsync/archsync/pkg/model"
	"github.com/archsync/archsync/pkg/workitem"
)

const sampleTemplate = `
sections:
  - heading:
      level: 1
      text: "{{title}}"
  - text: "<p>Overview of {{name}}.</p>"
  - work_items:
      layer: sa
      type: SystemCapability
  - work_item: fn-1
`

// syncedState builds a session and inventory as they look after the
// element pass: every element serialized and mapped to a remote item.
func syncedState(t *testing.T, elements ...model.Element) (config.Session, *workitem.Inventory) {
	t.Helper()
	session := make(config.Session)
	inv := workitem.NewInventory()
	for i, el := range elements {
		draft := workitem.NewDraft(el.UUID(), "systemCapability")
		draft.Title = el.Name()
		session[el.UUID()] = &config.ConverterData{
			Element: el,
			Layer:   el.Layer(),
			Draft:   draft,
		}
		inv.Upsert(&workitem.RemoteItem{
			ID:          "WI-" + string(rune('1'+i)),
			ExternalKey: el.UUID(),
		})
	}
	return session, inv
}

func TestRender(t *testing.T) {
	capA := model.NewObject("cap-a", "SystemCapability", "sa", "Fly")
	capB := model.NewObject("cap-b", "SystemCapability", "sa", "Land")
	fn := model.NewObject("fn-1", "SystemFunction", "sa", "Filter")
	session, inv := syncedState(t, capA, capB, fn)

	tpl, err := document.ParseTemplate([]byte(sampleTemplate), "caps.yaml")
	require.NoError(t, err)

	cfg := document.Config{
		Space: "_default", Name: "caps", Mode: document.ModeFull,
		Params: map[string]string{"title": "Capabilities", "name": "the system"},
	}
	sections, err := document.NewRenderer(session, inv).Render(cfg, tpl)
	require.NoError(t, err)
	require.Len(t, sections, 5)

	t.Run("params expand in headings and text", func(t *testing.T) {
		assert.Equal(t, "Capabilities", sections[0].Text)
		assert.Equal(t, "<p>Overview of the system.</p>", sections[1].Text)
	})

	t.Run("queries expand in key order", func(t *testing.T) {
		assert.Equal(t, "cap-a", sections[2].ExternalKey)
		assert.Equal(t, "cap-b", sections[3].ExternalKey)
		assert.NotEmpty(t, sections[2].RemoteID)
	})

	t.Run("explicit references resolve", func(t *testing.T) {
		assert.Equal(t, "fn-1", sections[4].ExternalKey)
	})
}

func TestRenderUnresolvedReferenceFatal(t *testing.T) {
	session, inv := syncedState(t)
	tpl, err := document.ParseTemplate([]byte("sections:\n  - work_item: ghost\n"), "t.yaml")
	require.NoError(t, err)

	_, err = document.NewRenderer(session, inv).Render(document.Config{Space: "s", Name: "n"}, tpl)
	require.Error(t, err)
	assert.True(t, errors.IsResolution(err))
}

func TestParseTemplateRejectsBadArea(t *testing.T) {
	_, err := document.ParseTemplate([]byte("sections:\n  - area: middle\n"), "t.yaml")
	assert.Error(t, err)
}

func TestConfigInstances(t *testing.T) {
	cap := model.NewObject("cap-a", "SystemCapability", "sa", "Fly")
	root := model.NewObject("root", "SystemAnalysis", "sa", "System").
		Set("capabilities", model.OfList([]model.Element{cap}))

	cfg := document.Config{
		Space:    "_default",
		Name:     "{{name}} capability",
		Template: "caps.yaml",
		ForEach:  "capabilities",
	}
	instances, err := cfg.Instances(root)
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, "Fly capability", instances[0].Name)
	assert.Equal(t, "cap-a", instances[0].Params["element"])

	t.Run("without for_each the config is itself", func(t *testing.T) {
		plain := document.Config{Space: "s", Name: "n"}
		instances, err := plain.Instances(nil)
		require.NoError(t, err)
		require.Len(t, instances, 1)
		assert.Equal(t, plain, instances[0])
	})
}

func TestParseConfigs(t *testing.T) {
	raw := []byte(`
documents:
  - space: _default
    name: caps
    template: caps.yaml
    mode: mixed
    heading_numbering: true
    status_allow_list: [draft]
`)
	configs, err := document.ParseConfigs(raw, "documents.yaml")
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, document.ModeMixed, configs[0].Mode)
	assert.True(t, configs[0].HeadingNumbering)

	t.Run("missing identity fails", func(t *testing.T) {
		_, err := document.ParseConfigs([]byte("documents:\n  - name: x\n"), "d.yaml")
		assert.Error(t, err)
	})

	t.Run("unknown mode fails", func(t *testing.T) {
		_, err := document.ParseConfigs([]byte("documents:\n  - space: s\n    name: x\n    mode: other\n"), "d.yaml")
		assert.Error(t, err)
	})
}
