package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archsync/archsync/pkg/config"
)

const sampleConfig = `
"*":
  "*":
    serializer: generic
  Diagram:
    target_type: diagram
    serializer: diagram
  SystemFunction:
    links:
      - source
sa:
  SystemFunction:
    target_type: systemFunction
    serializer:
      template-dashboard:
        template: dashboard.html.j2
        field: dashboard
    links:
      - inputs.exchanges
      - attr: outputs
        role: output
        include:
          exchange items: exchange_items
  SystemComponent:
    - target_type: systemActor
      is_actor: true
    - target_type: systemComponent
`

func TestParse(t *testing.T) {
	cfg, err := config.Parse([]byte(sampleConfig), config.LoadOptions{})
	require.NoError(t, err)

	t.Run("layer entry inherits wildcard links", func(t *testing.T) {
		tc, err := cfg.Resolve("sa", "SystemFunction", config.Attributes{})
		require.NoError(t, err)
		assert.Equal(t, "systemFunction", tc.TargetType)

		attrs := make([]string, 0, len(tc.Links))
		for _, link := range tc.Links {
			attrs = append(attrs, link.Attr)
		}
		// Own links first, the global "source" link merged in.
		assert.Equal(t, []string{"inputs.exchanges", "outputs", "source"}, attrs)
	})

	t.Run("serializers merge parent order first", func(t *testing.T) {
		tc, err := cfg.Resolve("sa", "SystemFunction", config.Attributes{})
		require.NoError(t, err)
		require.Len(t, tc.Serializers, 2)
		assert.Equal(t, config.SerializerGeneric, tc.Serializers[0].Kind)
		assert.Equal(t, config.SerializerTemplate, tc.Serializers[1].Kind)
		assert.Equal(t, "template-dashboard", tc.Serializers[1].Name)
		assert.Equal(t, "dashboard.html.j2", tc.Serializers[1].StringParam("template", ""))
	})

	t.Run("link defaults derive role and fields", func(t *testing.T) {
		tc, err := cfg.Resolve("sa", "SystemFunction", config.Attributes{})
		require.NoError(t, err)
		link := tc.Links[1]
		assert.Equal(t, "output", link.Role)
		assert.Equal(t, "output", link.LinkField)
		assert.Empty(t, link.ReverseField)
		assert.Equal(t, map[string]string{"exchange items": "exchange_items"}, link.Include)
	})

	t.Run("diagram entry is separate", func(t *testing.T) {
		require.NotNil(t, cfg.DiagramConfig)
		assert.Equal(t, "diagram", cfg.DiagramConfig.TargetType)
	})

	t.Run("target types collect management scope", func(t *testing.T) {
		for _, typeName := range []string{"systemFunction", "systemActor", "systemComponent", "diagram"} {
			assert.True(t, cfg.TargetTypes[typeName], typeName)
		}
	})

	t.Run("unknown serializer fails", func(t *testing.T) {
		_, err := config.Parse([]byte("sa:\n  A:\n    serializer: bogus\n"), config.LoadOptions{})
		assert.Error(t, err)
	})

	t.Run("link without attr fails", func(t *testing.T) {
		_, err := config.Parse([]byte("sa:\n  A:\n    links:\n      - role: x\n"), config.LoadOptions{})
		assert.Error(t, err)
	})
}

func TestParseOptions(t *testing.T) {
	t.Run("grouped links toggle adds reverse fields", func(t *testing.T) {
		cfg, err := config.Parse([]byte(sampleConfig), config.LoadOptions{GroupedLinks: true})
		require.NoError(t, err)
		assert.True(t, cfg.GroupedLinksCustomFields)

		tc, err := cfg.Resolve("sa", "SystemFunction", config.Attributes{})
		require.NoError(t, err)
		assert.Equal(t, "output_reverse", tc.Links[1].ReverseField)
	})

	t.Run("prefixes apply to types and roles", func(t *testing.T) {
		cfg, err := config.Parse([]byte(sampleConfig), config.LoadOptions{
			TypePrefix: "cc",
			RolePrefix: "cc",
		})
		require.NoError(t, err)

		tc, err := cfg.Resolve("sa", "SystemFunction", config.Attributes{})
		require.NoError(t, err)
		assert.Equal(t, "cc_systemFunction", tc.TargetType)
		assert.Equal(t, "cc_output", tc.Links[1].Role)
	})
}
