package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archsync/archsync/pkg/model"
)

func TestResolvePath(t *testing.T) {
	exchange := model.NewObject("ex-1", "FunctionalExchange", "sa", "Signal")
	input1 := model.NewObject("in-1", "FunctionInputPort", "sa", "P1").
		Set("exchanges", model.Of(exchange))
	input2 := model.NewObject("in-2", "FunctionInputPort", "sa", "P2").
		Set("exchanges", model.Of(exchange))
	fn := model.NewObject("fn-1", "SystemFunction", "sa", "Filter").
		Set("inputs", model.OfList([]model.Element{input1, input2})).
		Set("description", model.OfString("text"))

	t.Run("single hop", func(t *testing.T) {
		els := model.ResolvePath(fn, "inputs").Elements()
		require.Len(t, els, 2)
		assert.Equal(t, "in-1", els[0].UUID())
	})

	t.Run("multi hop flattens and dedups", func(t *testing.T) {
		els := model.ResolvePath(fn, "inputs.exchanges").Elements()
		require.Len(t, els, 1)
		assert.Equal(t, "ex-1", els[0].UUID())
	})

	t.Run("missing attribute yields absent", func(t *testing.T) {
		assert.True(t, model.ResolvePath(fn, "outputs").IsAbsent())
		assert.True(t, model.ResolvePath(fn, "inputs.missing.deeper").IsAbsent())
	})

	t.Run("scalar terminates the path", func(t *testing.T) {
		s, ok := model.ResolvePath(fn, "description").String()
		require.True(t, ok)
		assert.Equal(t, "text", s)
		assert.True(t, model.ResolvePath(fn, "description.more").IsAbsent())
	})

	t.Run("nil element yields absent", func(t *testing.T) {
		assert.True(t, model.ResolvePath(nil, "inputs").IsAbsent())
	})
}

func TestHasAttribute(t *testing.T) {
	fn := model.NewObject("fn-1", "SystemFunction", "sa", "Filter").
		Set("inputs", model.OfList(nil))
	assert.True(t, model.HasAttribute(fn, "inputs"))
	assert.True(t, model.HasAttribute(fn, "inputs.exchanges"))
	assert.False(t, model.HasAttribute(fn, "outputs"))
}

func TestParseGraph(t *testing.T) {
	raw := []byte(`
elements:
  - uuid: fn-1
    type: SystemFunction
    layer: sa
    name: Filter
    attrs:
      description: Removes particles
      is_actor: false
    refs:
      inputs: [port-1]
  - uuid: port-1
    type: FunctionInputPort
    layer: sa
    name: P1
`)
	elements, err := model.ParseGraph(raw)
	require.NoError(t, err)
	require.Len(t, elements, 2)

	fn := elements[0]
	assert.Equal(t, "SystemFunction", fn.TypeName())
	assert.Equal(t, "sa", fn.Layer())

	desc, ok := fn.Attribute("description")
	require.True(t, ok)
	s, _ := desc.String()
	assert.Equal(t, "Removes particles", s)

	inputs := model.ResolvePath(fn, "inputs").Elements()
	require.Len(t, inputs, 1)
	assert.Equal(t, "port-1", inputs[0].UUID())

	t.Run("unknown reference fails", func(t *testing.T) {
		_, err := model.ParseGraph([]byte(`
elements:
  - uuid: fn-1
    type: SystemFunction
    refs:
      inputs: [missing]
`))
		assert.Error(t, err)
	})

	t.Run("duplicate uuid fails", func(t *testing.T) {
		_, err := model.ParseGraph([]byte(`
elements:
  - uuid: fn-1
    type: A
  - uuid: fn-1
    type: B
`))
		assert.Error(t, err)
	})
}
