package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archsync/archsync/pkg/errors"
)

func TestConfigurationError(t *testing.T) {
	err := errors.NewConfigurationError("sa", "SystemFunction", "no matching configuration")
	assert.Equal(t, "configuration error for sa/SystemFunction: no matching configuration", err.Error())
	assert.True(t, errors.IsConfiguration(err))

	t.Run("ambiguous match unwraps", func(t *testing.T) {
		ambiguous := &errors.ConfigurationError{
			Layer:   "pa",
			Type:    "PhysicalComponent",
			Message: "two variants match",
			Err:     errors.ErrAmbiguousMatch,
		}
		assert.True(t, stderrors.Is(ambiguous, errors.ErrAmbiguousMatch))
		assert.True(t, errors.IsConfiguration(ambiguous))
	})
}

func TestResolutionError(t *testing.T) {
	err := errors.NewResolutionError("uuid-1", "uuid-2", "target has no remote representation")
	assert.True(t, errors.IsResolution(err))
	assert.Contains(t, err.Error(), "uuid-2")
}

func TestRemoteError(t *testing.T) {
	cause := errors.New("connection refused")
	err := errors.WrapRemote("create", "uuid-1", cause)
	assert.True(t, errors.IsRemote(err))
	assert.True(t, stderrors.Is(err, cause))

	t.Run("nil error wraps to nil", func(t *testing.T) {
		assert.NoError(t, errors.WrapRemote("create", "uuid-1", nil))
	})
}

func TestInvariantError(t *testing.T) {
	err := errors.NewInvariantError("at-most-one-representation", "uuid-1", "two items share one key")
	assert.True(t, errors.IsInvariant(err))
	assert.Contains(t, err.Error(), "at-most-one-representation")
}

func TestCollector(t *testing.T) {
	var c errors.Collector
	assert.True(t, c.Empty())
	assert.NoError(t, c.Err())

	c.Add(nil)
	assert.True(t, c.Empty())

	c.Add(errors.New("first"))
	c.Add(errors.New("second"))
	require.Len(t, c.Errors(), 2)

	err := c.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 error(s)")
}
