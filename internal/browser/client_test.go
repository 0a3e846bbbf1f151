package browser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndoRunsInReverseOnFailure(t *testing.T) {
	var order []string
	var u undo
	u.push(func() error { order = append(order, "close page"); return nil })
	u.push(func() error { order = append(order, "stop routing"); return errors.New("stopped twice") })

	err := u.run()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "stopped twice")
	assert.Equal(t, []string{"stop routing", "close page"}, order)

	require.NoError(t, u.run(), "cleanups run once")
	assert.Len(t, order, 2)
}

func TestUndoKeepSkipsCleanup(t *testing.T) {
	called := false
	var u undo
	u.push(func() error { called = true; return nil })
	u.keep()

	require.NoError(t, u.run())
	assert.False(t, called)
}

func TestUndoEmpty(t *testing.T) {
	var u undo
	assert.NoError(t, u.run())
}
