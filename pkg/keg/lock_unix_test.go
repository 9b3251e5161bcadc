//go:build unix

package keg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/cellar/pkg/errors"
)

func TestLock(t *testing.T) {
	l := newTestLayout(t)

	held, err := l.Lock("wget")
	require.NoError(t, err)
	assert.FileExists(t, l.LockPath("wget"))

	_, err = l.Lock("wget")
	assert.True(t, errors.Is(err, errors.ErrCodeLocked), "second lock should fail, got %v", err)

	other, err := l.Lock("curl")
	require.NoError(t, err, "locks are per formula")
	require.NoError(t, other.Release())

	require.NoError(t, held.Release())
	require.NoError(t, held.Release())

	again, err := l.Lock("wget")
	require.NoError(t, err)
	require.NoError(t, again.Release())
}
