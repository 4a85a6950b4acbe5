package fileloader

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := OpenCache(path)
	require.NoError(t, err)
	require.NoError(t, c.Put("https://a", []byte("one")))
	require.NoError(t, c.Close())

	c, err = OpenCache(path)
	require.NoError(t, err)
	defer c.Close()

	got, ok, err := c.Get("https://a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("one"), got)

	_, ok, err = c.Get("https://b")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Delete("https://a"))
	require.NoError(t, c.Delete("https://a"))
	keys, err := c.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}
