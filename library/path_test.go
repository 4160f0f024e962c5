package library

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tunegrab/tunegrab/filter"
)

func TestResolveCreatesArtistDir(t *testing.T) {
	base := t.TempDir()
	paths := NewPathResolver(base, filter.New(false))

	path, err := paths.Resolve("Some Artist", "Some Title", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "Some Artist", "Some Title.mp3"), path)
	assert.DirExists(t, filepath.Dir(path))
}

func TestResolveWithAlbum(t *testing.T) {
	base := t.TempDir()
	paths := NewPathResolver(base, filter.New(false))

	path, err := paths.Resolve("Artist", "Title", "Album")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "Artist", "Album", "Title.mp3"), path)
	assert.DirExists(t, filepath.Dir(path))
}

func TestResolveSanitizesComponents(t *testing.T) {
	base := t.TempDir()
	paths := NewPathResolver(base, filter.New(false))

	path, err := paths.Resolve(`Test/Artist\Name`, `Test: Song?`, "")
	require.NoError(t, err)
	relative, err := filepath.Rel(base, path)
	require.NoError(t, err)
	for _, component := range strings.Split(relative, string(filepath.Separator)) {
		assert.False(t, strings.ContainsAny(component, `<>:"/\|?*`), component)
	}
}

func TestFindExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Artist"), 0o755))
	track := filepath.Join(dir, "Artist", "Some Title.mp3")
	require.NoError(t, os.WriteFile(track, []byte("x"), 0o644))

	path, ok := FindExisting(dir, "Some Title")
	assert.True(t, ok)
	assert.Equal(t, track, path)

	// small naming drift still matches
	path, ok = FindExisting(dir, "some titles")
	assert.True(t, ok)
	assert.Equal(t, track, path)

	_, ok = FindExisting(dir, "Entirely Different Song")
	assert.False(t, ok)

	_, ok = FindExisting(dir, "")
	assert.False(t, ok)
}
