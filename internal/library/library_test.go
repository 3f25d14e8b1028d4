package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0644))
	}
}

func TestIsVideo(t *testing.T) {
	assert.True(t, IsVideo("a.mp4"))
	assert.True(t, IsVideo("B.MKV"))
	assert.True(t, IsVideo("clip.webm"))
	assert.False(t, IsVideo("notes.txt"))
	assert.False(t, IsVideo("thumb.jpg"))
	assert.False(t, IsVideo("noext"))
}

func TestListFiltersVideos(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b.mp4", "a.webm", "readme.txt", "cover.jpg")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.mp4"), 0755))

	lib := New(zerolog.Nop(), dir)
	entries, err := lib.List()
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "a.webm", entries[0].Name)
	assert.Equal(t, "b.mp4", entries[1].Name)
	assert.Equal(t, int64(len("b.mp4")), entries[1].Size)
	assert.Equal(t, filepath.Join(dir, "b.mp4"), entries[1].Path)
}

func TestListMissingDir(t *testing.T) {
	lib := New(zerolog.Nop(), filepath.Join(t.TempDir(), "missing"))
	entries, err := lib.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClean(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "one.mp4", "two.mov", "keep.txt")

	lib := New(zerolog.Nop(), dir)
	removed, err := lib.Clean()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	entries, err := lib.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.FileExists(t, filepath.Join(dir, "keep.txt"))
}

func TestEntryHumanSize(t *testing.T) {
	assert.Equal(t, "12 MB", Entry{Size: 12 * 1000 * 1000}.HumanSize())
	assert.Equal(t, "0 B", Entry{}.HumanSize())
}
