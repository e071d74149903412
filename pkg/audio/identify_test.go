package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectMissingFile(t *testing.T) {
	_, err := Inspect(filepath.Join(t.TempDir(), "nope.mp3"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInspectDirectory(t *testing.T) {
	_, err := Inspect(t.TempDir())
	assert.ErrorIs(t, err, ErrNotMP3)
}

func TestInspectAcceptsMP3Extension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Meeting.MP3")
	require.NoError(t, os.WriteFile(path, []byte("this is not really audio data"), 0644))

	info, err := Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, path, info.Path)
	assert.False(t, info.Identified)
	assert.Equal(t, "Meeting.MP3", info.DisplayName())
	assert.EqualValues(t, len("this is not really audio data"), info.Size)
}

func TestInspectRejectsOtherFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text notes, nothing else"), 0644))

	_, err := Inspect(path)
	assert.ErrorIs(t, err, ErrNotMP3)
}

func TestIsMP3Name(t *testing.T) {
	assert.True(t, IsMP3Name("a/b/c.mp3"))
	assert.True(t, IsMP3Name("C.Mp3"))
	assert.False(t, IsMP3Name("c.mp3.json"))
	assert.False(t, IsMP3Name("c"))
}
