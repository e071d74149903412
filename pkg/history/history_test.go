package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndRead(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "nested"))
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC) }

	assert.Empty(t, s.Read())
	require.NoError(t, s.Append("ok", "talk.mp3 -> talk.md"))
	require.NoError(t, s.Append("failed", "other.mp3: quota exceeded"))

	want := "[2026-10-17 09:30:00] OK: talk.mp3 -> talk.md\n" +
		"[2026-10-17 09:30:00] FAILED: other.mp3: quota exceeded\n"
	assert.Equal(t, want, s.Read())
}

func TestReset(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Reset())
	require.NoError(t, s.Append("ok", "x"))
	require.NoError(t, s.Reset())
	assert.Empty(t, s.Read())
}
