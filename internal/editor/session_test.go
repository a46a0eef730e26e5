package editor

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotAndRestoreRoundTrip(t *testing.T) {
	s := NewState("fx main() {\n  println(1)\n}")
	s.MoveCursorTo(Position{Line: 1, Column: 2})

	sess := s.Snapshot()
	restored := Restore(sess)

	assert.Equal(t, s.Text(), restored.Text())
	assert.Equal(t, s.Cursor, restored.Cursor)
}

func TestSaveAndLoadSessionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workspace.yaml")
	sess := Session{Text: "let x = 1", CursorLine: 0, CursorColumn: 5, ScrollTop: 0}

	require.NoError(t, SaveSessionFile(path, sess))

	got, err := LoadSessionFile(path)
	require.NoError(t, err)
	assert.Equal(t, sess, got)
}
