package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAndDeleteChar(t *testing.T) {
	s := NewState("ab")
	s.MoveCursorTo(Position{Line: 0, Column: 1})
	s.InsertChar('X')
	assert.Equal(t, "aXb", s.Text())
	assert.Equal(t, Position{Line: 0, Column: 2}, s.Cursor)

	s.DeleteBackward()
	assert.Equal(t, "ab", s.Text())
	assert.Equal(t, Position{Line: 0, Column: 1}, s.Cursor)
}

func TestInsertCharSplitsLineOnNewline(t *testing.T) {
	s := NewState("abcd")
	s.MoveCursorTo(Position{Line: 0, Column: 2})
	s.InsertChar('\n')
	assert.Equal(t, "ab\ncd", s.Text())
	assert.Equal(t, Position{Line: 1, Column: 0}, s.Cursor)
}

func TestUndoRedoGroupsSingleCharInserts(t *testing.T) {
	s := NewState("")
	s.InsertChar('a')
	s.InsertChar('b')
	s.InsertChar('c')
	require.Equal(t, "abc", s.Text())
	require.Len(t, s.undoStack, 1, "consecutive single-char inserts should merge into one group")

	require.True(t, s.Undo())
	assert.Equal(t, "", s.Text())
	assert.True(t, s.CanRedo())

	require.True(t, s.Redo())
	assert.Equal(t, "abc", s.Text())
}

func TestUndoRestoresCursorAndClearsRedoOnNewEdit(t *testing.T) {
	s := NewState("hello")
	s.MoveCursorTo(Position{Line: 0, Column: 5})
	s.InsertString(" world")
	require.True(t, s.Undo())
	assert.Equal(t, "hello", s.Text())
	assert.Equal(t, Position{Line: 0, Column: 5}, s.Cursor)

	s.InsertChar('!')
	assert.False(t, s.CanRedo(), "a new edit must clear the redo stack")
}

func TestDeleteSelectionRemovesRangeAndRecordsOneGroup(t *testing.T) {
	s := NewState("hello world")
	s.Cursor = Position{Line: 0, Column: 0}
	s.StartSelection()
	s.Cursor = Position{Line: 0, Column: 5}
	s.UpdateSelectionFromAnchor()

	s.DeleteSelection()
	assert.Equal(t, " world", s.Text())
	assert.Nil(t, s.Selection)

	require.True(t, s.Undo())
	assert.Equal(t, "hello world", s.Text())
}

func TestIndentationAndOpenBraceDetection(t *testing.T) {
	buf := NewBuffer("  fx main() {\n    return 1\n  }")
	assert.Equal(t, "  ", buf.Indentation(0))
	assert.True(t, buf.EndsWithOpenBrace(0))
	assert.False(t, buf.EndsWithOpenBrace(1))
}

func TestEndsWithOpenBraceIgnoresTrailingComment(t *testing.T) {
	buf := NewBuffer("if x { // start block")
	assert.True(t, buf.EndsWithOpenBrace(0))
}

func TestInsertNewlineWithIndentAddsIndentLevel(t *testing.T) {
	s := NewState("fx main() {")
	s.MoveCursorTo(Position{Line: 0, Column: s.Buffer.LineLength(0)})
	s.InsertNewlineWithIndent()
	assert.Equal(t, "fx main() {\n    ", s.Text())
}

func TestHandleCloseBraceDedent(t *testing.T) {
	s := NewState("    ")
	s.MoveCursorTo(Position{Line: 0, Column: 4})
	s.HandleCloseBraceDedent()
	assert.Equal(t, "", s.Text())
	assert.Equal(t, Position{Line: 0, Column: 0}, s.Cursor)
}

func TestFindMatchingBracket(t *testing.T) {
	s := NewState("fx main() { if (a) { b() } }")
	pos, ok := s.FindMatchingBracket(Position{Line: 0, Column: 10})
	require.True(t, ok)
	assert.Equal(t, Position{Line: 0, Column: 27}, pos)
}

func TestEnsureCursorVisibleScrollsDown(t *testing.T) {
	text := ""
	for i := 0; i < 100; i++ {
		text += "line\n"
	}
	s := NewState(text)
	s.Viewport.LinesVisible = 10
	s.MoveCursorTo(Position{Line: 50, Column: 0})
	assert.True(t, s.Viewport.TopLine > 0)
	assert.LessOrEqual(t, s.Viewport.TopLine, 50)
}

func TestHighlightCacheCoversKeywordsAndStrings(t *testing.T) {
	s := NewState(`let x = "hi"`)
	spans := s.Highlights(0)
	require.NotEmpty(t, spans)

	var sawKeyword, sawString bool
	for _, sp := range spans {
		switch sp.Kind {
		case HighlightKeyword:
			sawKeyword = true
		case HighlightString:
			sawString = true
		}
	}
	assert.True(t, sawKeyword)
	assert.True(t, sawString)
}
