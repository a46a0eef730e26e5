package editor

import "time"

// indentUnit is one auto-indent level (INDENT_SIZE in the original widget).
const indentUnit = "    "

// State ties the buffer, cursor/selection, undo history, viewport, and
// syntax-highlight cache together into the single mutable value every
// editor operation acts on.
type State struct {
	Buffer          *Buffer
	Cursor          Position
	SelectionAnchor *Position
	Selection       *Selection

	Viewport Viewport

	MatchingBracket *BracketPair

	highlightCache [][]HighlightSpan
	dirtyLines     map[int]bool

	undoStack    []EditGroup
	redoStack    []EditGroup
	lastEditTime *time.Time
}

// NewState creates editor state over text, with the cursor at the start and
// every line marked dirty for an initial highlight pass.
func NewState(text string) *State {
	s := &State{
		Buffer: NewBuffer(text),
		Cursor: Position{},
		Viewport: Viewport{
			LinesVisible:   defaultViewportLines,
			ColumnsVisible: defaultViewportColumns,
		},
	}
	s.markAllDirty()
	s.rebuildHighlightCache()
	return s
}

// Text returns the full document contents.
func (s *State) Text() string { return s.Buffer.String() }

func (s *State) markAllDirty() {
	s.dirtyLines = make(map[int]bool, s.Buffer.LineCount())
	for i := 0; i < s.Buffer.LineCount(); i++ {
		s.dirtyLines[i] = true
	}
}

func (s *State) markDirty(line int) {
	if s.dirtyLines == nil {
		s.dirtyLines = make(map[int]bool)
	}
	s.dirtyLines[line] = true
}

// ClearSelection drops any active selection without touching the cursor.
func (s *State) ClearSelection() {
	s.SelectionAnchor = nil
	s.Selection = nil
}

// StartSelection anchors a new selection at the current cursor.
func (s *State) StartSelection() {
	anchor := s.Cursor
	s.SelectionAnchor = &anchor
	s.Selection = &Selection{Start: anchor, End: anchor}
}

// UpdateSelectionFromAnchor extends the active selection's live end to the
// current cursor, starting a new selection if none is anchored yet.
func (s *State) UpdateSelectionFromAnchor() {
	if s.SelectionAnchor == nil {
		s.StartSelection()
		return
	}
	s.Selection = &Selection{Start: *s.SelectionAnchor, End: s.Cursor}
}

// MoveCursorTo relocates the cursor, clamped to the buffer, and recomputes
// bracket matching and viewport visibility.
func (s *State) MoveCursorTo(pos Position) {
	s.Cursor = s.Buffer.Clamp(pos)
	s.updateMatchingBracket()
	s.EnsureCursorVisible()
}

// InsertChar inserts ch at the cursor (replacing the selection if any),
// records the edit for undo, and advances the cursor past it.
func (s *State) InsertChar(ch rune) {
	if s.Selection != nil && !s.Selection.IsEmpty() {
		s.DeleteSelection()
	}
	s.insertCharWithUndo(ch, true)
}

// InsertString inserts text at the cursor, recorded as a single Insert
// operation for the whole string; recordEdit's grouping rule merges it into
// the previous undo group only when text is one character (ordinary pastes
// do not group).
func (s *State) InsertString(text string) {
	if s.Selection != nil && !s.Selection.IsEmpty() {
		s.DeleteSelection()
	}
	before := s.Cursor
	selBefore := s.selectionSnapshot()
	start := s.Cursor
	s.insertTextAt(start, text)
	end := s.advance(start, text)
	s.Cursor = end
	s.ClearSelection()
	s.markRangeDirty(start.Line, end.Line)
	s.recordEdit(EditOperation{
		Kind:            EditInsert,
		Position:        start,
		Text:            text,
		CursorBefore:    before,
		CursorAfter:     end,
		SelectionBefore: selBefore,
	})
	s.afterMutation()
}

func (s *State) insertCharWithUndo(ch rune, record bool) {
	before := s.Cursor
	selBefore := s.selectionSnapshot()
	pos := s.Cursor
	after := s.Buffer.InsertChar(pos, ch)
	s.Cursor = after
	s.markRangeDirty(pos.Line, after.Line)

	if record {
		s.recordEdit(EditOperation{
			Kind:            EditInsert,
			Position:        pos,
			Text:            string(ch),
			CursorBefore:    before,
			CursorAfter:     after,
			SelectionBefore: selBefore,
		})
	}
	s.afterMutation()
}

// InsertNewlineWithIndent inserts '\n' followed by the current line's
// indentation, plus one extra indent level if the line being split ends
// with an open brace.
func (s *State) InsertNewlineWithIndent() {
	if s.Selection != nil && !s.Selection.IsEmpty() {
		s.DeleteSelection()
	}
	indent := s.Buffer.Indentation(s.Cursor.Line)
	if s.Buffer.EndsWithOpenBrace(s.Cursor.Line) {
		indent += indentUnit
	}
	s.InsertString("\n" + indent)
}

// HandleCloseBraceDedent removes one indent level from the current line
// when the cursor sits in its leading whitespace, just before typing '}'.
func (s *State) HandleCloseBraceDedent() {
	if !s.isAtLineStartWhitespace() {
		return
	}
	indent := s.Buffer.Indentation(s.Cursor.Line)
	if len(indent) < len(indentUnit) {
		return
	}
	newIndent := indent[:len(indent)-len(indentUnit)]
	start := Position{Line: s.Cursor.Line, Column: 0}
	end := Position{Line: s.Cursor.Line, Column: len(indent)}
	s.replaceRange(start, end, newIndent)
	s.Cursor = Position{Line: s.Cursor.Line, Column: len(newIndent)}
}

func (s *State) isAtLineStartWhitespace() bool {
	indent := s.Buffer.Indentation(s.Cursor.Line)
	return s.Cursor.Column <= len(indent)
}

func (s *State) replaceRange(start, end Position, text string) {
	before := s.Cursor
	selBefore := s.selectionSnapshot()
	old := s.Buffer.DeleteRange(start, end)
	s.insertTextAt(start, text)
	after := s.advance(start, text)
	s.markRangeDirty(start.Line, after.Line)
	s.recordEdit(EditOperation{
		Kind:            EditReplace,
		Position:        start,
		OldText:         old,
		NewText:         text,
		CursorBefore:    before,
		CursorAfter:     after,
		SelectionBefore: selBefore,
	})
	s.afterMutation()
}

// DeleteBackward removes the character before the cursor (backspace).
func (s *State) DeleteBackward() {
	if s.Selection != nil && !s.Selection.IsEmpty() {
		s.DeleteSelection()
		return
	}
	if s.Cursor.Column == 0 && s.Cursor.Line == 0 {
		return
	}
	before := s.Cursor
	selBefore := s.selectionSnapshot()

	var start Position
	if s.Cursor.Column == 0 {
		start = Position{Line: s.Cursor.Line - 1, Column: s.Buffer.LineLength(s.Cursor.Line - 1)}
	} else {
		start = Position{Line: s.Cursor.Line, Column: s.Cursor.Column - 1}
	}
	removed := s.Buffer.DeleteRange(start, s.Cursor)
	s.Cursor = start
	s.markRangeDirty(start.Line, start.Line)
	s.recordEdit(EditOperation{
		Kind:            EditDelete,
		Position:        start,
		Text:            removed,
		CursorBefore:    before,
		CursorAfter:     start,
		SelectionBefore: selBefore,
	})
	s.afterMutation()
}

// DeleteForward removes the character after the cursor (delete key).
func (s *State) DeleteForward() {
	if s.Selection != nil && !s.Selection.IsEmpty() {
		s.DeleteSelection()
		return
	}
	end := Position{Line: s.Cursor.Line, Column: s.Cursor.Column + 1}
	if s.Cursor.Column >= s.Buffer.LineLength(s.Cursor.Line) {
		if s.Cursor.Line >= s.Buffer.LineCount()-1 {
			return
		}
		end = Position{Line: s.Cursor.Line + 1, Column: 0}
	}
	before := s.Cursor
	selBefore := s.selectionSnapshot()
	removed := s.Buffer.DeleteRange(s.Cursor, end)
	s.markRangeDirty(s.Cursor.Line, s.Cursor.Line)
	s.recordEdit(EditOperation{
		Kind:            EditDelete,
		Position:        s.Cursor,
		Text:            removed,
		CursorBefore:    before,
		CursorAfter:     s.Cursor,
		SelectionBefore: selBefore,
	})
	s.afterMutation()
}

// DeleteSelection removes the active selection's text, if any.
func (s *State) DeleteSelection() {
	if s.Selection == nil || s.Selection.IsEmpty() {
		return
	}
	sel := s.Selection.Normalized()
	before := s.Cursor
	selBefore := s.selectionSnapshot()
	removed := s.Buffer.DeleteRange(sel.Start, sel.End)
	s.Cursor = sel.Start
	s.ClearSelection()
	s.markRangeDirty(sel.Start.Line, sel.Start.Line)
	s.recordEdit(EditOperation{
		Kind:            EditDelete,
		Position:        sel.Start,
		Text:            removed,
		CursorBefore:    before,
		CursorAfter:     sel.Start,
		SelectionBefore: selBefore,
	})
	s.afterMutation()
}

func (s *State) selectionSnapshot() *Selection {
	if s.Selection == nil {
		return nil
	}
	sel := *s.Selection
	return &sel
}

func (s *State) markRangeDirty(from, to int) {
	for i := from; i <= to; i++ {
		s.markDirty(i)
	}
}

func (s *State) afterMutation() {
	s.updateMatchingBracket()
	s.EnsureCursorVisible()
	s.rebuildHighlightCache()
}
