package editor

import "time"

// editGroupTimeout is the window within which consecutive single-character
// edits merge into one undo group (EDIT_GROUP_TIMEOUT_MS in the original
// widget).
const editGroupTimeout = 500 * time.Millisecond

// EditKind distinguishes the three shapes of recorded edit.
type EditKind int

const (
	EditInsert EditKind = iota
	EditDelete
	EditReplace
)

// EditOperation is one undoable change, carrying enough state to reverse
// and replay it plus the cursor/selection context to restore around it.
type EditOperation struct {
	Kind            EditKind
	Position        Position
	Text            string // Insert: inserted text. Delete: deleted text.
	OldText         string // Replace only
	NewText         string // Replace only
	CursorBefore    Position
	CursorAfter     Position
	SelectionBefore *Selection
}

// EditGroup is a batch of operations undone/redone as a unit.
type EditGroup struct {
	Operations []EditOperation
	Timestamp  time.Time
}

func (e EditOperation) isSingleCharInsert() bool {
	return e.Kind == EditInsert && len([]rune(e.Text)) == 1
}

func (e EditOperation) isSingleCharDelete() bool {
	return e.Kind == EditDelete && len([]rune(e.Text)) == 1
}

// recordEdit appends op to the undo stack, joining the last group when the
// grouping rule in spec.md §4.6 applies: both edits are single-character
// inserts, or both are single-character deletes, and the last edit
// happened within editGroupTimeout. Every edit clears the redo stack.
func (s *State) recordEdit(op EditOperation) {
	now := time.Now()

	grouped := false
	if len(s.undoStack) > 0 && s.lastEditTime != nil && now.Sub(*s.lastEditTime) < editGroupTimeout {
		grouped = s.canGroupWithLast(op)
	}

	if grouped {
		last := &s.undoStack[len(s.undoStack)-1]
		last.Operations = append(last.Operations, op)
	} else {
		s.undoStack = append(s.undoStack, EditGroup{
			Operations: []EditOperation{op},
			Timestamp:  now,
		})
	}

	s.redoStack = nil
	s.lastEditTime = &now
}

func (s *State) canGroupWithLast(op EditOperation) bool {
	group := s.undoStack[len(s.undoStack)-1]
	if len(group.Operations) == 0 {
		return false
	}
	last := group.Operations[len(group.Operations)-1]
	if last.isSingleCharInsert() && op.isSingleCharInsert() {
		return true
	}
	if last.isSingleCharDelete() && op.isSingleCharDelete() {
		return true
	}
	return false
}

// CanUndo reports whether the undo stack has a group to pop.
func (s *State) CanUndo() bool { return len(s.undoStack) > 0 }

// CanRedo reports whether the redo stack has a group to pop.
func (s *State) CanRedo() bool { return len(s.redoStack) > 0 }

// Undo reverses the most recent edit group and pushes it to the redo stack.
func (s *State) Undo() bool {
	if len(s.undoStack) == 0 {
		return false
	}
	group := s.undoStack[len(s.undoStack)-1]
	s.undoStack = s.undoStack[:len(s.undoStack)-1]

	for i := len(group.Operations) - 1; i >= 0; i-- {
		s.applyReverse(group.Operations[i])
	}
	if len(group.Operations) > 0 {
		first := group.Operations[0]
		s.Cursor = first.CursorBefore
		s.Selection = first.SelectionBefore
		s.EnsureCursorVisible()
	}
	s.redoStack = append(s.redoStack, group)
	s.rebuildHighlightCache()
	return true
}

// Redo re-applies the most recently undone edit group.
func (s *State) Redo() bool {
	if len(s.redoStack) == 0 {
		return false
	}
	group := s.redoStack[len(s.redoStack)-1]
	s.redoStack = s.redoStack[:len(s.redoStack)-1]

	for _, op := range group.Operations {
		s.applyForward(op)
	}
	if len(group.Operations) > 0 {
		last := group.Operations[len(group.Operations)-1]
		s.Cursor = last.CursorAfter
		s.Selection = nil
		s.EnsureCursorVisible()
	}
	s.undoStack = append(s.undoStack, group)
	s.rebuildHighlightCache()
	return true
}

func (s *State) applyReverse(op EditOperation) {
	switch op.Kind {
	case EditInsert:
		end := Position{Line: op.Position.Line, Column: op.Position.Column}
		end = s.advance(end, op.Text)
		s.Buffer.DeleteRange(op.Position, end)
	case EditDelete:
		s.insertTextAt(op.Position, op.Text)
	case EditReplace:
		end := s.advance(op.Position, op.NewText)
		s.Buffer.DeleteRange(op.Position, end)
		s.insertTextAt(op.Position, op.OldText)
	}
}

func (s *State) applyForward(op EditOperation) {
	switch op.Kind {
	case EditInsert:
		s.insertTextAt(op.Position, op.Text)
	case EditDelete:
		end := s.advance(op.Position, op.Text)
		s.Buffer.DeleteRange(op.Position, end)
	case EditReplace:
		end := s.advance(op.Position, op.OldText)
		s.Buffer.DeleteRange(op.Position, end)
		s.insertTextAt(op.Position, op.NewText)
	}
}

// insertTextAt inserts text one rune at a time without undo recording (used
// by undo/redo replay), mirroring insert_char_with_undo(record_undo=false).
func (s *State) insertTextAt(pos Position, text string) {
	cur := pos
	for _, ch := range text {
		cur = s.Buffer.InsertChar(cur, ch)
	}
}

// advance returns the position reached after text has been inserted
// starting at pos, without mutating the buffer.
func (s *State) advance(pos Position, text string) Position {
	line, col := pos.Line, pos.Column
	for _, ch := range text {
		if ch == '\n' {
			line++
			col = 0
		} else {
			col++
		}
	}
	return Position{Line: line, Column: col}
}
