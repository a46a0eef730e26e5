package editor

import "strings"

// Buffer holds document text as a slice of rune lines. A real rope
// structure (the original widget used Rust's ropey) buys amortized
// sub-linear edits on huge files; nothing in the retrieval pack ships a Go
// rope, so this trades that for a plain line slice, which is the structure
// every operation in spec.md §4.6 is already expressed in terms of
// (Position is line+column, never a flat byte offset). See DESIGN.md.
type Buffer struct {
	lines [][]rune
}

// NewBuffer splits text into lines on '\n'. An empty document always has
// exactly one (empty) line, matching Position{0,0} being a valid location
// in any buffer.
func NewBuffer(text string) *Buffer {
	parts := strings.Split(text, "\n")
	lines := make([][]rune, len(parts))
	for i, p := range parts {
		lines[i] = []rune(p)
	}
	return &Buffer{lines: lines}
}

// String renders the buffer back to a single string.
func (b *Buffer) String() string {
	parts := make([]string, len(b.lines))
	for i, l := range b.lines {
		parts[i] = string(l)
	}
	return strings.Join(parts, "\n")
}

func (b *Buffer) LineCount() int { return len(b.lines) }

// Line returns line i's text, or "", false if out of range.
func (b *Buffer) Line(i int) (string, bool) {
	if i < 0 || i >= len(b.lines) {
		return "", false
	}
	return string(b.lines[i]), true
}

// LineLength returns the character count of line i, 0 if out of range.
func (b *Buffer) LineLength(i int) int {
	if i < 0 || i >= len(b.lines) {
		return 0
	}
	return len(b.lines[i])
}

// Indentation returns the leading run of spaces/tabs on line i.
func (b *Buffer) Indentation(i int) string {
	if i < 0 || i >= len(b.lines) {
		return ""
	}
	line := b.lines[i]
	end := 0
	for end < len(line) && (line[end] == ' ' || line[end] == '\t') {
		end++
	}
	return string(line[:end])
}

// EndsWithOpenBrace reports whether line i, with trailing whitespace and a
// trailing line comment stripped, ends with '{'.
func (b *Buffer) EndsWithOpenBrace(i int) bool {
	line, ok := b.Line(i)
	if !ok {
		return false
	}
	trimmed := strings.TrimRight(line, " \t")
	if idx := strings.Index(trimmed, "//"); idx >= 0 {
		trimmed = strings.TrimRight(trimmed[:idx], " \t")
	}
	return strings.HasSuffix(trimmed, "{")
}

// CharAt returns the rune at pos, or 0, false if pos is out of range.
func (b *Buffer) CharAt(pos Position) (rune, bool) {
	if pos.Line < 0 || pos.Line >= len(b.lines) {
		return 0, false
	}
	line := b.lines[pos.Line]
	if pos.Column < 0 || pos.Column >= len(line) {
		return 0, false
	}
	return line[pos.Column], true
}

// Clamp pulls pos back into valid document bounds.
func (b *Buffer) Clamp(pos Position) Position {
	line := pos.Line
	if line < 0 {
		line = 0
	}
	if line >= len(b.lines) {
		line = len(b.lines) - 1
	}
	col := pos.Column
	if col < 0 {
		col = 0
	}
	if max := b.LineLength(line); col > max {
		col = max
	}
	return Position{Line: line, Column: col}
}

// InsertChar inserts ch at pos and returns the cursor position after it.
// '\n' splits the current line into two.
func (b *Buffer) InsertChar(pos Position, ch rune) Position {
	line := b.lines[pos.Line]
	if ch == '\n' {
		head := append([]rune{}, line[:pos.Column]...)
		tail := append([]rune{}, line[pos.Column:]...)
		rest := append([][]rune{head, tail}, b.lines[pos.Line+1:]...)
		b.lines = append(b.lines[:pos.Line], rest...)
		return Position{Line: pos.Line + 1, Column: 0}
	}
	out := make([]rune, 0, len(line)+1)
	out = append(out, line[:pos.Column]...)
	out = append(out, ch)
	out = append(out, line[pos.Column:]...)
	b.lines[pos.Line] = out
	return Position{Line: pos.Line, Column: pos.Column + 1}
}

// DeleteRange removes [start, end) (start must be <= end in document
// order) and returns the removed text.
func (b *Buffer) DeleteRange(start, end Position) string {
	if !lessPos(start, end) && start != end {
		start, end = end, start
	}
	if start == end {
		return ""
	}
	if start.Line == end.Line {
		line := b.lines[start.Line]
		removed := string(line[start.Column:end.Column])
		out := append([]rune{}, line[:start.Column]...)
		out = append(out, line[end.Column:]...)
		b.lines[start.Line] = out
		return removed
	}

	var removed strings.Builder
	first := b.lines[start.Line]
	removed.WriteString(string(first[start.Column:]))
	for i := start.Line + 1; i < end.Line; i++ {
		removed.WriteByte('\n')
		removed.WriteString(string(b.lines[i]))
	}
	last := b.lines[end.Line]
	removed.WriteByte('\n')
	removed.WriteString(string(last[:end.Column]))

	merged := append(append([]rune{}, first[:start.Column]...), last[end.Column:]...)
	b.lines = append(b.lines[:start.Line], append([][]rune{merged}, b.lines[end.Line+1:]...)...)
	return removed.String()
}

// SetText replaces the whole buffer.
func (b *Buffer) SetText(text string) {
	*b = *NewBuffer(text)
}
