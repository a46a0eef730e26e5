package editor

// Scroll margins, in character/line cells: the original widget computed
// these in pixels via CHAR_WIDTH/LINE_HEIGHT against a canvas viewport; with
// no rendering backend in scope here, both collapse to 1-unit cells.
const (
	scrollMarginLines   = 2
	scrollMarginColumns = 4

	defaultViewportLines   = 24
	defaultViewportColumns = 80
)

// Viewport is the visible window into the buffer, expressed in character
// cells rather than pixels.
type Viewport struct {
	TopLine        int
	LeftColumn     int
	LinesVisible   int
	ColumnsVisible int
}

// EnsureCursorVisible scrolls the viewport by the minimum amount needed to
// keep the cursor at least scrollMarginLines/scrollMarginColumns cells away
// from each edge, mirroring ensure_cursor_visible.
func (s *State) EnsureCursorVisible() {
	v := &s.Viewport

	if v.LinesVisible <= 0 {
		v.LinesVisible = defaultViewportLines
	}
	if v.ColumnsVisible <= 0 {
		v.ColumnsVisible = defaultViewportColumns
	}

	if s.Cursor.Line < v.TopLine+scrollMarginLines {
		v.TopLine = s.Cursor.Line - scrollMarginLines
	} else if s.Cursor.Line > v.TopLine+v.LinesVisible-1-scrollMarginLines {
		v.TopLine = s.Cursor.Line - v.LinesVisible + 1 + scrollMarginLines
	}
	if v.TopLine < 0 {
		v.TopLine = 0
	}
	if maxTop := s.Buffer.LineCount() - v.LinesVisible; maxTop > 0 && v.TopLine > maxTop {
		v.TopLine = maxTop
	}

	if s.Cursor.Column < v.LeftColumn+scrollMarginColumns {
		v.LeftColumn = s.Cursor.Column - scrollMarginColumns
	} else if s.Cursor.Column > v.LeftColumn+v.ColumnsVisible-1-scrollMarginColumns {
		v.LeftColumn = s.Cursor.Column - v.ColumnsVisible + 1 + scrollMarginColumns
	}
	if v.LeftColumn < 0 {
		v.LeftColumn = 0
	}
}
