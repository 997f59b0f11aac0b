package ui

import (
	"github.com/gdamore/tcell/v2"
)

// Alignment specifies text alignment within a cell.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// Column defines one table column. A zero Width marks the column flexible;
// flexible columns share the space fixed columns leave over.
type Column struct {
	Title    string
	Width    int
	MinWidth int
	Align    Alignment
}

// Row supplies cell content for one table row.
type Row interface {
	Cell(column int) string
	// CellStyle may return nil to use the table default.
	CellStyle(column int, selected bool) *tcell.Style
	// Highlights returns rune positions to emphasize, usually search hits.
	Highlights(column int) []int
}

// Table is a scrollable row view. It reports which rows are on screen
// through the visible-range callback, which drives lazy detail loading.
type Table struct {
	columns []Column
	rows    []Row

	selectedIdx  int
	scrollOffset int

	x, y          int
	width, height int

	headerStyle    tcell.Style
	defaultStyle   tcell.Style
	selectedStyle  tcell.Style
	highlightStyle tcell.Style

	columnWidths []int

	onVisibleRange func(first, last int)
	lastFirst      int
	lastLast       int
}

// NewTable creates an empty table.
func NewTable(columns []Column) *Table {
	return &Table{
		columns:        columns,
		headerStyle:    tcell.StyleDefault.Bold(true).Foreground(ColorHeader),
		defaultStyle:   tcell.StyleDefault,
		selectedStyle:  tcell.StyleDefault.Background(ColorSelection).Foreground(ColorBright),
		highlightStyle: tcell.StyleDefault.Foreground(ColorHighlight).Bold(true),
		lastFirst:      -1,
		lastLast:       -1,
	}
}

// SetOnVisibleRange registers the callback invoked whenever the set of rows
// on screen changes. Indices are inclusive row positions.
func (t *Table) SetOnVisibleRange(fn func(first, last int)) {
	t.onVisibleRange = fn
}

// SetRows replaces the table's rows, clamping the selection.
func (t *Table) SetRows(rows []Row) {
	t.rows = rows
	if t.selectedIdx >= len(rows) {
		t.selectedIdx = len(rows) - 1
	}
	if t.selectedIdx < 0 {
		t.selectedIdx = 0
	}
	t.lastFirst, t.lastLast = -1, -1
	t.ensureVisible()
	t.notifyVisible()
}

// SetFrame positions and sizes the table.
func (t *Table) SetFrame(x, y, width, height int) {
	t.x, t.y = x, y
	t.width, t.height = width, height
	t.calculateColumnWidths()
	t.ensureVisible()
	t.notifyVisible()
}

// SelectedIndex returns the selected row position, -1 when empty.
func (t *Table) SelectedIndex() int {
	if len(t.rows) == 0 {
		return -1
	}
	return t.selectedIdx
}

// SelectNext moves the selection down one row.
func (t *Table) SelectNext() {
	if t.selectedIdx < len(t.rows)-1 {
		t.selectedIdx++
		t.ensureVisible()
		t.notifyVisible()
	}
}

// SelectPrevious moves the selection up one row.
func (t *Table) SelectPrevious() {
	if t.selectedIdx > 0 {
		t.selectedIdx--
		t.ensureVisible()
		t.notifyVisible()
	}
}

// SelectFirst jumps to the first row.
func (t *Table) SelectFirst() {
	t.selectedIdx = 0
	t.scrollOffset = 0
	t.notifyVisible()
}

// SelectLast jumps to the last row.
func (t *Table) SelectLast() {
	if len(t.rows) > 0 {
		t.selectedIdx = len(t.rows) - 1
		t.ensureVisible()
		t.notifyVisible()
	}
}

// PageDown moves the selection down one screenful.
func (t *Table) PageDown() {
	t.moveBy(t.visibleHeight() - 1)
}

// PageUp moves the selection up one screenful.
func (t *Table) PageUp() {
	t.moveBy(-(t.visibleHeight() - 1))
}

func (t *Table) moveBy(delta int) {
	if len(t.rows) == 0 {
		return
	}
	idx := t.selectedIdx + delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(t.rows) {
		idx = len(t.rows) - 1
	}
	if idx != t.selectedIdx {
		t.selectedIdx = idx
		t.ensureVisible()
		t.notifyVisible()
	}
}

// VisibleRange returns the inclusive row range currently on screen.
func (t *Table) VisibleRange() (first, last int) {
	if len(t.rows) == 0 || t.visibleHeight() <= 0 {
		return 0, -1
	}
	first = t.scrollOffset
	last = t.scrollOffset + t.visibleHeight() - 1
	if last >= len(t.rows) {
		last = len(t.rows) - 1
	}
	return first, last
}

// Draw renders the table.
func (t *Table) Draw(s tcell.Screen) {
	if t.width <= 0 || t.height <= 0 {
		return
	}

	for y := 0; y < t.height; y++ {
		for x := 0; x < t.width; x++ {
			s.SetContent(t.x+x, t.y+y, ' ', nil, t.defaultStyle)
		}
	}

	x := t.x
	for i, col := range t.columns {
		if i > 0 {
			x++
		}
		t.drawText(s, x, t.y, t.columnWidths[i], col.Title, t.headerStyle, col.Align, nil)
		x += t.columnWidths[i]
	}

	for i := 0; i < t.visibleHeight() && i+t.scrollOffset < len(t.rows); i++ {
		rowIdx := i + t.scrollOffset
		t.drawRow(s, t.y+1+i, t.rows[rowIdx], rowIdx == t.selectedIdx)
	}
}

func (t *Table) visibleHeight() int {
	h := t.height - 1 // one line of header
	if h < 0 {
		h = 0
	}
	return h
}

func (t *Table) ensureVisible() {
	h := t.visibleHeight()
	if h <= 0 {
		return
	}
	if t.selectedIdx < t.scrollOffset {
		t.scrollOffset = t.selectedIdx
	}
	if t.selectedIdx >= t.scrollOffset+h {
		t.scrollOffset = t.selectedIdx - h + 1
	}
	maxOffset := len(t.rows) - h
	if maxOffset < 0 {
		maxOffset = 0
	}
	if t.scrollOffset > maxOffset {
		t.scrollOffset = maxOffset
	}
	if t.scrollOffset < 0 {
		t.scrollOffset = 0
	}
}

func (t *Table) notifyVisible() {
	if t.onVisibleRange == nil {
		return
	}
	first, last := t.VisibleRange()
	if last < first {
		return
	}
	if first == t.lastFirst && last == t.lastLast {
		return
	}
	t.lastFirst, t.lastLast = first, last
	t.onVisibleRange(first, last)
}

func (t *Table) calculateColumnWidths() {
	if len(t.columns) == 0 || t.width <= 0 {
		return
	}
	t.columnWidths = make([]int, len(t.columns))

	fixed := 0
	flexible := 0
	for i, col := range t.columns {
		if col.Width > 0 {
			t.columnWidths[i] = col.Width
			fixed += col.Width
		} else {
			flexible++
		}
	}

	padding := len(t.columns) - 1
	remaining := t.width - fixed - padding
	for i, col := range t.columns {
		if col.Width > 0 {
			continue
		}
		w := remaining / flexible
		if col.MinWidth > 0 && w < col.MinWidth {
			w = col.MinWidth
		}
		t.columnWidths[i] = w
	}
}

func (t *Table) drawRow(s tcell.Screen, y int, row Row, selected bool) {
	if selected {
		for x := 0; x < t.width; x++ {
			s.SetContent(t.x+x, y, ' ', nil, t.selectedStyle)
		}
	}

	x := t.x
	for i, col := range t.columns {
		if i > 0 {
			x++
		}
		style := t.defaultStyle
		if selected {
			style = t.selectedStyle
		}
		if cellStyle := row.CellStyle(i, selected); cellStyle != nil {
			style = *cellStyle
		}
		t.drawText(s, x, y, t.columnWidths[i], row.Cell(i), style, col.Align, row.Highlights(i))
		x += t.columnWidths[i]
	}
}

func (t *Table) drawText(s tcell.Screen, x, y, width int, text string, style tcell.Style, align Alignment, highlights []int) {
	if width <= 0 {
		return
	}

	runes := []rune(text)
	truncated := false
	if len(runes) > width {
		truncated = true
		if width > 1 {
			runes = runes[:width-1]
		} else {
			runes = runes[:width]
		}
	}

	startX := x
	if !truncated && len(runes) < width {
		switch align {
		case AlignCenter:
			startX = x + (width-len(runes))/2
		case AlignRight:
			startX = x + width - len(runes)
		}
	}

	var hl map[int]bool
	if len(highlights) > 0 {
		hl = make(map[int]bool, len(highlights))
		for _, p := range highlights {
			hl[p] = true
		}
	}

	for i, r := range runes {
		cs := style
		if hl[i] {
			cs = t.highlightStyle
		}
		s.SetContent(startX+i, y, r, nil, cs)
	}
	if truncated && width > 1 {
		s.SetContent(startX+len(runes), y, '…', nil, style)
	}
}
