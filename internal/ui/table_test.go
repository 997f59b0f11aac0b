package ui

import (
	"fmt"
	"testing"

	"github.com/gdamore/tcell/v2"
)

type textRow string

func (r textRow) Cell(column int) string                           { return string(r) }
func (r textRow) CellStyle(column int, selected bool) *tcell.Style { return nil }
func (r textRow) Highlights(column int) []int                      { return nil }

func makeRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = textRow(fmt.Sprintf("row %d", i))
	}
	return rows
}

func TestTable_VisibleRangeReported(t *testing.T) {
	var first, last int
	calls := 0

	table := NewTable([]Column{{Title: "T"}})
	table.SetOnVisibleRange(func(f, l int) { first, last, calls = f, l, calls+1 })

	table.SetFrame(0, 0, 40, 11) // 10 data rows after the header
	table.SetRows(makeRows(30))

	if calls == 0 {
		t.Fatal("Visible range never reported")
	}
	if first != 0 || last != 9 {
		t.Errorf("Expected rows 0-9 visible, got %d-%d", first, last)
	}
}

func TestTable_ScrollMovesVisibleRange(t *testing.T) {
	var last int
	table := NewTable([]Column{{Title: "T"}})
	table.SetOnVisibleRange(func(f, l int) { last = l })

	table.SetFrame(0, 0, 40, 6) // 5 data rows
	table.SetRows(makeRows(20))

	table.SelectLast()
	if last != 19 {
		t.Errorf("Expected last visible row 19 after jump, got %d", last)
	}
}

func TestTable_DuplicateRangeNotReported(t *testing.T) {
	calls := 0
	table := NewTable([]Column{{Title: "T"}})
	table.SetOnVisibleRange(func(f, l int) { calls++ })

	table.SetFrame(0, 0, 40, 11)
	table.SetRows(makeRows(30))

	base := calls
	table.SelectNext() // selection moves but the window does not
	if calls != base {
		t.Errorf("Unchanged visible range reported again (%d -> %d calls)", base, calls)
	}
}

func TestTable_SelectionClampedOnShrink(t *testing.T) {
	table := NewTable([]Column{{Title: "T"}})
	table.SetFrame(0, 0, 40, 11)
	table.SetRows(makeRows(20))
	table.SelectLast()

	table.SetRows(makeRows(3))
	if got := table.SelectedIndex(); got != 2 {
		t.Errorf("Selection not clamped: %d", got)
	}

	table.SetRows(nil)
	if got := table.SelectedIndex(); got != -1 {
		t.Errorf("Empty table should report -1, got %d", got)
	}
}

func TestVisibilityObserver_FiresOnlyRegistered(t *testing.T) {
	o := NewVisibilityObserver()
	fired := make(map[int]int)

	o.Observe(1, func() { fired[1]++ })
	o.Observe(2, func() { fired[2]++ })
	o.Unobserve(2)

	o.NotifyVisible([]int{1, 2, 3})

	if fired[1] != 1 {
		t.Errorf("Registered row fired %d times", fired[1])
	}
	if fired[2] != 0 {
		t.Error("Unobserved row fired")
	}
}

func TestSearchState_MatchEpisode(t *testing.T) {
	s := NewSearchState()

	ok, _, _ := s.MatchEpisode("anything", nil)
	if !ok {
		t.Error("Empty query must match everything")
	}

	for _, ch := range "wochenende" {
		s.InsertChar(ch)
	}
	ok, score, match := s.MatchEpisode("FS123 Das Wochenende", []string{"Tim"})
	if !ok || score <= 0 {
		t.Fatalf("Expected title match, ok=%v score=%d", ok, score)
	}
	if len(match.Positions) == 0 {
		t.Error("Title match should carry highlight positions")
	}

	// Speaker-only match reports the row without title highlights
	ok, _, match = s.MatchEpisode("Unrelated Title", []string{"Wochenende Willi"})
	if !ok {
		t.Error("Expected speaker match")
	}
	if len(match.Positions) != 0 {
		t.Error("Speaker match must not highlight the title")
	}

	s.Clear()
	if s.Active() {
		t.Error("Clear did not reset the query")
	}
}
