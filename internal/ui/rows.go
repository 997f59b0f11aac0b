package ui

import (
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"

	"podboard/internal/models"
)

// Column layout of the episode table.
const (
	columnNumber = iota
	columnTitle
	columnSpeakers
	columnDuration
)

// EpisodeColumns returns the episode table's column configuration.
func EpisodeColumns() []Column {
	return []Column{
		{Title: "#", Width: 5, Align: AlignRight},
		{Title: "Title", MinWidth: 20},
		{Title: "Speakers", Width: 28},
		{Title: "Length", Width: 8, Align: AlignRight},
	}
}

// episodeRow adapts one episode record to the table. Records still carrying
// placeholder or index-only data render dimmed so progressive resolution is
// visible without a spinner.
type episodeRow struct {
	detail     *models.EpisodeDetail
	playing    bool
	highlights []int // title highlight positions from search
}

func (r *episodeRow) Cell(column int) string {
	switch column {
	case columnNumber:
		return strconv.Itoa(r.detail.EpisodeNumber)
	case columnTitle:
		return r.detail.Title
	case columnSpeakers:
		return strings.Join(r.detail.Speakers, ", ")
	case columnDuration:
		return models.FormatDuration(r.detail.DurationSec)
	}
	return ""
}

func (r *episodeRow) CellStyle(column int, selected bool) *tcell.Style {
	if r.playing && column == columnNumber {
		style := tcell.StyleDefault.Foreground(ColorPlaying).Bold(true)
		if selected {
			style = style.Background(ColorSelection)
		}
		return &style
	}
	if r.detail.Fallback != models.FallbackNone && !selected {
		style := tcell.StyleDefault.Foreground(ColorDimmed)
		return &style
	}
	return nil
}

func (r *episodeRow) Highlights(column int) []int {
	if column == columnTitle {
		return r.highlights
	}
	return nil
}
