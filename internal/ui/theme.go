package ui

import "github.com/gdamore/tcell/v2"

// TokyoNight palette, reduced to what the dashboard draws with.
var (
	ColorBg        = tcell.NewRGBColor(0x1a, 0x1b, 0x26) // dark background
	ColorSelection = tcell.NewRGBColor(0x29, 0x2e, 0x42) // selected row background

	ColorFg     = tcell.NewRGBColor(0xc0, 0xca, 0xf5) // default text
	ColorFgDark = tcell.NewRGBColor(0x56, 0x5f, 0x89) // dimmed text

	ColorBlue   = tcell.NewRGBColor(0x7a, 0xa2, 0xf7)
	ColorGreen  = tcell.NewRGBColor(0x9e, 0xce, 0x6a)
	ColorRed    = tcell.NewRGBColor(0xf7, 0x76, 0x8e)
	ColorYellow = tcell.NewRGBColor(0xe0, 0xaf, 0x68)

	ColorHeader    = ColorBlue   // column headers
	ColorHighlight = ColorYellow // search match highlights
	ColorPlaying   = ColorGreen  // now-playing indicator and line
	ColorError     = ColorRed    // error toast
	ColorDimmed    = ColorFgDark // placeholder and fallback records
	ColorBright    = ColorFg
)
