// Package ui renders the episode dashboard: a lazily-resolving episode
// table, incremental search, and a now-playing line fed by playback ticks
// and the live transcript.
package ui

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"podboard/internal/details"
	"podboard/internal/loader"
	"podboard/internal/models"
	"podboard/internal/playback"
	"podboard/internal/transcript"
)

const seekStepSeconds = 30

// App is the interactive dashboard.
type App struct {
	screen      tcell.Screen
	resolver    *details.Resolver
	loader      *loader.Loader
	transcripts *transcript.Store
	controller  *playback.Controller
	element     playback.Element
	observer    *VisibilityObserver

	table  *Table
	search *SearchState

	mu         sync.Mutex
	episodes   []int // full set, newest first
	filtered   []int // after search
	searchMode bool
	errorMsg   string
	statusMsg  string

	playingEpisode int
	playPosition   float64
	paused         bool
	segment        transcript.Segment
	hasSegment     bool

	quit     chan struct{}
	quitOnce sync.Once
}

// NewApp wires the dashboard. The observer must be the same one the loader
// was built with.
func NewApp(resolver *details.Resolver, ldr *loader.Loader, transcripts *transcript.Store, controller *playback.Controller, element playback.Element, observer *VisibilityObserver) *App {
	return &App{
		resolver:    resolver,
		loader:      ldr,
		transcripts: transcripts,
		controller:  controller,
		element:     element,
		observer:    observer,
		table:       NewTable(EpisodeColumns()),
		search:      NewSearchState(),
		quit:        make(chan struct{}),
	}
}

// Run starts the event loop and blocks until the user quits.
func (a *App) Run(ctx context.Context) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to init screen: %w", err)
	}
	a.screen = screen
	defer screen.Fini()

	screen.SetStyle(tcell.StyleDefault.Background(ColorBg).Foreground(ColorFg))

	a.table.SetOnVisibleRange(a.onVisibleRange)

	a.resolver.EnsureIndex(ctx)
	a.mu.Lock()
	a.episodes = a.resolver.Episodes()
	if a.resolver.IndexFailed() {
		a.statusMsg = "episode index unavailable, showing placeholders"
	}
	a.mu.Unlock()
	a.applyFilter(ctx)

	go a.watchTicks(ctx)
	go a.periodicRedraw()

	a.layout()
	a.draw()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.quit:
			return nil
		default:
		}

		ev := screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventResize:
			screen.Sync()
			a.layout()
			a.draw()
		case *tcell.EventInterrupt:
			// Background resolution may have filled in titles and speakers
			a.table.SetRows(a.buildRows())
			a.draw()
		case *tcell.EventKey:
			a.handleKey(ctx, ev)
			a.draw()
		}
	}
}

// Close releases everything the dashboard drives. Safe to call after the
// user already quit.
func (a *App) Close() {
	a.stop()
	a.loader.Close()
	a.controller.Close()
	if err := a.element.Close(); err != nil {
		log.Printf("Element teardown failed: %v", err)
	}
	// Wake up PollEvent so Run can return
	if a.screen != nil {
		a.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}
}

func (a *App) handleKey(ctx context.Context, ev *tcell.EventKey) {
	a.mu.Lock()
	inSearch := a.searchMode
	a.mu.Unlock()

	if inSearch {
		a.handleSearchKey(ctx, ev)
		return
	}

	switch ev.Key() {
	case tcell.KeyEscape:
		if a.search.Active() {
			a.search.Clear()
			a.applyFilter(ctx)
			return
		}
		a.stop()
	case tcell.KeyEnter:
		a.playSelected(ctx, 0)
	case tcell.KeyUp:
		a.table.SelectPrevious()
	case tcell.KeyDown:
		a.table.SelectNext()
	case tcell.KeyPgUp:
		a.table.PageUp()
	case tcell.KeyPgDn:
		a.table.PageDown()
	case tcell.KeyHome:
		a.table.SelectFirst()
	case tcell.KeyEnd:
		a.table.SelectLast()
	case tcell.KeyLeft:
		a.seekBy(ctx, -seekStepSeconds)
	case tcell.KeyRight:
		a.seekBy(ctx, seekStepSeconds)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			a.stop()
		case 'j':
			a.table.SelectNext()
		case 'k':
			a.table.SelectPrevious()
		case 'g':
			a.table.SelectFirst()
		case 'G':
			a.table.SelectLast()
		case '/':
			a.mu.Lock()
			a.searchMode = true
			a.mu.Unlock()
		case ' ':
			a.togglePause()
		}
	}
}

func (a *App) handleSearchKey(ctx context.Context, ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyEscape:
		a.search.Clear()
		a.mu.Lock()
		a.searchMode = false
		a.mu.Unlock()
		a.applyFilter(ctx)
	case tcell.KeyEnter:
		a.mu.Lock()
		a.searchMode = false
		a.mu.Unlock()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		a.search.DeleteChar()
		a.applyFilter(ctx)
	case tcell.KeyCtrlW:
		a.search.DeleteWord()
		a.applyFilter(ctx)
	case tcell.KeyLeft:
		a.search.MoveCursorLeft()
	case tcell.KeyRight:
		a.search.MoveCursorRight()
	case tcell.KeyRune:
		a.search.InsertChar(ev.Rune())
		a.applyFilter(ctx)
	}
}

func (a *App) stop() {
	a.quitOnce.Do(func() { close(a.quit) })
}

// playSelected starts the selected episode at positionSec.
func (a *App) playSelected(ctx context.Context, positionSec float64) {
	episode := a.selectedEpisode()
	if episode <= 0 {
		return
	}

	a.mu.Lock()
	a.errorMsg = ""
	a.playingEpisode = episode
	a.playPosition = positionSec
	a.paused = false
	a.hasSegment = false
	a.mu.Unlock()

	if _, err := a.controller.PlayAt(ctx, episode, positionSec, "selection"); err != nil {
		a.mu.Lock()
		a.errorMsg = err.Error()
		a.playingEpisode = 0
		a.mu.Unlock()
	}
}

func (a *App) seekBy(ctx context.Context, deltaSec float64) {
	a.mu.Lock()
	episode := a.playingEpisode
	pos := a.playPosition + deltaSec
	a.mu.Unlock()
	if episode <= 0 {
		return
	}
	if pos < 0 {
		pos = 0
	}
	if _, err := a.controller.PlayAt(ctx, episode, pos, "seek"); err != nil {
		a.mu.Lock()
		a.errorMsg = err.Error()
		a.mu.Unlock()
	}
}

func (a *App) togglePause() {
	a.mu.Lock()
	episode := a.playingEpisode
	paused := a.paused
	a.mu.Unlock()
	if episode <= 0 {
		return
	}

	var err error
	if paused {
		err = a.element.Play()
	} else {
		err = a.element.Pause()
	}
	if err != nil {
		log.Printf("Pause toggle failed: %v", err)
		return
	}
	a.mu.Lock()
	a.paused = !paused
	a.mu.Unlock()
}

func (a *App) selectedEpisode() int {
	idx := a.table.SelectedIndex()
	a.mu.Lock()
	defer a.mu.Unlock()
	if idx < 0 || idx >= len(a.filtered) {
		return 0
	}
	return a.filtered[idx]
}

// applyFilter recomputes the filtered episode set and hands it to both the
// table and the loader. Changing the set invalidates prior row loading.
func (a *App) applyFilter(ctx context.Context) {
	a.mu.Lock()
	filtered := make([]int, 0, len(a.episodes))
	for _, episode := range a.episodes {
		rec := a.resolver.Seed(episode)
		if ok, _, _ := a.search.MatchEpisode(rec.Title, rec.Speakers); ok {
			filtered = append(filtered, episode)
		}
	}
	a.filtered = filtered
	a.mu.Unlock()

	a.loader.SetRows(ctx, filtered)
	a.table.SetRows(a.buildRows())
}

func (a *App) buildRows() []Row {
	a.mu.Lock()
	filtered := append([]int(nil), a.filtered...)
	playing := a.playingEpisode
	a.mu.Unlock()

	rows := make([]Row, 0, len(filtered))
	for _, episode := range filtered {
		rec := a.resolver.Seed(episode)
		_, _, match := a.search.MatchEpisode(rec.Title, rec.Speakers)
		rows = append(rows, &episodeRow{
			detail:     rec,
			playing:    episode == playing,
			highlights: match.Positions,
		})
	}
	return rows
}

// onVisibleRange translates table row positions into loader interest.
func (a *App) onVisibleRange(first, last int) {
	a.mu.Lock()
	visible := make([]int, 0, last-first+1)
	for i := first; i <= last && i < len(a.filtered); i++ {
		visible = append(visible, a.filtered[i])
	}
	a.mu.Unlock()
	a.observer.NotifyVisible(visible)
}

// watchTicks follows the advancing playback position and aligns the live
// transcript segment to it.
func (a *App) watchTicks(ctx context.Context) {
	ticks := a.element.Ticks()
	if ticks == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.quit:
			return
		case pos, open := <-ticks:
			if !open {
				return
			}
			a.mu.Lock()
			a.playPosition = pos
			if doc, exists := a.transcripts.Document(a.playingEpisode); exists {
				a.segment, a.hasSegment = transcript.CurrentSegment(doc, pos)
			} else {
				a.hasSegment = false
			}
			a.mu.Unlock()
			a.screen.PostEvent(tcell.NewEventInterrupt(nil))
		}
	}
}

// periodicRedraw wakes the event loop so the table reflects records the
// background resolution has filled in since the last frame.
func (a *App) periodicRedraw() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-a.quit:
			return
		case <-ticker.C:
			a.screen.PostEvent(tcell.NewEventInterrupt(nil))
		}
	}
}

func (a *App) layout() {
	width, height := a.screen.Size()
	tableHeight := height - 3 // search bar, now-playing, status
	if tableHeight < 0 {
		tableHeight = 0
	}
	a.table.SetFrame(0, 1, width, tableHeight)
}

func (a *App) draw() {
	a.screen.Clear()
	width, height := a.screen.Size()

	a.drawSearchBar(width)
	a.table.Draw(a.screen)
	a.drawNowPlaying(width, height-2)
	a.drawStatus(width, height-1)

	a.screen.Show()
}

func (a *App) drawSearchBar(width int) {
	a.mu.Lock()
	active := a.searchMode
	a.mu.Unlock()

	style := tcell.StyleDefault.Foreground(ColorDimmed)
	text := "/ to search"
	if active || a.search.Active() {
		style = tcell.StyleDefault.Foreground(ColorBright)
		text = "search: " + a.search.Query()
	}
	drawLine(a.screen, 0, 0, width, text, style)
	if active {
		a.screen.ShowCursor(len("search: ")+a.search.CursorPos(), 0)
	} else {
		a.screen.HideCursor()
	}
}

func (a *App) drawNowPlaying(width, y int) {
	a.mu.Lock()
	episode := a.playingEpisode
	pos := a.playPosition
	paused := a.paused
	segment := a.segment
	hasSegment := a.hasSegment
	a.mu.Unlock()

	if episode <= 0 {
		drawLine(a.screen, 0, y, width, "nothing playing", tcell.StyleDefault.Foreground(ColorDimmed))
		return
	}

	rec := a.resolver.Seed(episode)
	indicator := "▶"
	if paused {
		indicator = "⏸"
	}
	line := fmt.Sprintf("%s %s  %s / %s", indicator, rec.Title,
		models.FormatDuration(int(pos)), models.FormatDuration(rec.DurationSec))
	if hasSegment && segment.Speaker != "" {
		line += fmt.Sprintf("  •  %s: %s", segment.Speaker, segment.Text)
	}
	drawLine(a.screen, 0, y, width, line, tcell.StyleDefault.Foreground(ColorPlaying))
}

func (a *App) drawStatus(width, y int) {
	a.mu.Lock()
	errorMsg := a.errorMsg
	statusMsg := a.statusMsg
	a.mu.Unlock()

	if errorMsg != "" {
		drawLine(a.screen, 0, y, width, errorMsg, tcell.StyleDefault.Foreground(ColorError))
		return
	}
	if statusMsg != "" {
		drawLine(a.screen, 0, y, width, statusMsg, tcell.StyleDefault.Foreground(ColorDimmed))
		return
	}
	help := "enter play  space pause  ←/→ seek 30s  / search  q quit"
	drawLine(a.screen, 0, y, width, help, tcell.StyleDefault.Foreground(ColorDimmed))
}

func drawLine(s tcell.Screen, x, y, width int, text string, style tcell.Style) {
	runes := []rune(text)
	for i := 0; i < width; i++ {
		r := ' '
		if i < len(runes) {
			r = runes[i]
		}
		s.SetContent(x+i, y, r, nil, style)
	}
}
