// Package loader schedules episode detail resolution for table rows:
// visible rows first, everything else in bounded background batches.
package loader

import (
	"context"
	"sync"
	"time"

	"podboard/internal/models"
)

// Resolver is the subset of the detail resolver the loader drives.
type Resolver interface {
	Seed(episode int) *models.EpisodeDetail
	Resolve(ctx context.Context, episode int) *models.EpisodeDetail
}

// Observer registers interest in a row becoming visible. Implementations
// call fire at most once per Observe; Unobserve tears the registration down.
type Observer interface {
	Observe(episode int, fire func())
	Unobserve(episode int)
}

// NopObserver never fires. Non-interactive callers rely entirely on the
// eager rows and the backstop pass.
type NopObserver struct{}

func (NopObserver) Observe(int, func()) {}
func (NopObserver) Unobserve(int)       {}

// Config holds the loader's tuning knobs.
type Config struct {
	EagerRows     int           // rows resolved immediately regardless of visibility
	BatchSize     int           // concurrent resolutions during the backstop pass
	BackstopDelay time.Duration // grace period before the backstop starts
}

// DefaultConfig returns the loader defaults.
func DefaultConfig() Config {
	return Config{
		EagerRows:     5,
		BatchSize:     10,
		BackstopDelay: 250 * time.Millisecond,
	}
}

// Loader resolves details for a row set without firing an unbounded number
// of simultaneous requests. Rows are seeded synchronously so nothing renders
// as perpetually loading, the first few rows resolve eagerly, the rest on
// visibility, and a batched backstop guarantees eventual completeness even
// when no visibility signal ever arrives.
type Loader struct {
	mu       sync.Mutex
	resolver Resolver
	observer Observer
	cfg      Config

	generation int
	pending    map[int]bool // rows not yet handed to the resolver
	observed   []int
	timer      *time.Timer
}

// New creates a loader. A nil observer disables visibility triggering.
func New(resolver Resolver, observer Observer, cfg Config) *Loader {
	if observer == nil {
		observer = NopObserver{}
	}
	if cfg.EagerRows < 0 {
		cfg.EagerRows = 0
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	return &Loader{
		resolver: resolver,
		observer: observer,
		cfg:      cfg,
		pending:  make(map[int]bool),
	}
}

// SetRows replaces the active row set: outstanding observers are torn down,
// every row is seeded synchronously from already-available data, the first
// EagerRows rows resolve immediately, and the backstop pass is scheduled.
// Results from the previous row set are invalidated by generation, so a
// stale visibility callback can no longer mark anything in the new set.
func (l *Loader) SetRows(ctx context.Context, episodes []int) {
	l.mu.Lock()
	l.generation++
	gen := l.generation
	l.teardownLocked()

	l.pending = make(map[int]bool, len(episodes))
	for _, episode := range episodes {
		l.pending[episode] = true
	}
	l.mu.Unlock()

	// Cheap synchronous pass: every row gets at least a Tier A/B record
	for _, episode := range episodes {
		l.resolver.Seed(episode)
	}

	for i, episode := range episodes {
		if i < l.cfg.EagerRows {
			l.trigger(ctx, gen, episode)
			continue
		}
		episode := episode
		l.mu.Lock()
		if gen == l.generation {
			l.observed = append(l.observed, episode)
			l.observer.Observe(episode, func() { l.trigger(ctx, gen, episode) })
		}
		l.mu.Unlock()
	}

	l.mu.Lock()
	if gen == l.generation {
		l.timer = time.AfterFunc(l.cfg.BackstopDelay, func() { l.backstop(ctx, gen) })
	}
	l.mu.Unlock()
}

// Backstop runs the batch pass immediately instead of waiting for the timer.
func (l *Loader) Backstop(ctx context.Context) {
	l.mu.Lock()
	gen := l.generation
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.mu.Unlock()
	l.backstop(ctx, gen)
}

// Pending reports how many rows of the current set are still unresolved.
func (l *Loader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Close tears down observers and timers. No resolutions are triggered after
// Close returns.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++
	l.teardownLocked()
	l.pending = make(map[int]bool)
}

// trigger hands one row to the resolver, at most once per generation.
func (l *Loader) trigger(ctx context.Context, gen, episode int) {
	l.mu.Lock()
	if gen != l.generation || !l.pending[episode] {
		l.mu.Unlock()
		return
	}
	delete(l.pending, episode)
	l.mu.Unlock()

	l.observer.Unobserve(episode)
	go l.resolver.Resolve(ctx, episode)
}

// backstop resolves every still-pending row in fixed-size batches so a table
// whose rows never report visibility still completes.
func (l *Loader) backstop(ctx context.Context, gen int) {
	l.mu.Lock()
	if gen != l.generation {
		l.mu.Unlock()
		return
	}
	remaining := make([]int, 0, len(l.pending))
	for episode := range l.pending {
		remaining = append(remaining, episode)
	}
	l.pending = make(map[int]bool)
	l.mu.Unlock()

	if len(remaining) == 0 {
		return
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < l.cfg.BatchSize; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for episode := range jobs {
				l.observer.Unobserve(episode)
				l.resolver.Resolve(ctx, episode)
			}
		}()
	}
	for _, episode := range remaining {
		jobs <- episode
	}
	close(jobs)
	wg.Wait()
}

func (l *Loader) teardownLocked() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	for _, episode := range l.observed {
		l.observer.Unobserve(episode)
	}
	l.observed = nil
}
