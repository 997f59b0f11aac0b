// Package details resolves per-episode metadata from multiple partial,
// asynchronously-arriving sources into one normalized record per episode.
package details

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"podboard/internal/models"
)

// Config holds the resolver's tuning knobs. The exact values matter less
// than their role: retries are bounded and backoff is short.
type Config struct {
	DetailRetries int           // total Tier C fetch attempts per episode per session
	RetryBackoff  time.Duration // wait between attempts
}

// DefaultConfig returns the resolver defaults.
func DefaultConfig() Config {
	return Config{
		DetailRetries: 2,
		RetryBackoff:  500 * time.Millisecond,
	}
}

// Resolver merges a bulk per-podcast index, per-episode detail documents and
// synthesized placeholders into one record per episode. Records only ever
// gain information; a failed or missing richer source never regresses a
// populated record. The cache lives for the session and is cleared only on
// an explicit podcast switch.
type Resolver struct {
	mu      sync.Mutex
	fetcher Fetcher
	podcast string
	cfg     Config

	indexTried  bool
	indexFailed bool
	index       map[int]models.IndexEntry

	cache      map[int]*models.EpisodeDetail
	detailDone map[int]bool // Tier C fetched or given up for this session
	inFlight   map[int]bool
}

// NewResolver creates a resolver for the given podcast context.
func NewResolver(fetcher Fetcher, podcast string, cfg Config) *Resolver {
	if cfg.DetailRetries < 1 {
		cfg.DetailRetries = 1
	}
	return &Resolver{
		fetcher:    fetcher,
		podcast:    podcast,
		cfg:        cfg,
		index:      make(map[int]models.IndexEntry),
		cache:      make(map[int]*models.EpisodeDetail),
		detailDone: make(map[int]bool),
		inFlight:   make(map[int]bool),
	}
}

// EnsureIndex fetches the bulk index exactly once per session. A failed
// fetch is recorded, not raised: later resolutions simply lack index data.
func (r *Resolver) EnsureIndex(ctx context.Context) {
	r.mu.Lock()
	if r.indexTried {
		r.mu.Unlock()
		return
	}
	r.indexTried = true
	fetcher, podcast := r.fetcher, r.podcast
	r.mu.Unlock()

	index, err := fetcher.Index(ctx, podcast)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.indexFailed = true
		log.Printf("Failed to load index for %s: %v", podcast, err)
		return
	}
	r.index = index
	for episode := range index {
		if rec, exists := r.cache[episode]; exists {
			r.applyIndexLocked(rec, index[episode])
		}
	}
}

// Episodes returns the episode numbers known to the index, descending, so
// the newest episode sorts first.
func (r *Resolver) Episodes() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.index))
	for n := range r.index {
		out = append(out, n)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// Seed synchronously writes a placeholder or index-derived record for an
// episode if nothing is cached yet, and returns the current record. It never
// touches the network, so a row backed by Seed can never stay blank.
func (r *Resolver) Seed(episode int) *models.EpisodeDetail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seedLocked(episode).Clone()
}

// Cached returns a copy of the cached record, if any.
func (r *Resolver) Cached(episode int) (*models.EpisodeDetail, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, exists := r.cache[episode]
	if !exists {
		return nil, false
	}
	return rec.Clone(), true
}

// Resolve returns the richest record available for an episode, fetching the
// per-episode detail document if it has not been tried this session. Fetch
// failures keep the current tier; the record never regresses.
func (r *Resolver) Resolve(ctx context.Context, episode int) *models.EpisodeDetail {
	r.EnsureIndex(ctx)

	r.mu.Lock()
	rec := r.seedLocked(episode)
	if r.detailDone[episode] || r.inFlight[episode] {
		out := rec.Clone()
		r.mu.Unlock()
		return out
	}
	r.inFlight[episode] = true
	r.mu.Unlock()

	doc, err := r.fetchDetail(ctx, episode)

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, episode)
	r.detailDone[episode] = true
	rec = r.seedLocked(episode)
	if err != nil {
		// Keep the current tier
		log.Printf("Detail fetch for episode %d failed, keeping %q record: %v", episode, rec.Fallback, err)
		return rec.Clone()
	}
	if doc != nil {
		r.applyDetailLocked(rec, doc)
	}
	return rec.Clone()
}

// MergeIndexEntries folds additional index entries (e.g. derived from the
// podcast's RSS feed) into the resolver without overriding what the bulk
// index already knows.
func (r *Resolver) MergeIndexEntries(entries map[int]models.IndexEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for episode, entry := range entries {
		if _, exists := r.index[episode]; exists {
			continue
		}
		r.index[episode] = entry
		if rec, cached := r.cache[episode]; cached {
			r.applyIndexLocked(rec, entry)
		}
	}
}

// Reset clears the whole cache and index state for a podcast context switch.
func (r *Resolver) Reset(podcast string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.podcast = podcast
	r.indexTried = false
	r.indexFailed = false
	r.index = make(map[int]models.IndexEntry)
	r.cache = make(map[int]*models.EpisodeDetail)
	r.detailDone = make(map[int]bool)
	r.inFlight = make(map[int]bool)
}

func (r *Resolver) fetchDetail(ctx context.Context, episode int) (*models.DetailDocument, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.DetailRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(r.cfg.RetryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		doc, err := r.fetcher.EpisodeDetail(ctx, r.podcast, episode)
		if err == nil {
			return doc, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// seedLocked returns the cached record for an episode, creating a Tier A or
// Tier B record from already-available data when nothing is cached.
func (r *Resolver) seedLocked(episode int) *models.EpisodeDetail {
	if rec, exists := r.cache[episode]; exists {
		return rec
	}
	rec := models.MinimalDetail(episode)
	if entry, exists := r.index[episode]; exists {
		r.applyIndexLocked(rec, entry)
	}
	r.cache[episode] = rec
	return rec
}

// applyIndexLocked merges a Tier B entry into a record. The index is the
// source of truth for speaker attribution, so a non-empty speakers list
// always wins, even over an authoritative record. Title and date only fill
// in when no richer tier has provided them.
func (r *Resolver) applyIndexLocked(rec *models.EpisodeDetail, entry models.IndexEntry) {
	if len(entry.Speakers) > 0 {
		rec.Speakers = append([]string(nil), entry.Speakers...)
	}
	if entry.MediaURL != "" && rec.MediaURL == "" {
		rec.MediaURL = entry.MediaURL
	}
	if entry.PageURL != "" && rec.PageURL == "" {
		rec.PageURL = entry.PageURL
	}

	if rec.Fallback == models.FallbackNone {
		// Authoritative records keep their own title/date/duration
		if rec.Title == "" || rec.Title == models.PlaceholderTitle(rec.EpisodeNumber) {
			if entry.Title != "" {
				rec.Title = entry.Title
			}
		}
		if rec.Date == "" {
			rec.Date = entry.Date
		}
		if rec.DurationSec == 0 {
			rec.DurationSec = entry.DurationSec
		}
		return
	}

	if entry.Title != "" {
		rec.Title = entry.Title
	}
	if entry.Date != "" {
		rec.Date = entry.Date
	}
	if entry.DurationSec > 0 {
		rec.DurationSec = entry.DurationSec
	}
	rec.Fallback = models.FallbackIndex
}

// applyDetailLocked merges a Tier C document into a record, after which the
// record is authoritative. Speakers still come from the index when it has
// any, since the index is regenerated more frequently.
func (r *Resolver) applyDetailLocked(rec *models.EpisodeDetail, doc *models.DetailDocument) {
	if doc.Title != "" {
		rec.Title = doc.Title
	}
	if doc.Date != "" {
		rec.Date = doc.Date
	}
	if sec := doc.DurationSeconds(); sec > 0 {
		rec.DurationSec = sec
	}
	if doc.MediaURL != "" {
		rec.MediaURL = doc.MediaURL
	}
	if doc.PageURL != "" {
		rec.PageURL = doc.PageURL
	}
	if doc.Chapters != nil {
		rec.Chapters = append([]models.Chapter(nil), doc.Chapters...)
	}

	entry, hasEntry := r.index[rec.EpisodeNumber]
	if hasEntry && len(entry.Speakers) > 0 {
		rec.Speakers = append([]string(nil), entry.Speakers...)
	} else if len(doc.Speakers) > 0 {
		rec.Speakers = append([]string(nil), doc.Speakers...)
	}

	rec.Fallback = models.FallbackNone
}

// IndexFailed reports whether the one-shot index fetch failed this session.
func (r *Resolver) IndexFailed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indexFailed
}
