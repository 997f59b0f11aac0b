// Package playback owns the single shared media element and serializes
// load/seek/play transitions so overlapping requests cannot interleave into
// an inconsistent final state.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"podboard/internal/models"
)

var (
	// ErrSuperseded marks a play attempt rejected because a newer load
	// replaced it. A benign race inherent to async loading; swallowed.
	ErrSuperseded = errors.New("superseded by a newer load")
	// ErrAborted marks a play attempt rejected because the load was
	// aborted. Also benign.
	ErrAborted = errors.New("playback aborted")
	// ErrNoMedia means no playable media locator is known for an episode.
	ErrNoMedia = errors.New("no playable media")
)

// Element is the single shared media element. Exactly one component, the
// Controller, may mutate it; everything else reads positions off Ticks.
type Element interface {
	// Load begins loading a new source, resetting metadata state.
	Load(source string) error
	// HasMetadata reports whether metadata for the current source is in.
	HasMetadata() bool
	// MetadataReady returns a channel closed once metadata for the
	// current source is available. Load replaces the channel.
	MetadataReady() <-chan struct{}
	// SetPosition seeks to an absolute position. May fail before
	// metadata is available in some environments.
	SetPosition(seconds int) error
	Play() error
	Pause() error
	Position() float64
	Duration() float64
	// Ticks delivers the advancing playback position once per tick.
	Ticks() <-chan float64
	Close() error
}

// TranscriptLoader is the transcript side-load the controller kicks off in
// parallel with a play request.
type TranscriptLoader interface {
	Load(ctx context.Context, episode int)
}

// MediaResolver supplies media locators for PlayAt. Seed is synchronous and
// never suspends.
type MediaResolver interface {
	EnsureIndex(ctx context.Context)
	Seed(episode int) *models.EpisodeDetail
}

// Request describes what should play. Immutable once issued; a later request
// with a higher token supersedes it. The token also lets callers force a
// fresh application of an otherwise identical request.
type Request struct {
	Source            string
	SeekToSeconds     float64
	Autoplay          bool
	Token             int64
	TranscriptEpisode int // 0 = no transcript side-load
}

// Options configures a Controller.
type Options struct {
	MetadataTimeout time.Duration
	// OnError receives user-visible playback failures. Benign races are
	// never reported here.
	OnError func(msg string)
	// OpenPage is the best-effort fallback when an episode has no
	// playable media, handed a deep link into the episode's page.
	OpenPage func(url string) error
}

// Controller drives the shared media element. Correctness under overlapping
// Apply calls rests entirely on the monotonic sequence number: any async
// continuation that observes a newer sequence aborts without side effects.
type Controller struct {
	el          Element
	transcripts TranscriptLoader
	resolver    MediaResolver
	opts        Options

	seq       int64 // atomic
	tokens    int64 // atomic; for callers wanting fresh request tokens
	mu        sync.Mutex
	curSource string
	closed    bool
}

// NewController creates a controller around the shared element. transcripts
// and resolver may be nil for callers that drive raw sources.
func NewController(el Element, transcripts TranscriptLoader, resolver MediaResolver, opts Options) *Controller {
	if opts.MetadataTimeout <= 0 {
		opts.MetadataTimeout = 15 * time.Second
	}
	return &Controller{
		el:          el,
		transcripts: transcripts,
		resolver:    resolver,
		opts:        opts,
	}
}

// NextToken returns the next caller-side request token.
func (c *Controller) NextToken() int64 {
	return atomic.AddInt64(&c.tokens, 1)
}

// Apply issues a play request. It returns immediately; the returned channel
// closes once the request has settled (applied, superseded, or abandoned).
// Applying the same request again is safe and re-applies it in full.
func (c *Controller) Apply(ctx context.Context, req Request) <-chan struct{} {
	seq := atomic.AddInt64(&c.seq, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.apply(ctx, req, seq)
	}()
	return done
}

// PlayAt resolves an episode's media locator and plays it from positionSec.
// When no media locator is known it falls back to opening the episode's page
// with a time fragment, best-effort, and reports that as an error since
// autoplay cannot be guaranteed there.
func (c *Controller) PlayAt(ctx context.Context, episode int, positionSec float64, label string) (<-chan struct{}, error) {
	if c.resolver == nil {
		return nil, fmt.Errorf("%w: no resolver configured", ErrNoMedia)
	}
	c.resolver.EnsureIndex(ctx)
	rec := c.resolver.Seed(episode)

	if rec.MediaURL == "" {
		if rec.PageURL != "" {
			link := deepLink(rec.PageURL, positionSec)
			if c.opts.OpenPage != nil {
				if err := c.opts.OpenPage(link); err != nil {
					log.Printf("Failed to open page for episode %d: %v", episode, err)
				}
			}
			return nil, fmt.Errorf("%w for episode %d (%s): falling back to %s", ErrNoMedia, episode, label, link)
		}
		return nil, fmt.Errorf("%w for episode %d (%s)", ErrNoMedia, episode, label)
	}

	log.Printf("Playing episode %d at %ds (%s)", episode, int(positionSec), label)
	req := Request{
		Source:            rec.MediaURL,
		SeekToSeconds:     positionSec,
		Autoplay:          true,
		Token:             c.NextToken(),
		TranscriptEpisode: episode,
	}
	return c.Apply(ctx, req), nil
}

// Close pauses the element and invalidates all outstanding continuations.
// No callback mutates shared state after Close returns.
func (c *Controller) Close() {
	atomic.AddInt64(&c.seq, 1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if err := c.el.Pause(); err != nil {
		log.Printf("Pause on teardown failed: %v", err)
	}
}

func (c *Controller) stale(seq int64) bool {
	return atomic.LoadInt64(&c.seq) != seq
}

func (c *Controller) apply(ctx context.Context, req Request, seq int64) {
	c.mu.Lock()
	if c.closed || c.stale(seq) {
		c.mu.Unlock()
		return
	}
	sourceChanged := req.Source != c.curSource
	if sourceChanged {
		// Pause before swapping the source so the old stream does not
		// keep playing over the load
		if err := c.el.Pause(); err != nil {
			log.Printf("Pause before reload failed: %v", err)
		}
		if err := c.el.Load(req.Source); err != nil {
			c.mu.Unlock()
			c.reportError(fmt.Sprintf("Could not load %s: %v", req.Source, err))
			return
		}
		c.curSource = req.Source
	}
	ready := c.el.MetadataReady()
	c.mu.Unlock()

	if req.TranscriptEpisode > 0 && c.transcripts != nil {
		episode := req.TranscriptEpisode
		go c.transcripts.Load(ctx, episode)
	}

	// Reloading an unchanged source would cause an audible glitch, so for
	// a same-source request only wait for metadata if it is not in yet.
	if sourceChanged || !c.el.HasMetadata() {
		timer := time.NewTimer(c.opts.MetadataTimeout)
		select {
		case <-ready:
			timer.Stop()
		case <-timer.C:
			// Proceed anyway rather than hang forever
			log.Printf("Metadata wait for %s timed out after %v", req.Source, c.opts.MetadataTimeout)
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}

	// The staleness check and the mutations it guards must be one atomic
	// step: a newer request entering apply blocks on c.mu until the seek
	// and play below have landed, so a superseded continuation can never
	// write the final observable position.
	c.mu.Lock()
	if c.closed || c.stale(seq) {
		c.mu.Unlock()
		return
	}

	pos := int(math.Floor(req.SeekToSeconds))
	if pos < 0 {
		pos = 0
	}
	if err := c.el.SetPosition(pos); err != nil {
		// Seeking before metadata is available can fail in some
		// environments; the position is re-applied once metadata lands
		log.Printf("Seek to %ds failed: %v", pos, err)
	}

	var playErr error
	if req.Autoplay {
		playErr = c.el.Play()
	}
	c.mu.Unlock()

	if playErr != nil {
		if errors.Is(playErr, ErrSuperseded) || errors.Is(playErr, ErrAborted) {
			log.Printf("Play attempt for token %d superseded: %v", req.Token, playErr)
			return
		}
		c.reportError(fmt.Sprintf("Playback failed: %v", playErr))
	}
}

func (c *Controller) reportError(msg string) {
	log.Print(msg)
	if c.opts.OnError != nil {
		c.opts.OnError(msg)
	}
}

// deepLink appends a time parameter to an episode page locator.
func deepLink(pageURL string, positionSec float64) string {
	sec := int(math.Floor(positionSec))
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%s#t=%d", pageURL, sec)
}
