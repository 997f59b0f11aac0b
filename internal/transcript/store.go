package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

// LoadState tracks the per-episode transcript load lifecycle.
type LoadState int

const (
	StateIdle LoadState = iota
	StateLoading
	StateReady
	StateMissing
	StateMalformed
)

func (s LoadState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateMissing:
		return "missing"
	case StateMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Store lazily fetches and caches transcript documents per episode for the
// session. A transcript is an optional enhancement: every failure mode here
// is silent toward the user, the states only differ for diagnostics.
type Store struct {
	mu      sync.Mutex
	client  *http.Client
	baseURL string
	podcast string
	states  map[int]LoadState
	docs    map[int]*Document
}

// NewStore creates a transcript store fetching from baseURL for the given
// podcast context.
func NewStore(baseURL, podcast string) *Store {
	return &Store{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		podcast: podcast,
		states:  make(map[int]LoadState),
		docs:    make(map[int]*Document),
	}
}

// Load fetches the transcript for an episode unless a load is already
// outstanding or finished. Calling it again while Loading or in any terminal
// state is a no-op, so concurrent duplicate loads collapse into one fetch.
func (s *Store) Load(ctx context.Context, episode int) {
	s.mu.Lock()
	if s.states[episode] != StateIdle {
		s.mu.Unlock()
		return
	}
	s.states[episode] = StateLoading
	s.mu.Unlock()

	state, doc := s.fetch(ctx, episode)

	s.mu.Lock()
	s.states[episode] = state
	if doc != nil {
		s.docs[episode] = doc
	}
	s.mu.Unlock()
}

// Document returns the cached transcript for an episode, if one is ready.
func (s *Store) Document(episode int) (*Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, exists := s.docs[episode]
	return doc, exists
}

// State returns the load state for an episode.
func (s *Store) State(episode int) LoadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[episode]
}

// Reset drops all cached documents and states, for a podcast context switch.
func (s *Store) Reset(podcast string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.podcast = podcast
	s.states = make(map[int]LoadState)
	s.docs = make(map[int]*Document)
}

func (s *Store) fetch(ctx context.Context, episode int) (LoadState, *Document) {
	url := fmt.Sprintf("%s/%s/episodes/%d-ts.json", s.baseURL, s.podcast, episode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Printf("Transcript request for episode %d failed: %v", episode, err)
		return StateMissing, nil
	}

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("Transcript fetch for episode %d failed: %v", episode, err)
		return StateMissing, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Not generated for this episode; a normal outcome
		return StateMissing, nil
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("Transcript fetch for episode %d returned status %d", episode, resp.StatusCode)
		return StateMissing, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("Failed to read transcript for episode %d: %v", episode, err)
		return StateMissing, nil
	}

	// Some hosts answer unknown paths with a generic HTML page and a 200
	if looksLikeHTML(body) {
		log.Printf("Transcript for episode %d is an HTML fallback page, treating as unavailable", episode)
		return StateMissing, nil
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		log.Printf("Failed to parse transcript for episode %d: %v", episode, err)
		return StateMalformed, nil
	}
	if err := doc.Validate(); err != nil {
		log.Printf("Transcript for episode %d failed validation: %v", episode, err)
		return StateMalformed, nil
	}

	return StateReady, &doc
}

func looksLikeHTML(body []byte) bool {
	head := body
	if len(head) > 256 {
		head = head[:256]
	}
	trimmed := strings.ToLower(strings.TrimSpace(string(head)))
	return strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html")
}
