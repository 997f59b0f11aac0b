// Package speakers resolves optional per-speaker metadata documents. Every
// failure here is silent; display falls back to generated initials.
package speakers

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
	"unicode"
)

// Meta is a speaker metadata document. All fields optional.
type Meta struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

// Slug normalizes a display name into the document key: lowercased, runs of
// non-alphanumerics collapsed to single hyphens.
func Slug(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// Initials derives the avatar fallback for a speaker with no portrait: the
// first letter of up to two name parts, uppercased.
func Initials(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "?"
	}
	var b strings.Builder
	for i, part := range parts {
		if i >= 2 {
			break
		}
		for _, r := range part {
			b.WriteRune(unicode.ToUpper(r))
			break
		}
	}
	return b.String()
}

// Store fetches and caches speaker metadata for a session. A failed fetch is
// cached as absent and never retried; portraits are low-value resources.
type Store struct {
	client  *http.Client
	baseURL string

	mu    sync.Mutex
	metas map[string]*Meta // slug -> meta, nil = known absent
}

// NewStore creates a store reading speaker documents under baseURL.
func NewStore(baseURL string) *Store {
	return &Store{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		metas:   make(map[string]*Meta),
	}
}

// Lookup returns the metadata for a speaker name, fetching it on first use.
// The second return is false when no document is available.
func (s *Store) Lookup(ctx context.Context, name string) (Meta, bool) {
	slug := Slug(name)
	if slug == "" {
		return Meta{}, false
	}

	s.mu.Lock()
	meta, tried := s.metas[slug]
	s.mu.Unlock()
	if tried {
		if meta == nil {
			return Meta{}, false
		}
		return *meta, true
	}

	meta = s.fetch(ctx, slug)

	s.mu.Lock()
	s.metas[slug] = meta
	s.mu.Unlock()

	if meta == nil {
		return Meta{}, false
	}
	return *meta, true
}

// Reset drops the session cache.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metas = make(map[string]*Meta)
}

// fetch loads one speaker document. Any failure yields nil without retry.
func (s *Store) fetch(ctx context.Context, slug string) *Meta {
	url := fmt.Sprintf("%s/speakers/%s.json", s.baseURL, slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("Speaker meta fetch for %s failed: %v", slug, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	var meta Meta
	if err := json.Unmarshal(body, &meta); err != nil {
		log.Printf("Speaker meta for %s is malformed: %v", slug, err)
		return nil
	}
	return &meta
}
