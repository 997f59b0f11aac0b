package models

import (
	"fmt"
	"strconv"
	"strings"
)

// FallbackKind reports which metadata tier a record was built from. An empty
// value means the record carries full per-episode detail.
type FallbackKind string

const (
	FallbackNone    FallbackKind = ""
	FallbackIndex   FallbackKind = "index"
	FallbackMinimal FallbackKind = "minimal"
)

// Chapter is an optional marker inside an episode, only present on records
// built from the per-episode detail document.
type Chapter struct {
	Title    string  `json:"title"`
	StartSec float64 `json:"startSec"`
}

// EpisodeDetail is the normalized per-episode record merged from up to three
// sources: a synthesized placeholder, the bulk per-podcast index, and the
// per-episode detail document.
type EpisodeDetail struct {
	EpisodeNumber int
	Title         string
	Date          string
	DurationSec   int
	Speakers      []string
	MediaURL      string
	PageURL       string
	Chapters      []Chapter
	Fallback      FallbackKind
}

// PlaceholderTitle is the title used when no source provides one.
func PlaceholderTitle(episodeNumber int) string {
	return fmt.Sprintf("Episode %d", episodeNumber)
}

// MinimalDetail builds the placeholder record used when neither the index nor
// the detail document has anything for an episode.
func MinimalDetail(episodeNumber int) *EpisodeDetail {
	return &EpisodeDetail{
		EpisodeNumber: episodeNumber,
		Title:         PlaceholderTitle(episodeNumber),
		Fallback:      FallbackMinimal,
	}
}

// IndexEntry is one entry of the bulk per-podcast index. Every field is
// optional; a zero value means the index does not know.
type IndexEntry struct {
	MediaURL    string   `json:"mediaUrl,omitempty"`
	PageURL     string   `json:"pageUrl,omitempty"`
	DurationSec int      `json:"durationSec,omitempty"`
	Title       string   `json:"title,omitempty"`
	Date        string   `json:"date,omitempty"`
	Speakers    []string `json:"speakers,omitempty"`
}

// IndexDocument is the wire shape of the bulk index, keyed by episode number.
type IndexDocument struct {
	Episodes map[string]IndexEntry `json:"episodes"`
}

// ByNumber converts the string-keyed wire map into an int-keyed one. Entries
// whose key is not a number are dropped.
func (d *IndexDocument) ByNumber() map[int]IndexEntry {
	out := make(map[int]IndexEntry, len(d.Episodes))
	for key, entry := range d.Episodes {
		n, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		out[n] = entry
	}
	return out
}

// DetailDocument is the wire shape of the per-episode detail document.
// Duration may arrive either as plain seconds or as an [hours, minutes,
// seconds] triple.
type DetailDocument struct {
	Title       string    `json:"title,omitempty"`
	Date        string    `json:"date,omitempty"`
	DurationSec int       `json:"durationSec,omitempty"`
	Duration    []int     `json:"duration,omitempty"`
	Speakers    []string  `json:"speakers,omitempty"`
	MediaURL    string    `json:"mediaUrl,omitempty"`
	PageURL     string    `json:"pageUrl,omitempty"`
	Chapters    []Chapter `json:"chapters,omitempty"`
}

// DurationSeconds normalizes the document's duration to seconds, preferring
// the explicit seconds field over the triple. Returns 0 when neither is set.
func (d *DetailDocument) DurationSeconds() int {
	if d.DurationSec > 0 {
		return d.DurationSec
	}
	if len(d.Duration) >= 3 {
		return d.Duration[0]*3600 + d.Duration[1]*60 + d.Duration[2]
	}
	return 0
}

// ParseDurationString converts the duration formats seen in feeds to seconds.
// Accepts plain seconds, MM:SS, and HH:MM:SS; anything else yields 0.
func ParseDurationString(duration string) int {
	duration = strings.TrimSpace(duration)
	if duration == "" {
		return 0
	}

	// Plain seconds is the most common case
	if seconds, err := strconv.Atoi(duration); err == nil {
		if seconds < 0 {
			return 0
		}
		return seconds
	}

	parts := strings.Split(duration, ":")

	var hours, minutes, seconds int
	var err error

	switch len(parts) {
	case 2: // MM:SS
		if minutes, err = strconv.Atoi(parts[0]); err != nil {
			return 0
		}
		if seconds, err = strconv.Atoi(parts[1]); err != nil {
			return 0
		}
	case 3: // HH:MM:SS
		if hours, err = strconv.Atoi(parts[0]); err != nil {
			return 0
		}
		if minutes, err = strconv.Atoi(parts[1]); err != nil {
			return 0
		}
		if seconds, err = strconv.Atoi(parts[2]); err != nil {
			return 0
		}
	default:
		return 0
	}

	return hours*3600 + minutes*60 + seconds
}

// FormatDuration renders seconds as H:MM:SS or M:SS for table display.
func FormatDuration(totalSec int) string {
	if totalSec <= 0 {
		return "--:--"
	}
	h := totalSec / 3600
	m := (totalSec % 3600) / 60
	s := totalSec % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Clone returns a deep copy so cached records can be handed out without
// letting callers mutate the cache.
func (e *EpisodeDetail) Clone() *EpisodeDetail {
	out := *e
	if e.Speakers != nil {
		out.Speakers = append([]string(nil), e.Speakers...)
	}
	if e.Chapters != nil {
		out.Chapters = append([]Chapter(nil), e.Chapters...)
	}
	return &out
}
