// Package feed supplements the bulk metadata index from a podcast's RSS
// feed. Episodes the index does not know yet, typically the newest ones,
// still get a title, a media locator, and a duration this way.
package feed

import (
	"context"
	"log"
	"regexp"
	"strconv"

	"github.com/mmcdole/gofeed"

	"podboard/internal/details"
	"podboard/internal/models"
)

// episodeNumberRe pulls a leading episode number out of feed item titles
// like "FS123 Some Title" or "Episode 123: Some Title".
var episodeNumberRe = regexp.MustCompile(`^[^\d]{0,16}(\d+)`)

// Fallback wraps a metadata fetcher and fills index gaps from RSS. It is a
// best-effort decorator: feed failures leave the inner result untouched.
type Fallback struct {
	inner  details.Fetcher
	parser *gofeed.Parser
	feeds  map[string]string // podcast id -> feed URL
}

// NewFallback creates a fallback around inner. feeds maps podcast ids to
// their RSS feed URLs; podcasts without an entry pass through unchanged.
func NewFallback(inner details.Fetcher, feeds map[string]string) *Fallback {
	return &Fallback{
		inner:  inner,
		parser: gofeed.NewParser(),
		feeds:  feeds,
	}
}

// Index fetches the bulk index and supplements episodes missing from it with
// entries derived from the podcast's RSS feed.
func (f *Fallback) Index(ctx context.Context, podcast string) (map[int]models.IndexEntry, error) {
	index, err := f.inner.Index(ctx, podcast)
	if err != nil {
		return nil, err
	}

	feedURL, exists := f.feeds[podcast]
	if !exists {
		return index, nil
	}

	parsed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		log.Printf("RSS supplement for %s failed: %v", podcast, err)
		return index, nil
	}

	added := 0
	for _, item := range parsed.Items {
		number := episodeNumber(item)
		if number <= 0 {
			continue
		}
		if _, known := index[number]; known {
			continue
		}
		index[number] = indexEntryFromItem(item)
		added++
	}
	if added > 0 {
		log.Printf("RSS feed supplied %d episodes missing from the %s index", added, podcast)
	}
	return index, nil
}

// EpisodeDetail passes through to the inner fetcher; RSS carries no
// per-episode detail documents.
func (f *Fallback) EpisodeDetail(ctx context.Context, podcast string, episode int) (*models.DetailDocument, error) {
	return f.inner.EpisodeDetail(ctx, podcast, episode)
}

// episodeNumber extracts an episode number from a feed item, preferring the
// itunes episode tag over a number in the title.
func episodeNumber(item *gofeed.Item) int {
	if item.ITunesExt != nil && item.ITunesExt.Episode != "" {
		if n, err := strconv.Atoi(item.ITunesExt.Episode); err == nil && n > 0 {
			return n
		}
	}
	if m := episodeNumberRe.FindStringSubmatch(item.Title); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func indexEntryFromItem(item *gofeed.Item) models.IndexEntry {
	entry := models.IndexEntry{
		Title:   item.Title,
		PageURL: item.Link,
	}
	if len(item.Enclosures) > 0 {
		entry.MediaURL = item.Enclosures[0].URL
	}
	if item.PublishedParsed != nil {
		entry.Date = item.PublishedParsed.Format("2006-01-02")
	}
	if item.ITunesExt != nil {
		entry.DurationSec = models.ParseDurationString(item.ITunesExt.Duration)
	}
	return entry
}
