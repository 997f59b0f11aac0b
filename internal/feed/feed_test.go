package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mmcdole/gofeed"

	"podboard/internal/models"
)

type fakeFetcher struct {
	index map[int]models.IndexEntry
}

func (f *fakeFetcher) Index(ctx context.Context, podcast string) (map[int]models.IndexEntry, error) {
	out := make(map[int]models.IndexEntry, len(f.index))
	for k, v := range f.index {
		out[k] = v
	}
	return out, nil
}

func (f *fakeFetcher) EpisodeDetail(ctx context.Context, podcast string, episode int) (*models.DetailDocument, error) {
	return nil, nil
}

const testFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
  <channel>
    <title>Freak Show</title>
    <item>
      <title>FS271 Brand New</title>
      <link>https://example.com/fs271</link>
      <enclosure url="https://cdn.example.com/fs271.mp3" type="audio/mpeg" length="1"/>
      <itunes:episode>271</itunes:episode>
      <itunes:duration>02:01:30</itunes:duration>
      <pubDate>Mon, 05 Jan 2026 12:00:00 +0000</pubDate>
    </item>
    <item>
      <title>FS270 Already Indexed</title>
      <enclosure url="https://cdn.example.com/fs270-other.mp3" type="audio/mpeg" length="1"/>
      <itunes:episode>270</itunes:episode>
    </item>
    <item>
      <title>Bonus: no number here</title>
    </item>
  </channel>
</rss>`

func TestFallback_SupplementsMissingEpisodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, testFeed)
	}))
	defer server.Close()

	inner := &fakeFetcher{index: map[int]models.IndexEntry{
		270: {Title: "The Real 270", MediaURL: "https://cdn.example.com/fs270.mp3"},
	}}
	f := NewFallback(inner, map[string]string{"freakshow": server.URL})

	index, err := f.Index(context.Background(), "freakshow")
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	// Indexed episodes keep their index entry
	if index[270].MediaURL != "https://cdn.example.com/fs270.mp3" {
		t.Errorf("Index entry overwritten by feed: %+v", index[270])
	}

	// The episode only the feed knows gets filled in
	added, exists := index[271]
	if !exists {
		t.Fatal("Expected episode 271 supplied from the feed")
	}
	if added.Title != "FS271 Brand New" || added.MediaURL != "https://cdn.example.com/fs271.mp3" {
		t.Errorf("Unexpected supplemented entry: %+v", added)
	}
	if added.DurationSec != 2*3600+90 {
		t.Errorf("Duration not parsed: %d", added.DurationSec)
	}
	if added.Date != "2026-01-05" {
		t.Errorf("Date not normalized: %s", added.Date)
	}

	// The unnumbered bonus item is skipped
	if len(index) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(index))
	}
}

func TestFallback_FeedFailureIsBestEffort(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	inner := &fakeFetcher{index: map[int]models.IndexEntry{5: {Title: "Five"}}}
	f := NewFallback(inner, map[string]string{"freakshow": server.URL})

	index, err := f.Index(context.Background(), "freakshow")
	if err != nil {
		t.Fatalf("Feed failure must not fail the index: %v", err)
	}
	if len(index) != 1 || index[5].Title != "Five" {
		t.Errorf("Inner index not preserved: %+v", index)
	}
}

func TestFallback_UnknownPodcastPassesThrough(t *testing.T) {
	inner := &fakeFetcher{index: map[int]models.IndexEntry{1: {Title: "One"}}}
	f := NewFallback(inner, nil)

	index, err := f.Index(context.Background(), "other")
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if len(index) != 1 {
		t.Errorf("Unexpected index: %+v", index)
	}
}

func TestEpisodeNumberFromTitle(t *testing.T) {
	cases := []struct {
		title string
		want  int
	}{
		{"FS123 Something", 123},
		{"Episode 45: Stuff", 45},
		{"45 minutes of silence", 45},
		{"No number at all", 0},
		{"", 0},
	}
	for _, c := range cases {
		if got := episodeNumber(&gofeed.Item{Title: c.title}); got != c.want {
			t.Errorf("episodeNumber(%q) = %d, want %d", c.title, got, c.want)
		}
	}
}
