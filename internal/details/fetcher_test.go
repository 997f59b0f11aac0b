package details

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPFetcher_Index(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/freakshow/index.json" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"episodes":{"42":{"title":"The Answer","mediaUrl":"https://cdn.example.com/42.mp3","speakers":["A","B"]}}}`)
	}))
	defer server.Close()

	f := NewHTTPFetcher(server.URL)
	index, err := f.Index(context.Background(), "freakshow")
	if err != nil {
		t.Fatalf("Index fetch failed: %v", err)
	}

	entry, exists := index[42]
	if !exists {
		t.Fatal("Expected entry for episode 42")
	}
	if entry.Title != "The Answer" || len(entry.Speakers) != 2 {
		t.Errorf("Unexpected entry: %+v", entry)
	}
}

func TestHTTPFetcher_IndexErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := NewHTTPFetcher(server.URL)
	if _, err := f.Index(context.Background(), "freakshow"); err == nil {
		t.Error("Expected error for server failure")
	}
}

func TestHTTPFetcher_EpisodeDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/freakshow/episodes/42.json":
			fmt.Fprint(w, `{"title":"Rich","duration":[2,0,30],"chapters":[{"title":"Intro","startSec":0}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	f := NewHTTPFetcher(server.URL)
	ctx := context.Background()

	doc, err := f.EpisodeDetail(ctx, "freakshow", 42)
	if err != nil {
		t.Fatalf("Detail fetch failed: %v", err)
	}
	if doc.Title != "Rich" || doc.DurationSeconds() != 7230 || len(doc.Chapters) != 1 {
		t.Errorf("Unexpected document: %+v", doc)
	}

	// 404 is a valid silent no-data outcome, not an error
	doc, err = f.EpisodeDetail(ctx, "freakshow", 99)
	if err != nil {
		t.Errorf("404 should not be an error: %v", err)
	}
	if doc != nil {
		t.Errorf("404 should yield a nil document, got %+v", doc)
	}
}

func TestHTTPFetcher_MalformedDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer server.Close()

	f := NewHTTPFetcher(server.URL)
	if _, err := f.EpisodeDetail(context.Background(), "freakshow", 1); err == nil {
		t.Error("Expected parse error for malformed body")
	}
}
