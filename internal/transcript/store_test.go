package transcript

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_LoadReady(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/freakshow/episodes/42-ts.json" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"version":2,"speakers":["A"],"timestamps":[0,10],"speakerIndex":[0,0],"text":["hi","more"]}`)
	}))
	defer server.Close()

	store := NewStore(server.URL, "freakshow")
	store.Load(context.Background(), 42)

	if got := store.State(42); got != StateReady {
		t.Fatalf("Expected ready state, got %v", got)
	}

	doc, exists := store.Document(42)
	if !exists {
		t.Fatal("Expected cached document")
	}
	if len(doc.Timestamps) != 2 || doc.Speakers[0] != "A" {
		t.Errorf("Unexpected document: %+v", doc)
	}
}

func TestStore_LoadMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	store := NewStore(server.URL, "freakshow")
	store.Load(context.Background(), 7)

	if got := store.State(7); got != StateMissing {
		t.Errorf("Expected missing state for 404, got %v", got)
	}
	if _, exists := store.Document(7); exists {
		t.Error("Missing transcript should not be cached as a document")
	}
}

func TestStore_HTMLFallbackPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<!DOCTYPE html><html><body>Not found</body></html>")
	}))
	defer server.Close()

	store := NewStore(server.URL, "freakshow")
	store.Load(context.Background(), 7)

	if got := store.State(7); got != StateMissing {
		t.Errorf("HTML fallback page should be treated as unavailable, got %v", got)
	}
}

func TestStore_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"wrong version", `{"version":1,"speakers":[],"timestamps":[],"speakerIndex":[],"text":[]}`},
		{"mismatched lengths", `{"version":2,"speakers":[],"timestamps":[1,2],"speakerIndex":[0],"text":["a","b"]}`},
		{"not json", `garbage`},
		{"non-array fields", `{"version":2,"speakers":"A","timestamps":5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			store := NewStore(server.URL, "freakshow")
			store.Load(context.Background(), 1)
			if got := store.State(1); got != StateMalformed {
				t.Errorf("Expected malformed state, got %v", got)
			}
		})
	}
}

func TestStore_DuplicateLoadsSuppressed(t *testing.T) {
	var fetches int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		<-release
		fmt.Fprint(w, `{"version":2,"speakers":[],"timestamps":[],"speakerIndex":[],"text":[]}`)
	}))
	defer server.Close()

	store := NewStore(server.URL, "freakshow")

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Load(context.Background(), 42)
		}()
	}

	// Let the duplicate callers hit the Loading guard, then release the fetch
	for store.State(42) != StateLoading {
		time.Sleep(time.Millisecond)
	}
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&fetches); n != 1 {
		t.Errorf("Expected exactly one fetch, got %d", n)
	}

	// Loading again once ready is also a no-op
	store.Load(context.Background(), 42)
	if n := atomic.LoadInt32(&fetches); n != 1 {
		t.Errorf("Load after ready refetched: %d fetches", n)
	}
}

func TestStore_Reset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"version":2,"speakers":[],"timestamps":[],"speakerIndex":[],"text":[]}`)
	}))
	defer server.Close()

	store := NewStore(server.URL, "freakshow")
	store.Load(context.Background(), 1)
	if store.State(1) != StateReady {
		t.Fatal("Expected ready state before reset")
	}

	store.Reset("othercast")
	if store.State(1) != StateIdle {
		t.Error("Reset should drop load states")
	}
	if _, exists := store.Document(1); exists {
		t.Error("Reset should drop cached documents")
	}
}
