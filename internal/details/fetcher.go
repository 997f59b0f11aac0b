package details

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"podboard/internal/models"
)

// Fetcher retrieves the two remote metadata sources the resolver merges: the
// bulk per-podcast index and the per-episode detail documents. A nil detail
// document with a nil error means the document genuinely does not exist.
type Fetcher interface {
	Index(ctx context.Context, podcast string) (map[int]models.IndexEntry, error)
	EpisodeDetail(ctx context.Context, podcast string, episode int) (*models.DetailDocument, error)
}

// HTTPFetcher fetches metadata documents over HTTP relative to a base URL.
type HTTPFetcher struct {
	client  *http.Client
	baseURL string
}

// NewHTTPFetcher creates a fetcher rooted at baseURL.
func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	return &HTTPFetcher{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Index fetches the bulk index for a podcast.
func (f *HTTPFetcher) Index(ctx context.Context, podcast string) (map[int]models.IndexEntry, error) {
	url := fmt.Sprintf("%s/%s/index.json", f.baseURL, podcast)

	body, status, err := f.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch index: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("index fetch returned status %d", status)
	}

	var doc models.IndexDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse index: %w", err)
	}
	return doc.ByNumber(), nil
}

// EpisodeDetail fetches the detail document for one episode. A 404 is a
// valid "no data" outcome and is reported as (nil, nil).
func (f *HTTPFetcher) EpisodeDetail(ctx context.Context, podcast string, episode int) (*models.DetailDocument, error) {
	url := fmt.Sprintf("%s/%s/episodes/%d.json", f.baseURL, podcast, episode)

	body, status, err := f.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch episode %d detail: %w", episode, err)
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("episode %d detail fetch returned status %d", episode, status)
	}

	var doc models.DetailDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse episode %d detail: %w", episode, err)
	}
	return &doc, nil
}

func (f *HTTPFetcher) get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}
