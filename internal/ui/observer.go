package ui

import "sync"

// VisibilityObserver connects the table's visible-range reports to the
// loader's per-row interest registrations. It is the terminal stand-in for
// a per-row viewport observer.
type VisibilityObserver struct {
	mu    sync.Mutex
	fires map[int]func()
}

// NewVisibilityObserver creates an empty observer.
func NewVisibilityObserver() *VisibilityObserver {
	return &VisibilityObserver{fires: make(map[int]func())}
}

// Observe registers a row's fire callback.
func (o *VisibilityObserver) Observe(episode int, fire func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fires[episode] = fire
}

// Unobserve removes a row's registration.
func (o *VisibilityObserver) Unobserve(episode int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.fires, episode)
}

// NotifyVisible fires the callbacks of every listed episode that is still
// registered. Firing twice is harmless; the loader deduplicates.
func (o *VisibilityObserver) NotifyVisible(episodes []int) {
	o.mu.Lock()
	fires := make([]func(), 0, len(episodes))
	for _, episode := range episodes {
		if fire, exists := o.fires[episode]; exists {
			fires = append(fires, fire)
		}
	}
	o.mu.Unlock()

	for _, fire := range fires {
		fire()
	}
}
