package table

import "sync"

// ─────────────────────────────────────────────────────────────
// PageStore — page position per logical list identity
// ─────────────────────────────────────────────────────────────

// PageStore remembers the current page index for each logical list
// (e.g. "projects", "tasks/<projectID>"). It is created once per server
// session and handed to every Table at construction, so a rebuilt table
// for the same list resumes at the user's page while distinct lists keep
// independent counters.
//
// Handlers run on concurrent goroutines, so access is guarded per store.
type PageStore struct {
	mu      sync.RWMutex
	indexes map[string]int
}

// NewPageStore creates an empty PageStore.
func NewPageStore() *PageStore {
	return &PageStore{indexes: make(map[string]int)}
}

// Get returns the stored page index for listID, or 0 if unseen.
func (p *PageStore) Get(listID string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.indexes[listID]
}

// Set stores the page index for listID. Negative indexes are stored as 0.
func (p *PageStore) Set(listID string, index int) {
	if index < 0 {
		index = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.indexes[listID] = index
}

// Forget drops the stored index for listID (e.g. when the list is deleted).
func (p *PageStore) Forget(listID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.indexes, listID)
}
