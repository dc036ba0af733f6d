package tracking

import (
	"net/http"
	"sync"

	"github.com/matst80/slask-gallery/pkg/types"
)

// MemoryTracking keeps events in memory, used when no broker is configured
// and in tests.
type MemoryTracking struct {
	mu       sync.Mutex
	Sessions []string
	Listings []types.ListingEvent
}

func (t *MemoryTracking) TrackSession(sessionId string, r *http.Request) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Sessions = append(t.Sessions, sessionId)
}

func (t *MemoryTracking) TrackListing(sessionId string, event types.ListingEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Listings = append(t.Listings, event)
}

func (t *MemoryTracking) Events() ([]string, []types.ListingEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string{}, t.Sessions...), append([]types.ListingEvent{}, t.Listings...)
}

func (t *MemoryTracking) Close() error {
	return nil
}
