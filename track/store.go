package track

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Source fetches recorded samples for one aircraft from the external
// history service. Implementations own all I/O and retry policy; samples
// may be returned newest-first.
type Source interface {
	FetchTrack(ctx context.Context, aircraftID string, windowHours, limit int) ([]Sample, error)
}

const (
	// DefaultWindowHours is how far back a fetch reaches
	DefaultWindowHours = 2
	// DefaultLimit caps the number of samples per fetch
	DefaultLimit = 2000

	cacheSize = 64
	cacheTTL  = 30 * time.Minute
)

// Store is a per-aircraft cache of normalized tracks, fetched lazily from a
// Source. Entries are retained for reuse while a session is alive and expire
// afterwards so a long-lived process does not hoard closed-event tracks.
type Store struct {
	source      Source
	windowHours int
	limit       int

	mutex sync.Mutex
	cache *expirable.LRU[string, Track]
}

// NewStore creates a store backed by the given source
func NewStore(source Source) *Store {
	return &Store{
		source:      source,
		windowHours: DefaultWindowHours,
		limit:       DefaultLimit,
		cache:       expirable.NewLRU[string, Track](cacheSize, nil, cacheTTL),
	}
}

// Fetch returns the track for an aircraft, loading it from the source on
// first use. Fetching is idempotent for a given aircraft within a session;
// on failure the entry stays absent and other aircraft are unaffected.
func (s *Store) Fetch(ctx context.Context, aircraftID string) (Track, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if t, ok := s.cache.Get(aircraftID); ok {
		return t, nil
	}
	return s.fetchLocked(ctx, aircraftID)
}

// Refresh discards any cached track for the aircraft and fetches a fresh
// one. The previous sequence is replaced wholesale, never mutated in place.
func (s *Store) Refresh(ctx context.Context, aircraftID string) (Track, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.cache.Remove(aircraftID)
	return s.fetchLocked(ctx, aircraftID)
}

func (s *Store) fetchLocked(ctx context.Context, aircraftID string) (Track, error) {
	samples, err := s.source.FetchTrack(ctx, aircraftID, s.windowHours, s.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch track for %s: %w", aircraftID, err)
	}

	t := Normalize(samples)
	s.cache.Add(aircraftID, t)
	log.Printf("Fetched track for %s: %d samples", aircraftID, len(t))
	return t, nil
}

// Get returns the cached track for an aircraft, if present
func (s *Store) Get(aircraftID string) (Track, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.cache.Get(aircraftID)
}

// SetFetchWindow overrides the window and limit used for subsequent fetches
func (s *Store) SetFetchWindow(windowHours, limit int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if windowHours > 0 {
		s.windowHours = windowHours
	}
	if limit > 0 {
		s.limit = limit
	}
}
