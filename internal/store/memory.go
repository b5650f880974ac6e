package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

var (
	// ErrNotFound is returned when no forecast is stored for a query key.
	ErrNotFound = errors.New("no forecast stored for query")
)

// MemoryStore is a concurrency-safe in-memory store of the latest good
// forecast per query key. Older forecasts are replaced, never accumulated.
type MemoryStore struct {
	mu sync.RWMutex

	data map[string]weather.Forecast

	// maxAge bounds how long a forecast may be served; 0 = unlimited.
	maxAge time.Duration
	now    func() time.Time
}

// NewMemoryStore creates a new MemoryStore. If maxAge is <= 0 forecasts never expire.
func NewMemoryStore(maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:   make(map[string]weather.Forecast),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// SaveForecast replaces the forecast stored under key.
func (s *MemoryStore) SaveForecast(key string, f weather.Forecast) {
	samples := make([]weather.Sample, len(f.Samples))
	copy(samples, f.Samples)
	f.Samples = samples

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = f
	s.evictLocked()
}

// GetForecast returns the forecast stored under key.
func (s *MemoryStore) GetForecast(key string) (weather.Forecast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.data[key]
	if !ok || s.expired(f) {
		return weather.Forecast{}, ErrNotFound
	}
	return f, nil
}

// Len returns the number of stored forecasts, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) expired(f weather.Forecast) bool {
	if s.maxAge <= 0 {
		return false
	}
	return f.FetchedAt.Before(s.now().Add(-s.maxAge))
}

func (s *MemoryStore) evictLocked() {
	if s.maxAge <= 0 {
		return
	}
	for k, f := range s.data {
		if s.expired(f) {
			delete(s.data, k)
		}
	}
}
