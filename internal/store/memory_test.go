package store

import (
	"errors"
	"testing"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

func TestMemoryStoreKeepsLatestOnly(t *testing.T) {
	s := NewMemoryStore(0)

	if _, err := s.GetForecast("helsinki"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	s.SaveForecast("helsinki", weather.Forecast{Provider: "a", FetchedAt: time.Now()})
	s.SaveForecast("helsinki", weather.Forecast{Provider: "b", FetchedAt: time.Now()})

	got, err := s.GetForecast("helsinki")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Provider != "b" {
		t.Fatalf("expected latest forecast, got %q", got.Provider)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", s.Len())
	}
}

func TestMemoryStoreCopiesSamples(t *testing.T) {
	s := NewMemoryStore(0)
	samples := []weather.Sample{{Temperature: 1}}
	s.SaveForecast("k", weather.Forecast{Samples: samples})

	samples[0].Temperature = 99
	got, _ := s.GetForecast("k")
	if got.Samples[0].Temperature != 1 {
		t.Fatalf("stored forecast shares caller's slice")
	}
}

func TestMemoryStoreMaxAge(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Hour)
	s.now = func() time.Time { return now }

	s.SaveForecast("old", weather.Forecast{FetchedAt: now.Add(-2 * time.Hour)})
	s.SaveForecast("new", weather.Forecast{FetchedAt: now.Add(-time.Minute)})

	if _, err := s.GetForecast("old"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired forecast to be gone, got %v", err)
	}
	if _, err := s.GetForecast("new"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected eviction on save, got %d entries", s.Len())
	}
}
