package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/i474232898/weather-dashboard/internal/metrics"
)

// DefaultCity is shown when no city has been searched yet.
const DefaultCity = "Helsinki"

// Service orchestrates providers, the forecast store and the settings store.
type Service struct {
	store       ForecastStore
	settings    SettingsStore
	providers   []Provider
	geocoder    Geocoder
	defaultCity string
}

// NewService creates a new Service. Providers are tried in order; geocoder may be nil.
func NewService(store ForecastStore, settings SettingsStore, providers []Provider, geocoder Geocoder) *Service {
	return &Service{
		store:       store,
		settings:    settings,
		providers:   providers,
		geocoder:    geocoder,
		defaultCity: DefaultCity,
	}
}

// SetDefaultCity overrides the city used before anything has been searched.
func (s *Service) SetDefaultCity(city string) {
	if city != "" {
		s.defaultCity = city
	}
}

// Forecast fetches the forecast for raw and aggregates it by g.
// When the fetch fails but an earlier forecast for the same query is stored,
// that forecast is returned with Stale set. Unknown locations are never
// answered from the store.
func (s *Service) Forecast(ctx context.Context, raw string, g Granularity) (ForecastView, error) {
	if !g.Valid() {
		return ForecastView{}, fmt.Errorf("%w: %q", ErrUnknownGranularity, g)
	}
	q := ParseQuery(raw)
	if q.IsZero() {
		return ForecastView{}, ErrEmptyQuery
	}

	f, err := s.load(ctx, q)
	stale := false
	if err != nil {
		if errors.Is(err, ErrLocationNotFound) {
			return ForecastView{}, err
		}
		prev, perr := s.store.GetForecast(q.Key())
		if perr != nil {
			return ForecastView{}, err
		}
		log.WithError(err).WithField("query", q.String()).Warn("forecast fetch failed; serving last good forecast")
		metrics.StaleForecastsTotal.Inc()
		f = prev
		stale = true
	}

	metrics.ForecastViewsTotal.WithLabelValues(string(g)).Inc()
	view := BuildView(f, g)
	view.Stale = stale
	return view, nil
}

// Refresh re-fetches the forecast for the last searched city.
// A failed refresh leaves the stored forecast untouched.
func (s *Service) Refresh(ctx context.Context) error {
	city := s.LastCity()
	if _, err := s.load(ctx, ParseQuery(city)); err != nil {
		return fmt.Errorf("refresh %q: %w", city, err)
	}
	return nil
}

// load tries each provider in order and stores the first success.
func (s *Service) load(ctx context.Context, q Query) (Forecast, error) {
	if len(s.providers) == 0 {
		log.Error("no weather providers configured")
		return Forecast{}, fmt.Errorf("no weather providers configured")
	}

	var firstErr error
	for _, p := range s.providers {
		f, err := p.FetchForecast(ctx, q)
		if err != nil {
			if !errors.Is(err, ErrUnsupportedQuery) {
				log.WithError(err).WithFields(log.Fields{
					"provider": p.Name(),
					"query":    q.String(),
				}).Warn("provider forecast failed")
			}
			// A not-found answer is more useful to the caller than "unsupported".
			if firstErr == nil || errors.Is(err, ErrLocationNotFound) || errors.Is(firstErr, ErrUnsupportedQuery) {
				firstErr = err
			}
			continue
		}
		if f.FetchedAt.IsZero() {
			f.FetchedAt = time.Now().UTC()
		}
		s.store.SaveForecast(q.Key(), f)
		s.remember(q, f.Location.Name)
		return f, nil
	}
	if firstErr == nil {
		firstErr = ErrNoData
	}
	return Forecast{}, firstErr
}

// Current returns present conditions at lat/lon. Any failure yields false.
func (s *Service) Current(ctx context.Context, lat, lon float64) (*CurrentConditions, bool) {
	for _, p := range s.providers {
		c, err := p.FetchCurrent(ctx, lat, lon)
		if err != nil {
			log.WithError(err).WithField("provider", p.Name()).Warn("current conditions fetch failed")
			continue
		}
		if c != nil {
			return c, true
		}
	}
	return nil, false
}

// CurrentByQuery resolves raw (coordinates or free text) and returns present
// conditions there. Free text needs a geocoder; the resolved name is
// remembered as the last searched city.
func (s *Service) CurrentByQuery(ctx context.Context, raw string) (*CurrentConditions, bool) {
	q := ParseQuery(raw)
	if q.IsZero() {
		return nil, false
	}
	if q.HasCoordinates() {
		return s.Current(ctx, *q.Lat, *q.Lon)
	}
	if s.geocoder == nil {
		log.WithField("query", q.Text).Warn("no geocoder configured for free-text lookup")
		return nil, false
	}

	coords, err := s.geocoder.Resolve(ctx, q.Text)
	if err != nil {
		log.WithError(err).WithField("query", q.Text).Warn("geocoding failed")
		return nil, false
	}
	c, ok := s.Current(ctx, coords.Lat, coords.Lon)
	if ok {
		name := coords.Name
		if name == "" {
			name = q.Text
		}
		s.remember(Query{Text: name}, "")
	}
	return c, ok
}

// LastCity returns the last successfully searched city, or the default city.
func (s *Service) LastCity() string {
	if s.settings == nil {
		return s.defaultCity
	}
	city, err := s.settings.LastCity()
	if err != nil {
		log.WithError(err).Warn("could not read last city")
		return s.defaultCity
	}
	if city == "" {
		return s.defaultCity
	}
	return city
}

// SetLastCity records city as the last searched location.
func (s *Service) SetLastCity(city string) error {
	if city == "" {
		return ErrEmptyQuery
	}
	if s.settings == nil {
		return nil
	}
	return s.settings.SetLastCity(city)
}

func (s *Service) remember(q Query, resolvedName string) {
	name := q.Text
	if name == "" {
		name = resolvedName
	}
	if name == "" || s.settings == nil {
		return
	}
	if err := s.settings.SetLastCity(name); err != nil {
		log.WithError(err).WithField("city", name).Warn("could not persist last city")
	}
}
