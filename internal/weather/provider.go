package weather

import (
	"context"
	"errors"
)

var (
	// ErrLocationNotFound is returned when the upstream does not recognize the query.
	ErrLocationNotFound = errors.New("location not found")
	// ErrEmptyQuery is returned when no location was given.
	ErrEmptyQuery = errors.New("location query is empty")
	// ErrUnsupportedQuery is returned by providers that cannot serve a query shape
	// (e.g. free text on a coordinates-only API).
	ErrUnsupportedQuery = errors.New("query not supported by provider")
	// ErrNoData is returned when no provider produced a result.
	ErrNoData = errors.New("no weather data available")
)

// Provider abstracts a weather data source (e.g. OpenWeatherMap, Open-Meteo).
type Provider interface {
	Name() string
	FetchForecast(ctx context.Context, q Query) (Forecast, error)
	FetchCurrent(ctx context.Context, lat, lon float64) (*CurrentConditions, error)
}

// Geocoder resolves free-text queries to coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, query string) (Coordinates, error)
}

// ForecastStore keeps the latest good forecast per query key.
type ForecastStore interface {
	SaveForecast(key string, f Forecast)
	GetForecast(key string) (Forecast, error)
}

// SettingsStore persists the last successfully searched location name.
type SettingsStore interface {
	LastCity() (string, error)
	SetLastCity(city string) error
}
