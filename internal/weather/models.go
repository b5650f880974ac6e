package weather

import (
	"fmt"
	"strings"
	"time"

	"github.com/i474232898/weather-dashboard/internal/common"
)

// Condition labels as reported by the upstream "main" weather field
// (e.g. "Rain", "Clear", "Clouds").
const (
	ConditionOther   = "Other"
	ConditionUnknown = "Unknown"
)

// Query identifies what the user searched for: free text (city, address)
// or a latitude/longitude pair.
type Query struct {
	Text string   `json:"text,omitempty"`
	Lat  *float64 `json:"lat,omitempty"`
	Lon  *float64 `json:"lon,omitempty"`
}

// ParseQuery interprets raw user input. "60.17,24.94" becomes a coordinate
// query, anything else is kept as free text.
func ParseQuery(raw string) Query {
	raw = strings.TrimSpace(raw)
	if lat, lon, ok := common.ParseLatLon(raw); ok {
		return Query{Lat: &lat, Lon: &lon}
	}
	return Query{Text: raw}
}

// HasCoordinates reports whether the query carries a lat/lon pair.
func (q Query) HasCoordinates() bool {
	return q.Lat != nil && q.Lon != nil
}

// IsZero reports whether the query is empty.
func (q Query) IsZero() bool {
	return q.Text == "" && !q.HasCoordinates()
}

// Key returns a canonical string key for indexing this query in stores.
func (q Query) Key() string {
	if q.HasCoordinates() {
		return fmt.Sprintf("%.4f,%.4f", *q.Lat, *q.Lon)
	}
	return strings.ToLower(q.Text)
}

func (q Query) String() string {
	if q.HasCoordinates() {
		return fmt.Sprintf("%g,%g", *q.Lat, *q.Lon)
	}
	return q.Text
}

// Location is the place a forecast was resolved to.
type Location struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	// TimezoneOffset is seconds east of UTC.
	TimezoneOffset int `json:"timezoneOffset"`
}

// Zone returns the fixed zone for the location's timezone offset.
func (l Location) Zone() *time.Location {
	return time.FixedZone(l.Name, l.TimezoneOffset)
}

// Coordinates is the result of resolving a free-text query.
type Coordinates struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Sample is one forecast step, typically 3 hours apart.
// Missing upstream values are zero; Rain3h is nil when the provider omits it.
type Sample struct {
	Timestamp time.Time
	TimeText  string

	Temperature float64 // °C
	FeelsLike   float64 // °C
	Humidity    float64 // %
	Pressure    float64 // hPa
	PrecipProb  float64 // 0-1
	Rain3h      *float64
	WindSpeed   float64 // m/s
	Condition   string
}

// Forecast is a provider's answer for one query.
// Samples are ordered by Timestamp ascending.
type Forecast struct {
	Provider  string    `json:"provider"`
	Location  Location  `json:"location"`
	Samples   []Sample  `json:"-"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// CurrentConditions is a present-conditions snapshot.
type CurrentConditions struct {
	Provider      string    `json:"provider"`
	Timestamp     time.Time `json:"timestamp"`
	Temperature   float64   `json:"temperatureC"`
	Humidity      float64   `json:"humidityPercent"`
	WindSpeed     float64   `json:"windSpeed"`
	WindDirection float64   `json:"windDirection"`
	Pressure      float64   `json:"pressureHpa"`
	VisibilityKm  float64   `json:"visibilityKm"`
	Condition     string    `json:"condition"`
	PrecipMmH     float64   `json:"precipMmPerHour"`
}

// ForecastView is what the dashboard renders for one query and granularity.
type ForecastView struct {
	Location    Location          `json:"location"`
	Provider    string            `json:"provider"`
	Granularity Granularity       `json:"granularity"`
	Points      []AggregatedPoint `json:"points"`
	Stats       Stats             `json:"stats"`
	Conditions  []ConditionCount  `json:"conditions"`
	FetchedAt   time.Time         `json:"fetchedAt"`
	// Stale is set when the latest fetch failed and a previous forecast is served.
	Stale bool `json:"stale"`
}

// BuildView aggregates a forecast for display.
func BuildView(f Forecast, g Granularity) ForecastView {
	points := Aggregate(f.Samples, g)
	return ForecastView{
		Location:    f.Location,
		Provider:    f.Provider,
		Granularity: g,
		Points:      points,
		Stats:       ComputeStats(points),
		Conditions:  ConditionHistogram(f.Samples),
		FetchedAt:   f.FetchedAt,
	}
}
