package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const openMeteoJSON = `{
  "latitude": 60.17, "longitude": 24.94, "utc_offset_seconds": 10800, "timezone": "Europe/Helsinki",
  "hourly": {
    "time": [1717200000, 1717203600, 1717207200, 1717210800, 1717214400],
    "temperature_2m": [10, 11, 12, 13, 14],
    "apparent_temperature": [9, 10, 11, 12, 13],
    "relative_humidity_2m": [80, 81, 82, 83, 84],
    "surface_pressure": [1010, 1010, 1011, 1011, 1012],
    "precipitation_probability": [40, 50, 60, 70, 80],
    "rain": [0.2, 0.3, null, 1.0, 0.5],
    "wind_speed_10m": [3, 3, 3, 4, 4],
    "weather_code": [61, 61, 3, 0, 95]
  }
}`

func TestOpenMeteoFetchForecastResamples(t *testing.T) {
	var gotLat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLat = r.URL.Query().Get("latitude")
		_, _ = w.Write([]byte(openMeteoJSON))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL)
	p.SetBackoff(fastBackoff)

	f, err := p.FetchForecast(context.Background(), weather.ParseQuery("60.17,24.94"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLat != "60.17" {
		t.Fatalf("unexpected latitude %q", gotLat)
	}
	if len(f.Samples) != 2 {
		t.Fatalf("expected 2 samples after resampling, got %d", len(f.Samples))
	}

	first, second := f.Samples[0], f.Samples[1]
	if first.Rain3h == nil || *first.Rain3h != 0.5 {
		t.Fatalf("expected summed rain 0.5, got %v", first.Rain3h)
	}
	if first.PrecipProb != 0.4 || first.Condition != "Rain" {
		t.Fatalf("unexpected first sample: %+v", first)
	}
	if second.Temperature != 13 || second.Condition != "Clear" || *second.Rain3h != 1.5 {
		t.Fatalf("unexpected second sample: %+v", second)
	}
	if _, offset := second.Timestamp.Zone(); offset != 10800 || second.Timestamp.Hour() != 6 {
		t.Fatalf("unexpected timestamp %s", second.Timestamp)
	}
}

func TestOpenMeteoRejectsTextQueries(t *testing.T) {
	p := NewOpenMeteoProvider(http.DefaultClient, "http://127.0.0.1:0")
	_, err := p.FetchForecast(context.Background(), weather.ParseQuery("Helsinki"))
	if !errors.Is(err, weather.ErrUnsupportedQuery) {
		t.Fatalf("expected ErrUnsupportedQuery, got %v", err)
	}
}

func TestOpenMeteoFetchCurrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"current": {"time": 1717200000, "temperature_2m": 17.2,
		  "relative_humidity_2m": 60, "wind_speed_10m": 2.5, "wind_direction_10m": 90,
		  "precipitation": 0.1, "weather_code": 71}}`))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), srv.URL)
	c, err := p.FetchCurrent(context.Background(), 60.17, 24.94)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.VisibilityKm != 10 || c.Condition != "Snow" || c.Temperature != 17.2 || c.Pressure != 0 {
		t.Fatalf("unexpected snapshot: %+v", c)
	}
}

func TestMapOpenMeteoCondition(t *testing.T) {
	cases := map[int]string{
		0:  "Clear",
		2:  "Clouds",
		45: "Fog",
		53: "Drizzle",
		81: "Rain",
		86: "Snow",
		96: "Thunderstorm",
		20: weather.ConditionOther,
	}
	for code, want := range cases {
		if got := mapOpenMeteoCondition(code); got != want {
			t.Errorf("code %d: expected %s, got %s", code, want, got)
		}
	}
}

func TestGoogleGeocoderRequiresKey(t *testing.T) {
	g := NewGoogleGeocoder("")
	if _, err := g.Resolve(context.Background(), "Helsinki"); !errors.Is(err, errGeocoderNotConfigured) {
		t.Fatalf("expected errGeocoderNotConfigured, got %v", err)
	}

	g = NewGoogleGeocoder("key")
	if _, err := g.Resolve(context.Background(), "   "); !errors.Is(err, weather.ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}
