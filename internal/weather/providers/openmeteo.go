package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// DefaultOpenMeteoBaseURL is the Open-Meteo forecast endpoint.
const DefaultOpenMeteoBaseURL = "https://api.open-meteo.com/v1/forecast"

// openMeteoStep matches the 3-hour spacing of the OpenWeatherMap forecast.
const openMeteoStep = 3

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// It needs no API key but only answers coordinate queries.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoBaseURL
	}
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		circuit: newCircuitBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// SetBackoff overrides the retry policy.
func (p *OpenMeteoProvider) SetBackoff(b BackoffConfig) {
	p.httpCfg.Backoff = b
}

type openMeteoHourly struct {
	Time        []int64    `json:"time"`
	Temperature []*float64 `json:"temperature_2m"`
	Apparent    []*float64 `json:"apparent_temperature"`
	Humidity    []*float64 `json:"relative_humidity_2m"`
	Pressure    []*float64 `json:"surface_pressure"`
	PrecipProb  []*float64 `json:"precipitation_probability"`
	Rain        []*float64 `json:"rain"`
	WindSpeed   []*float64 `json:"wind_speed_10m"`
	WeatherCode []*float64 `json:"weather_code"`
}

// FetchForecast returns hourly data resampled to 3-hour steps.
func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, q weather.Query) (f weather.Forecast, err error) {
	if !q.HasCoordinates() {
		return weather.Forecast{}, weather.ErrUnsupportedQuery
	}

	started := time.Now()
	defer func() { observe(p.name, "forecast", started, err) }()

	buildRequest := func() (*http.Request, error) {
		values := p.baseValues(*q.Lat, *q.Lon)
		values.Set("hourly", "temperature_2m,apparent_temperature,relative_humidity_2m,surface_pressure,precipitation_probability,rain,wind_speed_10m,weather_code")
		values.Set("forecast_days", "5")
		return http.NewRequest(http.MethodGet, p.baseURL+"?"+values.Encode(), nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Forecast{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Latitude         float64         `json:"latitude"`
		Longitude        float64         `json:"longitude"`
		UTCOffsetSeconds int             `json:"utc_offset_seconds"`
		Timezone         string          `json:"timezone"`
		Hourly           openMeteoHourly `json:"hourly"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Forecast{}, fmt.Errorf("decode openmeteo forecast: %w", err)
	}

	loc := weather.Location{
		Name:           q.String(),
		Lat:            payload.Latitude,
		Lon:            payload.Longitude,
		TimezoneOffset: payload.UTCOffsetSeconds,
	}
	zone := loc.Zone()
	h := payload.Hourly

	samples := make([]weather.Sample, 0, len(h.Time)/openMeteoStep+1)
	for i := 0; i < len(h.Time); i += openMeteoStep {
		ts := time.Unix(h.Time[i], 0).In(zone)
		rain := 0.0
		for j := i; j < i+openMeteoStep && j < len(h.Time); j++ {
			rain += at(h.Rain, j)
		}
		samples = append(samples, weather.Sample{
			Timestamp:   ts,
			TimeText:    ts.UTC().Format("2006-01-02 15:04:05"),
			Temperature: at(h.Temperature, i),
			FeelsLike:   at(h.Apparent, i),
			Humidity:    at(h.Humidity, i),
			Pressure:    at(h.Pressure, i),
			PrecipProb:  at(h.PrecipProb, i) / 100,
			Rain3h:      &rain,
			WindSpeed:   at(h.WindSpeed, i),
			Condition:   mapOpenMeteoCondition(int(at(h.WeatherCode, i))),
		})
	}

	return weather.Forecast{
		Provider:  p.name,
		Location:  loc,
		Samples:   samples,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// FetchCurrent returns present conditions. Open-Meteo reports no visibility,
// so the 10 km default applies.
func (p *OpenMeteoProvider) FetchCurrent(ctx context.Context, lat, lon float64) (c *weather.CurrentConditions, err error) {
	started := time.Now()
	defer func() { observe(p.name, "current", started, err) }()

	buildRequest := func() (*http.Request, error) {
		values := p.baseValues(lat, lon)
		values.Set("current", "temperature_2m,relative_humidity_2m,surface_pressure,wind_speed_10m,wind_direction_10m,precipitation,weather_code")
		return http.NewRequest(http.MethodGet, p.baseURL+"?"+values.Encode(), nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Current struct {
			Time          int64    `json:"time"`
			Temperature   *float64 `json:"temperature_2m"`
			Humidity      *float64 `json:"relative_humidity_2m"`
			Pressure      *float64 `json:"surface_pressure"`
			WindSpeed     *float64 `json:"wind_speed_10m"`
			WindDirection *float64 `json:"wind_direction_10m"`
			Precipitation *float64 `json:"precipitation"`
			WeatherCode   *float64 `json:"weather_code"`
		} `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode openmeteo current: %w", err)
	}

	cur := payload.Current
	ts := time.Now().UTC()
	if cur.Time > 0 {
		ts = time.Unix(cur.Time, 0).UTC()
	}
	cond := weather.ConditionUnknown
	if cur.WeatherCode != nil {
		cond = mapOpenMeteoCondition(int(*cur.WeatherCode))
	}

	return &weather.CurrentConditions{
		Provider:      p.name,
		Timestamp:     ts,
		Temperature:   valueOr(cur.Temperature, 0),
		Humidity:      valueOr(cur.Humidity, 0),
		WindSpeed:     valueOr(cur.WindSpeed, 0),
		WindDirection: valueOr(cur.WindDirection, 0),
		Pressure:      valueOr(cur.Pressure, 0),
		VisibilityKm:  10,
		Condition:     cond,
		PrecipMmH:     valueOr(cur.Precipitation, 0),
	}, nil
}

func (p *OpenMeteoProvider) baseValues(lat, lon float64) url.Values {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	values.Set("timezone", "auto")
	values.Set("timeformat", "unixtime")
	values.Set("wind_speed_unit", "ms")
	return values
}

func at(values []*float64, i int) float64 {
	if i < 0 || i >= len(values) {
		return 0
	}
	return valueOr(values[i], 0)
}

// mapOpenMeteoCondition maps WMO weather codes onto OpenWeatherMap "main" labels
// so both providers feed the same condition histogram.
func mapOpenMeteoCondition(code int) string {
	switch {
	case code == 0:
		return "Clear"
	case code >= 1 && code <= 3:
		return "Clouds"
	case code == 45 || code == 48:
		return "Fog"
	case code >= 51 && code <= 57:
		return "Drizzle"
	case (code >= 61 && code <= 67) || (code >= 80 && code <= 82):
		return "Rain"
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return "Snow"
	case code >= 95:
		return "Thunderstorm"
	default:
		return weather.ConditionOther
	}
}
