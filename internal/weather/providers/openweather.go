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

// DefaultOpenWeatherBaseURL is the OpenWeatherMap 2.5 REST root.
const DefaultOpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

// OpenWeatherProvider implements the weather.Provider interface for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey, baseURL string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherBaseURL
	}
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		circuit: newCircuitBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// SetBackoff overrides the retry policy.
func (p *OpenWeatherProvider) SetBackoff(b BackoffConfig) {
	p.httpCfg.Backoff = b
}

type owmForecastPayload struct {
	List []owmForecastEntry `json:"list"`
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
		Coord   struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"coord"`
		Timezone int `json:"timezone"`
	} `json:"city"`
}

type owmForecastEntry struct {
	Dt    int64  `json:"dt"`
	DtTxt string `json:"dt_txt"`
	Main  struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
		Pressure  float64 `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Pop  *float64 `json:"pop"`
	Rain *struct {
		ThreeH *float64 `json:"3h"`
	} `json:"rain"`
}

// FetchForecast calls the 5 day / 3 hour forecast endpoint.
func (p *OpenWeatherProvider) FetchForecast(ctx context.Context, q weather.Query) (f weather.Forecast, err error) {
	if p.apiKey == "" {
		return weather.Forecast{}, fmt.Errorf("openweather: %w", errNoAPIKey)
	}
	if q.IsZero() {
		return weather.Forecast{}, weather.ErrEmptyQuery
	}

	started := time.Now()
	defer func() { observe(p.name, "forecast", started, err) }()

	buildRequest := func() (*http.Request, error) {
		values := p.baseValues()
		if q.HasCoordinates() {
			values.Set("lat", strconv.FormatFloat(*q.Lat, 'f', -1, 64))
			values.Set("lon", strconv.FormatFloat(*q.Lon, 'f', -1, 64))
		} else {
			values.Set("q", q.Text)
		}
		return http.NewRequest(http.MethodGet, p.baseURL+"/forecast?"+values.Encode(), nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Forecast{}, err
	}
	defer resp.Body.Close()

	var payload owmForecastPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Forecast{}, fmt.Errorf("decode openweather forecast: %w", err)
	}

	loc := weather.Location{
		Name:           payload.City.Name,
		Country:        payload.City.Country,
		Lat:            payload.City.Coord.Lat,
		Lon:            payload.City.Coord.Lon,
		TimezoneOffset: payload.City.Timezone,
	}
	zone := loc.Zone()

	samples := make([]weather.Sample, 0, len(payload.List))
	for _, e := range payload.List {
		samples = append(samples, e.toSample(zone))
	}

	return weather.Forecast{
		Provider:  p.name,
		Location:  loc,
		Samples:   samples,
		FetchedAt: time.Now().UTC(),
	}, nil
}

func (e owmForecastEntry) toSample(zone *time.Location) weather.Sample {
	ts := time.Unix(e.Dt, 0)
	if e.Dt == 0 && e.DtTxt != "" {
		if parsed, err := time.Parse("2006-01-02 15:04:05", e.DtTxt); err == nil {
			ts = parsed
		}
	}

	s := weather.Sample{
		Timestamp:   ts.In(zone),
		TimeText:    e.DtTxt,
		Temperature: e.Main.Temp,
		FeelsLike:   e.Main.FeelsLike,
		Humidity:    e.Main.Humidity,
		Pressure:    e.Main.Pressure,
		PrecipProb:  valueOr(e.Pop, 0),
		WindSpeed:   e.Wind.Speed,
	}
	if e.Rain != nil && e.Rain.ThreeH != nil {
		v := *e.Rain.ThreeH
		s.Rain3h = &v
	}
	if len(e.Weather) > 0 {
		s.Condition = e.Weather[0].Main
	}
	return s
}

// FetchCurrent calls the current weather endpoint for lat/lon.
func (p *OpenWeatherProvider) FetchCurrent(ctx context.Context, lat, lon float64) (c *weather.CurrentConditions, err error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("openweather: %w", errNoAPIKey)
	}

	started := time.Now()
	defer func() { observe(p.name, "current", started, err) }()

	buildRequest := func() (*http.Request, error) {
		values := p.baseValues()
		values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
		return http.NewRequest(http.MethodGet, p.baseURL+"/weather?"+values.Encode(), nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
			Pressure float64 `json:"pressure"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
			Deg   float64 `json:"deg"`
		} `json:"wind"`
		Visibility *float64 `json:"visibility"`
		Rain       struct {
			OneH float64 `json:"1h"`
		} `json:"rain"`
		Snow struct {
			OneH float64 `json:"1h"`
		} `json:"snow"`
		Weather []struct {
			Main string `json:"main"`
		} `json:"weather"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode openweather current: %w", err)
	}

	ts := time.Now().UTC()
	if payload.Dt > 0 {
		ts = time.Unix(payload.Dt, 0).UTC()
	}

	cond := weather.ConditionUnknown
	if len(payload.Weather) > 0 && payload.Weather[0].Main != "" {
		cond = payload.Weather[0].Main
	}

	precip := payload.Rain.OneH
	if precip == 0 {
		precip = payload.Snow.OneH
	}

	return &weather.CurrentConditions{
		Provider:      p.name,
		Timestamp:     ts,
		Temperature:   payload.Main.Temp,
		Humidity:      payload.Main.Humidity,
		WindSpeed:     payload.Wind.Speed,
		WindDirection: payload.Wind.Deg,
		Pressure:      payload.Main.Pressure,
		VisibilityKm:  valueOr(payload.Visibility, 10000) / 1000,
		Condition:     cond,
		PrecipMmH:     precip,
	}, nil
}

func (p *OpenWeatherProvider) baseValues() url.Values {
	values := url.Values{}
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")
	return values
}
