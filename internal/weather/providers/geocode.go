package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

var errGeocoderNotConfigured = errors.New("geocoder api key is not configured")

// GoogleGeocoder resolves free-text addresses through the Google Geocoding API.
type GoogleGeocoder struct {
	apiKey string
	// geocoder keeps its key in a package variable.
	mu sync.Mutex
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{apiKey: apiKey}
}

// Resolve returns coordinates for query. The name of the first reverse
// geocoding match is used as display name when available.
func (g *GoogleGeocoder) Resolve(ctx context.Context, query string) (c weather.Coordinates, err error) {
	if g.apiKey == "" {
		return weather.Coordinates{}, errGeocoderNotConfigured
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return weather.Coordinates{}, weather.ErrEmptyQuery
	}
	if err := ctx.Err(); err != nil {
		return weather.Coordinates{}, err
	}

	started := time.Now()
	defer func() { observe("google", "geocode", started, err) }()

	g.mu.Lock()
	defer g.mu.Unlock()
	geocoder.ApiKey = g.apiKey

	loc, err := geocoder.Geocoding(geocoder.Address{City: query})
	if err != nil {
		return weather.Coordinates{}, fmt.Errorf("geocode %q: %w: %v", query, weather.ErrLocationNotFound, err)
	}

	name := query
	if addrs, rerr := geocoder.GeocodingReverse(loc); rerr == nil && len(addrs) > 0 {
		if formatted := addrs[0].FormatAddress(); formatted != "" {
			name = formatted
		}
	}

	return weather.Coordinates{
		Name: name,
		Lat:  loc.Latitude,
		Lon:  loc.Longitude,
	}, nil
}
