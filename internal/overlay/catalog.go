package overlay

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LayerID names a weather tile layer ("precipitation", "wind", ...).
type LayerID string

// Layer describes one togglable weather tile layer.
type Layer struct {
	ID          LayerID `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	Tile        string  `yaml:"tile" json:"tile"`
	Description string  `yaml:"description" json:"description"`
	Color       string  `yaml:"color" json:"color"`
	// Opacity is 0-1.
	Opacity float64 `yaml:"opacity" json:"opacity"`
	Enabled bool    `yaml:"enabled" json:"enabled"`
}

// DefaultCatalog returns the OpenWeatherMap tile layers. Only precipitation
// starts enabled.
func DefaultCatalog() []Layer {
	return []Layer{
		{ID: "temperature", Name: "Temperature", Tile: "temp_new", Description: "Temperature (blue=cold, red=hot)", Color: "#ff6b6b", Opacity: 0.6},
		{ID: "precipitation", Name: "Precipitation", Tile: "precipitation_new", Description: "Rain/Snow Intensity", Color: "#4ecdc4", Opacity: 0.7, Enabled: true},
		{ID: "wind", Name: "Wind Speed", Tile: "wind_new", Description: "Wind Speed", Color: "#45b7d1", Opacity: 0.5},
		{ID: "pressure", Name: "Pressure", Tile: "pressure_new", Description: "Atmospheric Pressure", Color: "#f9ca24", Opacity: 0.6},
		{ID: "clouds", Name: "Cloud Cover", Tile: "clouds_new", Description: "Cloud Coverage", Color: "#dddddd", Opacity: 0.4},
		{ID: "lightning", Name: "Lightning", Tile: "lightning_new", Description: "Lightning Strikes", Color: "#feca57", Opacity: 0.8},
		{ID: "snow", Name: "Snow Cover", Tile: "snow_new", Description: "Snow Cover", Color: "#ffffff", Opacity: 0.7},
	}
}

// LoadCatalog reads a layer catalogue from a YAML file of the form
//
//	layers:
//	  - id: precipitation
//	    tile: precipitation_new
//	    ...
func LoadCatalog(path string) ([]Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layer catalog: %w", err)
	}

	var doc struct {
		Layers []Layer `yaml:"layers"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse layer catalog: %w", err)
	}
	if err := validateCatalog(doc.Layers); err != nil {
		return nil, err
	}
	return doc.Layers, nil
}

func validateCatalog(layers []Layer) error {
	if len(layers) == 0 {
		return fmt.Errorf("layer catalog is empty")
	}
	seen := make(map[LayerID]bool, len(layers))
	for i, l := range layers {
		if l.ID == "" || l.Tile == "" {
			return fmt.Errorf("layer %d: id and tile are required", i)
		}
		if seen[l.ID] {
			return fmt.Errorf("layer %q declared twice", l.ID)
		}
		seen[l.ID] = true
		if l.Opacity < 0 || l.Opacity > 1 {
			return fmt.Errorf("layer %q: opacity must be within 0-1", l.ID)
		}
	}
	return nil
}
