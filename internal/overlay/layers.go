// Package overlay tracks which weather tile layers are shown on the map.
//
// Every enabled layer owns exactly one Overlay handle. Disabling the layer,
// re-enabling it, or closing the LayerSet releases the handle it owned;
// a released handle no longer produces tile URLs.
package overlay

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/i474232898/weather-dashboard/internal/metrics"
)

// DefaultTileBaseURL is the OpenWeatherMap tile server.
const DefaultTileBaseURL = "https://tile.openweathermap.org/map"

const maxZoom = 20

var (
	ErrUnknownLayer  = errors.New("unknown layer")
	ErrLayerDisabled = errors.New("layer is not enabled")
	ErrInvalidTile   = errors.New("invalid tile coordinates")
)

// Overlay is the handle an enabled layer owns.
type Overlay struct {
	ID        uuid.UUID
	Layer     LayerID
	CreatedAt time.Time

	mu       sync.RWMutex
	template string
	opacity  float64
	released bool
}

// TileURL returns the upstream tile URL, or "" once the handle is released.
func (o *Overlay) TileURL(z, x, y int) string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.released {
		return ""
	}
	r := strings.NewReplacer("{z}", fmt.Sprint(z), "{x}", fmt.Sprint(x), "{y}", fmt.Sprint(y))
	return r.Replace(o.template)
}

// Opacity returns the current opacity (0-1).
func (o *Overlay) Opacity() float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.opacity
}

// Released reports whether the owning layer let go of this handle.
func (o *Overlay) Released() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.released
}

func (o *Overlay) setOpacity(v float64) {
	o.mu.Lock()
	o.opacity = v
	o.mu.Unlock()
}

func (o *Overlay) release() {
	o.mu.Lock()
	o.released = true
	o.mu.Unlock()
}

// LayerState is the externally visible state of one layer.
type LayerState struct {
	Layer
	OverlayID string `json:"overlayId,omitempty"`
}

// LayerSet maps layer ids to their optional owned overlay handle.
type LayerSet struct {
	mu       sync.Mutex
	tileBase string
	apiKey   string
	layers   []Layer
	index    map[LayerID]int
	overlays map[LayerID]*Overlay
}

// NewLayerSet creates overlays for every layer the catalogue marks enabled.
func NewLayerSet(catalog []Layer, tileBaseURL, apiKey string) *LayerSet {
	if tileBaseURL == "" {
		tileBaseURL = DefaultTileBaseURL
	}
	s := &LayerSet{
		tileBase: strings.TrimRight(tileBaseURL, "/"),
		apiKey:   apiKey,
		layers:   make([]Layer, len(catalog)),
		index:    make(map[LayerID]int, len(catalog)),
		overlays: make(map[LayerID]*Overlay, len(catalog)),
	}
	copy(s.layers, catalog)
	for i, l := range s.layers {
		s.index[l.ID] = i
		if l.Enabled {
			s.overlays[l.ID] = s.newOverlay(l)
		}
	}
	metrics.ActiveOverlays.Set(float64(len(s.overlays)))
	return s
}

// Layers returns the catalogue in declaration order with current state.
func (s *LayerSet) Layers() []LayerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]LayerState, 0, len(s.layers))
	for _, l := range s.layers {
		st := LayerState{Layer: l}
		if o := s.overlays[l.ID]; o != nil {
			st.OverlayID = o.ID.String()
		}
		out = append(out, st)
	}
	return out
}

// Enable creates a fresh overlay for id, releasing any handle it already owned.
func (s *LayerSet) Enable(id LayerID) (*Overlay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayer, id)
	}
	s.releaseLocked(id)
	s.layers[i].Enabled = true
	o := s.newOverlay(s.layers[i])
	s.overlays[id] = o
	metrics.ActiveOverlays.Set(float64(len(s.overlays)))
	return o, nil
}

// Disable releases the overlay owned by id. Disabling a disabled layer is a no-op.
func (s *LayerSet) Disable(id LayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLayer, id)
	}
	s.releaseLocked(id)
	s.layers[i].Enabled = false
	metrics.ActiveOverlays.Set(float64(len(s.overlays)))
	return nil
}

// Toggle flips id and reports whether it is now enabled.
func (s *LayerSet) Toggle(id LayerID) (bool, error) {
	s.mu.Lock()
	i, ok := s.index[id]
	enabled := ok && s.layers[i].Enabled
	s.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownLayer, id)
	}
	if enabled {
		return false, s.Disable(id)
	}
	_, err := s.Enable(id)
	return err == nil, err
}

// SetOpacity sets the layer opacity from a 0-100 percentage, clamped.
// A live overlay picks the new value up immediately.
func (s *LayerSet) SetOpacity(id LayerID, percent float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownLayer, id)
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	v := percent / 100
	s.layers[i].Opacity = v
	if o := s.overlays[id]; o != nil {
		o.setOpacity(v)
	}
	return nil
}

// Overlay returns the handle owned by id, or nil when the layer is disabled.
func (s *LayerSet) Overlay(id LayerID) *Overlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlays[id]
}

// TileURL returns the upstream tile URL for an enabled layer.
func (s *LayerSet) TileURL(id LayerID, z, x, y int) (string, error) {
	if z < 0 || z > maxZoom {
		return "", fmt.Errorf("%w: zoom %d", ErrInvalidTile, z)
	}
	n := 1 << uint(z)
	if x < 0 || x >= n || y < 0 || y >= n {
		return "", fmt.Errorf("%w: %d/%d/%d", ErrInvalidTile, z, x, y)
	}

	s.mu.Lock()
	_, known := s.index[id]
	o := s.overlays[id]
	s.mu.Unlock()

	if !known {
		return "", fmt.Errorf("%w: %q", ErrUnknownLayer, id)
	}
	if o == nil {
		return "", fmt.Errorf("%w: %q", ErrLayerDisabled, id)
	}
	return o.TileURL(z, x, y), nil
}

// Close releases every overlay. Layer enabled flags are kept.
func (s *LayerSet) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.overlays {
		s.releaseLocked(id)
	}
	metrics.ActiveOverlays.Set(0)
}

func (s *LayerSet) releaseLocked(id LayerID) {
	o, ok := s.overlays[id]
	if !ok {
		return
	}
	delete(s.overlays, id)
	if o != nil {
		o.release()
		log.WithFields(log.Fields{"layer": id, "overlay": o.ID}).Debug("overlay released")
	}
}

func (s *LayerSet) newOverlay(l Layer) *Overlay {
	q := url.Values{}
	q.Set("appid", s.apiKey)
	o := &Overlay{
		ID:        uuid.New(),
		Layer:     l.ID,
		CreatedAt: time.Now().UTC(),
		template:  fmt.Sprintf("%s/%s/{z}/{x}/{y}.png?%s", s.tileBase, l.Tile, q.Encode()),
		opacity:   l.Opacity,
	}
	log.WithFields(log.Fields{"layer": l.ID, "overlay": o.ID}).Debug("overlay created")
	return o
}
