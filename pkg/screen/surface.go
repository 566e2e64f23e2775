package screen

import (
	"sync"

	"carnav/pkg/geo"
)

// Map zoom limits. A scale that would reach either bound is ignored.
const (
	MinScale      = 0.5
	MaxScale      = 5.0
	ZoomInFactor  = 1.1
	ZoomOutFactor = 0.9
)

// SurfaceState is what the map surface currently shows.
type SurfaceState struct {
	Scale    float64 `json:"scale"`
	OffsetX  float64 `json:"offset_x"`
	OffsetY  float64 `json:"offset_y"`
	PanMode  bool    `json:"pan_mode"`
	Location string  `json:"location"`
}

// Surface holds the map viewport and the vehicle location overlay.
type Surface struct {
	mu       sync.Mutex
	scale    float64
	offsetX  float64
	offsetY  float64
	panMode  bool
	location *geo.Location
}

// NewSurface returns a surface at scale 1 with no known location.
func NewSurface() *Surface {
	return &Surface{scale: 1}
}

// HandleScale multiplies the zoom by factor if the result stays inside the limits.
func (s *Surface) HandleScale(factor float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.scale * factor
	if next <= MinScale || next >= MaxScale {
		return false
	}
	s.scale = next
	return true
}

// HandleScroll moves the map by the given offset.
func (s *Surface) HandleScroll(dx, dy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offsetX += dx
	s.offsetY += dy
}

// HandleRecenter resets the viewport.
func (s *Surface) HandleRecenter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scale = 1
	s.offsetX, s.offsetY = 0, 0
}

func (s *Surface) SetPanMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panMode = on
}

func (s *Surface) PanMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panMode
}

// UpdateLocation replaces the drawn location. nil means unknown.
func (s *Surface) UpdateLocation(l *geo.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l == nil {
		s.location = nil
		return
	}
	cp := *l
	s.location = &cp
}

// Location returns the last known location, or nil.
func (s *Surface) Location() *geo.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.location == nil {
		return nil
	}
	cp := *s.location
	return &cp
}

// State returns a copy of the viewport.
func (s *Surface) State() SurfaceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SurfaceState{
		Scale:    s.scale,
		OffsetX:  s.offsetX,
		OffsetY:  s.offsetY,
		PanMode:  s.panMode,
		Location: geo.LocationString(s.location),
	}
}
