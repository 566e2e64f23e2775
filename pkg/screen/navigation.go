// Package screen builds the view-models the car display renders.
package screen

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"carnav/pkg/model"
)

// ErrUnknownAction is returned by HandleAction for ids no strip offers.
var ErrUnknownAction = errors.New("unknown action")

// Action ids.
const (
	ActionStop      = "stop"
	ActionSearch    = "search"
	ActionFavorites = "favorites"
	ActionAddStop   = "add_stop"
	ActionSettings  = "settings"
	ActionVoice     = "voice"
	ActionPan       = "pan"
	ActionRecenter  = "recenter"
	ActionZoomIn    = "zoom_in"
	ActionZoomOut   = "zoom_out"
)

// ArrivedMessage is shown once the destination is reached.
const ArrivedMessage = "Arrived!"

// Action is one button of an action strip.
type Action struct {
	ID    string      `json:"id"`
	Title string      `json:"title,omitempty"`
	Icon  string      `json:"icon,omitempty"`
	Tint  model.Color `json:"tint,omitempty"`
}

// InfoKind selects how NavigationInfo is rendered.
type InfoKind string

const (
	InfoLoading InfoKind = "loading"
	InfoMessage InfoKind = "message"
	InfoRouting InfoKind = "routing"
)

// NavigationInfo is the turn card of the navigation template.
type NavigationInfo struct {
	Kind                  InfoKind        `json:"kind"`
	Message               string          `json:"message,omitempty"`
	CurrentStep           *model.Step     `json:"current_step,omitempty"`
	StepRemainingDistance *model.Distance `json:"step_remaining_distance,omitempty"`
	NextStep              *model.Step     `json:"next_step,omitempty"`
	JunctionImage         string          `json:"junction_image,omitempty"`
}

// NavigationTemplate is the rendered navigation screen.
type NavigationTemplate struct {
	ActionStrip               []Action              `json:"action_strip"`
	MapActionStrip            []Action              `json:"map_action_strip"`
	DestinationTravelEstimate *model.TravelEstimate `json:"destination_travel_estimate,omitempty"`
	NavigationInfo            *NavigationInfo       `json:"navigation_info,omitempty"`
	Surface                   SurfaceState          `json:"surface"`
	DisplayMode               int                   `json:"display_mode"`
}

// Listener receives the screen's requests to start and stop navigation.
type Listener interface {
	ExecuteScript(name string) error
	StopNavigation()
}

// Display modes of the next-step rotation.
const (
	DisplayAsScripted = iota
	DisplayNoNextStep
	DisplayNextStep
	DisplayNextStepLanes
	DisplayMinimal
	displayModes
)

// NavigationScreen renders the latest trip state.
type NavigationScreen struct {
	mu       sync.Mutex
	state    model.TripState
	surface  *Surface
	listener Listener
	script   func() string
	logger   *slog.Logger

	rotate  bool
	counter int
}

// Option configures a NavigationScreen.
type Option func(*NavigationScreen)

// WithRotation cycles the next-step display through five modes, one per render.
func WithRotation(on bool) Option {
	return func(s *NavigationScreen) { s.rotate = on }
}

// WithScript names the script that search and favorites start.
func WithScript(name func() string) Option {
	return func(s *NavigationScreen) { s.script = name }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *NavigationScreen) { s.logger = l }
}

// NewNavigationScreen creates a screen drawing onto surface. listener may be nil.
func NewNavigationScreen(surface *Surface, listener Listener, opts ...Option) *NavigationScreen {
	if surface == nil {
		surface = NewSurface()
	}
	s := &NavigationScreen{
		surface:  surface,
		listener: listener,
		script:   func() string { return "" },
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Surface returns the map surface of the screen.
func (s *NavigationScreen) Surface() *Surface {
	return s.surface
}

// SetRotation toggles the next-step display rotation.
func (s *NavigationScreen) SetRotation(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotate = on
	s.counter = 0
}

// Update replaces the displayed trip state.
func (s *NavigationScreen) Update(state model.TripState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
}

// State returns the displayed trip state.
func (s *NavigationScreen) State() model.TripState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Template renders the screen. With rotation enabled every call advances the display mode.
func (s *NavigationScreen) Template() NavigationTemplate {
	s.mu.Lock()
	st := s.state.Clone()
	mode := DisplayAsScripted
	if s.rotate {
		mode = s.counter
		s.counter = (s.counter + 1) % displayModes
	}
	s.mu.Unlock()

	surface := s.surface.State()
	t := NavigationTemplate{
		ActionStrip:    actionStrip(st.IsNavigating),
		MapActionStrip: mapActionStrip(surface.PanMode),
		Surface:        surface,
		DisplayMode:    mode,
	}
	if !st.IsNavigating {
		return t
	}

	if st.DestinationTravelEstimate != nil {
		est := *st.DestinationTravelEstimate
		t.DestinationTravelEstimate = &est
	}
	t.NavigationInfo = navigationInfo(&st, mode)
	return t
}

func actionStrip(navigating bool) []Action {
	var strip []Action
	if navigating {
		strip = append(strip, Action{ID: ActionAddStop, Icon: "ic_add_stop"})
	}
	strip = append(strip,
		Action{ID: ActionSettings, Title: "Settings", Icon: "ic_settings"},
		Action{ID: ActionVoice, Title: "Voice", Icon: "ic_mic"},
	)
	if navigating {
		return append(strip, Action{ID: ActionStop, Title: "Stop"})
	}
	return append(strip,
		Action{ID: ActionSearch, Title: "Search", Icon: "ic_search"},
		Action{ID: ActionFavorites, Title: "Favorites", Icon: "ic_favorite"},
	)
}

func mapActionStrip(panMode bool) []Action {
	pan := Action{ID: ActionPan, Icon: "ic_pan"}
	if panMode {
		pan.Tint = model.ColorBlue
	}
	return []Action{
		pan,
		{ID: ActionRecenter, Icon: "ic_recenter"},
		{ID: ActionZoomOut, Icon: "ic_zoom_out"},
		{ID: ActionZoomIn, Icon: "ic_zoom_in"},
	}
}

func navigationInfo(st *model.TripState, mode int) *NavigationInfo {
	// An empty destination list means the route is still being computed
	if st.IsRerouting || len(st.Destinations) == 0 {
		return &NavigationInfo{Kind: InfoLoading}
	}
	if st.HasArrived {
		return &NavigationInfo{Kind: InfoMessage, Message: ArrivedMessage}
	}

	cur, ok := st.CurrentStep()
	if !ok {
		return &NavigationInfo{Kind: InfoLoading}
	}

	showNext, showLanes, junction := st.ShowNextStep, st.ShowLanes, st.JunctionImage
	switch mode {
	case DisplayNoNextStep:
		showNext = false
	case DisplayNextStep:
		showNext, showLanes = true, false
	case DisplayNextStepLanes:
		showNext, showLanes = true, true
	case DisplayMinimal:
		showNext, showLanes, junction = false, false, ""
	}

	if !showLanes {
		cur.Lanes = nil
		cur.LanesImage = ""
	}
	info := &NavigationInfo{
		Kind:          InfoRouting,
		CurrentStep:   &cur,
		JunctionImage: junction,
	}
	if st.StepRemainingDistance != nil {
		d := *st.StepRemainingDistance
		info.StepRemainingDistance = &d
	}
	if showNext {
		if next, ok := st.NextStep(); ok {
			info.NextStep = &next
		}
	}
	return info
}

// HandleAction performs a button press.
func (s *NavigationScreen) HandleAction(id string) error {
	s.mu.Lock()
	navigating := s.state.IsNavigating
	s.mu.Unlock()

	switch id {
	case ActionStop:
		if s.listener != nil {
			s.listener.StopNavigation()
		}
	case ActionSearch, ActionFavorites, ActionAddStop:
		// Picking a place while already navigating does not replace the trip
		if navigating || s.listener == nil {
			return nil
		}
		if err := s.listener.ExecuteScript(s.script()); err != nil {
			return fmt.Errorf("failed to start navigation: %w", err)
		}
	case ActionPan:
		s.surface.SetPanMode(!s.surface.PanMode())
	case ActionRecenter:
		s.surface.HandleRecenter()
	case ActionZoomIn:
		s.surface.HandleScale(ZoomInFactor)
	case ActionZoomOut:
		s.surface.HandleScale(ZoomOutFactor)
	case ActionSettings, ActionVoice:
		s.logger.Debug("Screen: Action handled by client", "action", id)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, id)
	}
	return nil
}
