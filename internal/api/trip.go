package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"carnav/pkg/geo"
	"carnav/pkg/model"
	"carnav/pkg/notify"
	"carnav/pkg/screen"
)

// TripSource provides the current trip state.
type TripSource interface {
	Snapshot() model.TripState
}

// EventHistory provides the trip history.
type EventHistory interface {
	Events(limit int) []model.TripEvent
	Reset(ctx context.Context) error
}

// TripHandler handles trip-related API endpoints.
type TripHandler struct {
	trip    TripSource
	history EventHistory
	screen  *screen.NavigationScreen
	notes   *notify.Center
	route   *geo.Route
}

// NewTripHandler creates a new TripHandler. screen, notes and route may be nil.
func NewTripHandler(trip TripSource, history EventHistory, scr *screen.NavigationScreen, notes *notify.Center, route *geo.Route) *TripHandler {
	return &TripHandler{trip: trip, history: history, screen: scr, notes: notes, route: route}
}

// HandleTrip returns the trip state.
// GET /api/trip
func (h *TripHandler) HandleTrip(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.trip.Snapshot())
}

// HandleTemplate returns the rendered navigation screen.
// GET /api/trip/template
func (h *TripHandler) HandleTemplate(w http.ResponseWriter, r *http.Request) {
	if h.screen == nil {
		writeError(w, http.StatusNotFound, "no screen attached")
		return
	}
	writeJSON(w, http.StatusOK, h.screen.Template())
}

// HandleEvents returns the trip events as JSON, oldest first.
// GET /api/trip/events?limit=N
func (h *TripHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	events := h.history.Events(limit)
	if events == nil {
		events = []model.TripEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleClearEvents deletes the trip history.
// DELETE /api/trip/events
func (h *TripHandler) HandleClearEvents(w http.ResponseWriter, r *http.Request) {
	if err := h.history.Reset(r.Context()); err != nil {
		slog.Error("TripHandler: Failed to clear events", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear events")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleNotifications returns the latest notification per channel.
// GET /api/trip/notifications
func (h *TripHandler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	out := map[model.NotificationChannel]notify.Posted{}
	if h.notes != nil {
		for _, ch := range []model.NotificationChannel{model.ChannelNavigation, model.ChannelAlert} {
			if p, ok := h.notes.Latest(ch); ok {
				out[ch] = p
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleRoute returns the route and the vehicle position as GeoJSON.
// GET /api/route
func (h *TripHandler) HandleRoute(w http.ResponseWriter, r *http.Request) {
	if h.route == nil {
		writeError(w, http.StatusNotFound, "no route configured")
		return
	}

	var vehicle *geo.Point
	if h.screen != nil {
		if loc := h.screen.Surface().Location(); loc != nil {
			vehicle = &loc.Point
		}
	}
	w.Header().Set("Content-Type", "application/geo+json")
	data, err := h.route.GeoJSON(vehicle).MarshalJSON()
	if err != nil {
		slog.Error("TripHandler: Failed to encode route", "error", err)
		http.Error(w, "failed to encode route", http.StatusInternalServerError)
		return
	}
	if _, err := w.Write(data); err != nil {
		slog.Error("Failed to write route response", "error", err)
	}
}
