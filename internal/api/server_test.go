package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carnav/pkg/config"
	"carnav/pkg/db"
	"carnav/pkg/geo"
	"carnav/pkg/model"
	"carnav/pkg/navigation"
	"carnav/pkg/notify"
	"carnav/pkg/screen"
	"carnav/pkg/script"
	"carnav/pkg/store"
	"carnav/pkg/tracker"
)

type mockController struct {
	executed []string
	queries  []string
	stops    int
	err      error
}

func (m *mockController) ExecuteScript(name string) error {
	m.executed = append(m.executed, name)
	return m.err
}

func (m *mockController) Navigate(q string) error {
	m.queries = append(m.queries, q)
	return m.err
}

func (m *mockController) StopNavigation() { m.stops++ }

func (m *mockController) Scripts() []string { return []string{"home", "short"} }

type staticTrip struct{ st model.TripState }

func (s staticTrip) Snapshot() model.TripState { return s.st }

type memHistory struct{ events []model.TripEvent }

func (m *memHistory) Events(limit int) []model.TripEvent {
	if limit > 0 && len(m.events) > limit {
		return m.events[len(m.events)-limit:]
	}
	return m.events
}

func (m *memHistory) Reset(context.Context) error {
	m.events = nil
	return nil
}

func (m *memHistory) AddEvent(e *model.TripEvent) { m.events = append(m.events, *e) }

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	d, err := db.Init(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	s := store.NewSQLiteStore(d)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndVersion(t *testing.T) {
	mux := NewMux(Handlers{}, nil)

	rec := do(t, mux, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = do(t, mux, http.MethodGet, "/api/version", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version"`)

	rec = do(t, mux, http.MethodGet, "/api/log/latest", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, mux, http.MethodGet, "/api/log/recent?n=5", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"events"`)

	rec = do(t, mux, http.MethodGet, "/api/log/recent?n=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Not routed without a handler
	rec = do(t, mux, http.MethodGet, "/api/trip", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShutdown(t *testing.T) {
	called := make(chan struct{})
	mux := NewMux(Handlers{}, func() { close(called) })

	rec := do(t, mux, http.MethodPost, "/api/shutdown", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown was not called")
	}
}

func TestTripHandler(t *testing.T) {
	st := model.TripState{
		IsNavigating: true,
		Destinations: []model.Destination{{Name: "Work", Address: "747 6th St."}},
		Steps:        []model.Step{{Cue: "Turn left", Road: "State Street"}},
	}
	hist := &memHistory{}
	hist.AddEvent(&model.TripEvent{Type: model.EventNavigationStarted, Title: "Navigation started"})
	hist.AddEvent(&model.TripEvent{Type: model.EventArrived, Title: "Arrived"})

	scr := screen.NewNavigationScreen(nil, nil)
	scr.Update(st)
	notes := notify.NewCenter(nil)
	notes.Notify(model.ChannelNavigation, model.Notification{Title: "350m", Content: "State Street"})

	route, err := geo.BuildRoute(geo.Point{Lat: 47.6, Lon: -122.3}, 0, geo.DemoLegs)
	require.NoError(t, err)
	scr.Surface().UpdateLocation(&geo.Location{Time: time.Now(), Point: route.Start()})

	mux := NewMux(Handlers{Trip: NewTripHandler(staticTrip{st}, hist, scr, notes, route)}, nil)

	rec := do(t, mux, http.MethodGet, "/api/trip", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got model.TripState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.IsNavigating)
	assert.Equal(t, "Work", got.Destinations[0].Name)

	rec = do(t, mux, http.MethodGet, "/api/trip/template", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tpl screen.NavigationTemplate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tpl))
	require.NotNil(t, tpl.NavigationInfo)
	assert.Equal(t, screen.InfoRouting, tpl.NavigationInfo.Kind)

	rec = do(t, mux, http.MethodGet, "/api/trip/events?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var events []model.TripEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "Arrived", events[0].Title)

	rec = do(t, mux, http.MethodGet, "/api/trip/events?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodGet, "/api/trip/notifications", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"350m"`)

	rec = do(t, mux, http.MethodGet, "/api/route", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"vehicle"`)
	assert.Contains(t, rec.Body.String(), `"LineString"`)

	rec = do(t, mux, http.MethodDelete, "/api/trip/events", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, hist.events)

	rec = do(t, mux, http.MethodGet, "/api/trip/events", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestTripHandler_NoRoute(t *testing.T) {
	mux := NewMux(Handlers{Trip: NewTripHandler(staticTrip{}, &memHistory{}, nil, nil, nil)}, nil)
	assert.Equal(t, http.StatusNotFound, do(t, mux, http.MethodGet, "/api/route", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, mux, http.MethodGet, "/api/trip/template", "").Code)
}

func TestNavigationHandler(t *testing.T) {
	ctrl := &mockController{}
	st := newTestStore(t)
	scr := screen.NewNavigationScreen(nil, ctrl)
	mux := NewMux(Handlers{Navigation: NewNavigationHandler(ctrl, scr, st)}, nil)

	rec := do(t, mux, http.MethodPost, "/api/navigation/start", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{""}, ctrl.executed)

	rec = do(t, mux, http.MethodPost, "/api/navigation/start", `{"script":"short"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	last, ok := st.GetState(context.Background(), config.KeyLastScript)
	assert.True(t, ok)
	assert.Equal(t, "short", last)

	rec = do(t, mux, http.MethodPost, "/api/navigation/start", `{"query":"work"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"work"}, ctrl.queries)

	rec = do(t, mux, http.MethodPost, "/api/navigation/start", `{bad`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, mux, http.MethodPost, "/api/navigation/stop", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ctrl.stops)

	rec = do(t, mux, http.MethodGet, "/api/scripts", "")
	assert.JSONEq(t, `["home","short"]`, rec.Body.String())

	rec = do(t, mux, http.MethodPost, "/api/screen/action", `{"action":"zoom_in"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 1.1, scr.Surface().State().Scale, 1e-9)

	rec = do(t, mux, http.MethodPost, "/api/screen/action", `{"action":"eject"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNavigationHandler_StartErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{script.ErrUnknownScript, http.StatusNotFound},
		{navigation.ErrNotBound, http.StatusConflict},
		{script.ErrUnbalanced, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			ctrl := &mockController{err: tt.err}
			mux := NewMux(Handlers{Navigation: NewNavigationHandler(ctrl, nil, nil)}, nil)
			rec := do(t, mux, http.MethodPost, "/api/navigation/start", `{"script":"x"}`)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestSettingsHandler(t *testing.T) {
	st := newTestStore(t)
	prov := config.NewProvider(config.DefaultConfig(), st)
	hist := &memHistory{}
	changes := 0
	h := NewSettingsHandler(st, prov, hist, func(context.Context) { changes++ })
	mux := NewMux(Handlers{Settings: h}, nil)

	rec := do(t, mux, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp SettingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Screen.Sections, 2)
	assert.Equal(t, config.DefaultConfig().Navigation.CueInterval, resp.CueInterval)

	body := `{"toggles":{"settings.two":true},"volume":0.4,"cue_interval":3,"time_scale":10,"rotate_next_step":true}`
	rec = do(t, mux, http.MethodPut, "/api/settings", body)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Screen.Sections[0].Rows[1].Checked)
	assert.InDelta(t, 0.4, resp.Volume, 1e-9)
	assert.Equal(t, 3, resp.CueInterval)
	assert.Equal(t, 10.0, resp.TimeScale)
	assert.True(t, resp.RotateNextStep)
	assert.Equal(t, 1, changes)
	require.Len(t, hist.events, 1)
	assert.Equal(t, model.EventSettings, hist.events[0].Type)

	for _, bad := range []string{
		`{"toggles":{"settings.nine":true}}`,
		`{"volume":2}`,
		`{"cue_interval":-1}`,
		`{"time_scale":0}`,
		`nope`,
	} {
		rec = do(t, mux, http.MethodPut, "/api/settings", bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
	assert.Equal(t, 1, changes)
}

func TestStatsHandler(t *testing.T) {
	tr := tracker.New()
	tr.TrackApplied(string(model.KindSetTripPosition))
	tr.TrackDropped(string(model.KindAddStep))
	tr.TrackCue()

	mux := NewMux(Handlers{Stats: NewStatsHandler(tr, nil, NewHub())}, nil)
	rec := do(t, mux, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Instructions[string(model.KindSetTripPosition)].Applied)
	assert.Equal(t, int64(1), resp.Instructions[string(model.KindAddStep)].Dropped)
	assert.Equal(t, int64(1), resp.Cues.Triggered)
	assert.Positive(t, resp.Diagnostics.Goroutines)
}
