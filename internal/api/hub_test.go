package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carnav/pkg/model"
	"carnav/pkg/navigation"
	"carnav/pkg/notify"
	"carnav/pkg/script"
	"carnav/pkg/session"
	"carnav/pkg/tracker"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var m Message
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func waitClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Clients() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_GreetingAndBroadcast(t *testing.T) {
	hub := NewHub()
	hub.SetGreeting(func() []Message {
		return []Message{{Type: MessageTrip, Data: model.TripState{}}}
	})
	srv := httptest.NewServer(NewMux(Handlers{Hub: hub}, nil))
	defer srv.Close()

	conn := dial(t, srv)
	assert.Equal(t, MessageTrip, readMessage(t, conn).Type)
	waitClients(t, hub, 1)

	hub.Broadcast(MessageNotification, model.Notification{Title: "Rerouting"})
	m := readMessage(t, conn)
	assert.Equal(t, MessageNotification, m.Type)
	assert.Equal(t, "Rerouting", m.Data.(map[string]any)["title"])

	hub.Close()
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, hub.Clients())
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	waitClients(t, hub, 1)

	require.NoError(t, conn.Close())
	waitClients(t, hub, 0)
}

// Full round trip: start the demo trip over HTTP and follow it on the websocket.
func TestDemoTripOverAPI(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	history := session.NewManager(nil)
	notes := notify.NewCenter(history)
	notes.Subscribe(func(p notify.Posted) { hub.Broadcast(MessageNotification, p) })

	svc := navigation.NewService(navigation.Config{CueInterval: 10, TimeScale: 1000}, navigation.Deps{
		Notifier: notes,
		Stats:    tracker.New(),
		Events:   history,
	})
	svc.Start(ctx)
	defer svc.Close()
	svc.Subscribe(func(st model.TripState) { hub.Broadcast(MessageTrip, st) })

	cat, err := script.DefaultCatalog(script.DefaultDemoConfig())
	require.NoError(t, err)
	sess := session.NewNavigationSession(svc, session.Options{
		Catalog: cat,
		History: history,
	})
	require.NoError(t, sess.Fire(session.EventCreate))
	require.NoError(t, sess.Fire(session.EventStart))

	srv := httptest.NewServer(NewMux(Handlers{
		Trip:       NewTripHandler(svc, history, sess.Screen(), notes, nil),
		Navigation: NewNavigationHandler(sess, sess.Screen(), nil),
		Hub:        hub,
	}, nil))
	defer srv.Close()

	conn := dial(t, srv)
	waitClients(t, hub, 1)

	resp, err := http.Post(srv.URL+"/api/navigation/start", "application/json", strings.NewReader(`{"script":"home"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	sawArrived := false
	for !sawArrived {
		m := readMessage(t, conn)
		if m.Type != MessageTrip {
			continue
		}
		if st, ok := m.Data.(map[string]any); ok && st["has_arrived"] == true {
			sawArrived = true
		}
	}

	select {
	case <-svc.ScriptDone():
	case <-time.After(10 * time.Second):
		t.Fatal("script did not finish")
	}
	require.Eventually(t, func() bool { return !svc.IsNavigating() }, 2*time.Second, 10*time.Millisecond)

	var types []model.EventType
	for _, e := range history.Events(0) {
		if e.Type != model.EventNotification {
			types = append(types, e.Type)
		}
	}
	assert.Equal(t, []model.EventType{
		model.EventNavigationStarted,
		model.EventRerouting,
		model.EventArrived,
		model.EventNavigationEnded,
	}, types)
	assert.False(t, sess.Screen().State().IsNavigating)
}
