package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"carnav/pkg/version"
)

// Handlers bundles the endpoint handlers of the server. Nil handlers are not routed.
type Handlers struct {
	Trip       *TripHandler
	Navigation *NavigationHandler
	Settings   *SettingsHandler
	Stats      *StatsHandler
	Audio      *AudioHandler
	Hub        *Hub
}

// NewServer creates and configures the HTTP server.
// shutdown is called once the shutdown endpoint has answered.
func NewServer(addr string, h Handlers, shutdown func()) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      NewMux(h, shutdown),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewMux registers all routes.
func NewMux(h Handlers, shutdown func()) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)
	mux.HandleFunc("GET /api/log/recent", handleRecentLog)

	if h.Trip != nil {
		mux.HandleFunc("GET /api/trip", h.Trip.HandleTrip)
		mux.HandleFunc("GET /api/trip/template", h.Trip.HandleTemplate)
		mux.HandleFunc("GET /api/trip/events", h.Trip.HandleEvents)
		mux.HandleFunc("DELETE /api/trip/events", h.Trip.HandleClearEvents)
		mux.HandleFunc("GET /api/trip/notifications", h.Trip.HandleNotifications)
		mux.HandleFunc("GET /api/route", h.Trip.HandleRoute)
	}

	if h.Navigation != nil {
		mux.HandleFunc("POST /api/navigation/start", h.Navigation.HandleStart)
		mux.HandleFunc("POST /api/navigation/stop", h.Navigation.HandleStop)
		mux.HandleFunc("POST /api/screen/action", h.Navigation.HandleAction)
		mux.HandleFunc("GET /api/scripts", h.Navigation.HandleScripts)
	}

	if h.Settings != nil {
		mux.HandleFunc("GET /api/settings", h.Settings.HandleGet)
		mux.HandleFunc("PUT /api/settings", h.Settings.HandleSet)
	}

	if h.Stats != nil {
		mux.Handle("GET /api/stats", h.Stats)
	}

	if h.Audio != nil {
		mux.HandleFunc("GET /api/audio/status", h.Audio.HandleStatus)
		mux.HandleFunc("POST /api/audio/volume", h.Audio.HandleVolume)
		mux.HandleFunc("POST /api/audio/stop", h.Audio.HandleStop)
	}

	if h.Hub != nil {
		mux.Handle("GET /api/ws", h.Hub)
	}

	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Server: Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		if shutdown == nil {
			return
		}
		// Let the response flush first
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"status": "error", "message": msg})
}
