package api

import (
	"net/http"
	"runtime"
	"time"

	"carnav/pkg/tracker"
)

// CueQueue reports the audio cue backlog.
type CueQueue interface {
	Count() int
	Played() int
}

// StatsHandler serves delivery counters and process diagnostics.
type StatsHandler struct {
	tracker *tracker.Tracker
	cues    CueQueue
	hub     *Hub
	started time.Time
}

// NewStatsHandler creates a new StatsHandler. cues and hub may be nil.
func NewStatsHandler(t *tracker.Tracker, cues CueQueue, hub *Hub) *StatsHandler {
	return &StatsHandler{tracker: t, cues: cues, hub: hub, started: time.Now()}
}

type CueStats struct {
	Triggered int64 `json:"triggered"`
	Queued    int   `json:"queued"`
	Played    int   `json:"played"`
}

type Diagnostics struct {
	UptimeSec  int64  `json:"uptime_sec"`
	MemoryMB   uint64 `json:"memory_mb"`
	Goroutines int    `json:"goroutines"`
	WSClients  int    `json:"ws_clients"`
}

type StatsResponse struct {
	Instructions map[string]tracker.KindStats `json:"instructions"`
	Cues         CueStats                     `json:"cues"`
	Diagnostics  Diagnostics                  `json:"diagnostics"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := StatsResponse{
		Instructions: h.tracker.Snapshot(),
		Cues:         CueStats{Triggered: h.tracker.Cues()},
		Diagnostics: Diagnostics{
			UptimeSec:  int64(time.Since(h.started).Seconds()),
			MemoryMB:   bToMb(mem.Alloc),
			Goroutines: runtime.NumGoroutine(),
		},
	}
	if h.cues != nil {
		resp.Cues.Queued = h.cues.Count()
		resp.Cues.Played = h.cues.Played()
	}
	if h.hub != nil {
		resp.Diagnostics.WSClients = h.hub.Clients()
	}

	writeJSON(w, http.StatusOK, resp)
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
