package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"carnav/pkg/audio"
	"carnav/pkg/config"
	"carnav/pkg/store"
)

// AudioHandler handles cue playback endpoints.
type AudioHandler struct {
	audio audio.Service
	store store.StateStore
}

// NewAudioHandler creates a new AudioHandler. st may be nil.
func NewAudioHandler(svc audio.Service, st store.StateStore) *AudioHandler {
	return &AudioHandler{audio: svc, store: st}
}

// AudioVolumeRequest represents a volume change request.
type AudioVolumeRequest struct {
	Volume *float64 `json:"volume"`
	Muted  *bool    `json:"muted,omitempty"`
}

// AudioStatusResponse represents the audio status.
type AudioStatusResponse struct {
	IsPlaying   bool    `json:"is_playing"`
	IsMuted     bool    `json:"is_muted"`
	Volume      float64 `json:"volume"`
	LastCue     string  `json:"last_cue,omitempty"`
	RemainingMS int64   `json:"remaining_ms"`
}

// HandleVolume handles POST /api/audio/volume
func (h *AudioHandler) HandleVolume(w http.ResponseWriter, r *http.Request) {
	var req AudioVolumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Volume == nil && req.Muted == nil {
		writeError(w, http.StatusBadRequest, "volume or muted required")
		return
	}

	if req.Volume != nil {
		h.audio.SetVolume(*req.Volume)
		if h.store != nil {
			val := strconv.FormatFloat(h.audio.Volume(), 'f', 2, 64)
			if err := h.store.SetState(r.Context(), config.KeyVolume, val); err != nil {
				slog.Error("Failed to persist volume", "error", err)
			}
		}
	}
	if req.Muted != nil {
		h.audio.SetMuted(*req.Muted)
	}

	writeJSON(w, http.StatusOK, h.status())
}

// HandleStop handles POST /api/audio/stop
func (h *AudioHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	h.audio.Stop()
	slog.Debug("Audio: Stopped via API")
	writeJSON(w, http.StatusOK, h.status())
}

// HandleStatus handles GET /api/audio/status
func (h *AudioHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.status())
}

func (h *AudioHandler) status() AudioStatusResponse {
	return AudioStatusResponse{
		IsPlaying:   h.audio.IsPlaying(),
		IsMuted:     h.audio.IsMuted(),
		Volume:      h.audio.Volume(),
		LastCue:     h.audio.LastCue(),
		RemainingMS: h.audio.Remaining().Milliseconds(),
	}
}
