package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"carnav/pkg/config"
	"carnav/pkg/model"
	"carnav/pkg/screen"
	"carnav/pkg/store"
)

// EventRecorder records trip history entries.
type EventRecorder interface {
	AddEvent(event *model.TripEvent)
}

// SettingsHandler handles the settings screen and runtime tuning.
type SettingsHandler struct {
	store    store.StateStore
	prov     config.Provider
	screen   *screen.SettingsScreen
	events   EventRecorder
	onChange func(ctx context.Context)
}

// NewSettingsHandler creates a new SettingsHandler. onChange runs after every successful update.
func NewSettingsHandler(st store.StateStore, prov config.Provider, events EventRecorder, onChange func(ctx context.Context)) *SettingsHandler {
	return &SettingsHandler{
		store:    st,
		prov:     prov,
		screen:   screen.NewSettingsScreen(st),
		events:   events,
		onChange: onChange,
	}
}

// SettingsResponse represents the settings API response.
type SettingsResponse struct {
	Screen         screen.SettingsTemplate `json:"screen"`
	Volume         float64                 `json:"volume"`
	AudioEnabled   bool                    `json:"audio_enabled"`
	CueInterval    int                     `json:"cue_interval"`
	TimeScale      float64                 `json:"time_scale"`
	RotateNextStep bool                    `json:"rotate_next_step"`
	DefaultScript  string                  `json:"default_script"`
}

// SettingsRequest represents a partial update. Pointers distinguish false from missing.
type SettingsRequest struct {
	Toggles        map[string]bool `json:"toggles,omitempty"`
	Volume         *float64        `json:"volume,omitempty"`
	AudioEnabled   *bool           `json:"audio_enabled,omitempty"`
	CueInterval    *int            `json:"cue_interval,omitempty"`
	TimeScale      *float64        `json:"time_scale,omitempty"`
	RotateNextStep *bool           `json:"rotate_next_step,omitempty"`
	DefaultScript  *string         `json:"default_script,omitempty"`
}

// HandleGet handles GET /api/settings.
func (h *SettingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.response(r.Context()))
}

func (h *SettingsHandler) response(ctx context.Context) SettingsResponse {
	return SettingsResponse{
		Screen:         h.screen.Template(ctx),
		Volume:         h.prov.Volume(ctx),
		AudioEnabled:   h.prov.AudioEnabled(ctx),
		CueInterval:    h.prov.CueInterval(ctx),
		TimeScale:      h.prov.TimeScale(ctx),
		RotateNextStep: h.prov.RotateNextStep(ctx),
		DefaultScript:  h.prov.DefaultScript(ctx),
	}
}

// HandleSet handles PUT /api/settings.
func (h *SettingsHandler) HandleSet(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updates, err := req.updates()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := h.store.SetState(ctx, k, updates[k]); err != nil {
			slog.Error("SettingsHandler: Failed to save setting", "key", k, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
	}

	if len(keys) > 0 {
		slog.Info("SettingsHandler: Settings updated", "keys", strings.Join(keys, ","))
		if h.events != nil {
			h.events.AddEvent(&model.TripEvent{
				Type:    model.EventSettings,
				Title:   "Settings changed",
				Summary: strings.Join(keys, ", "),
			})
		}
		if h.onChange != nil {
			h.onChange(ctx)
		}
	}

	writeJSON(w, http.StatusOK, h.response(ctx))
}

// updates validates the request and returns the store values to write.
func (req *SettingsRequest) updates() (map[string]string, error) {
	out := make(map[string]string)

	for k, v := range req.Toggles {
		if !screen.IsToggle(k) {
			return nil, fmt.Errorf("unknown setting %q", k)
		}
		out[k] = strconv.FormatBool(v)
	}
	if req.Volume != nil {
		if *req.Volume < 0 || *req.Volume > 1 {
			return nil, fmt.Errorf("volume must be between 0 and 1")
		}
		out[config.KeyVolume] = strconv.FormatFloat(*req.Volume, 'f', -1, 64)
	}
	if req.AudioEnabled != nil {
		out[config.KeyAudioEnabled] = strconv.FormatBool(*req.AudioEnabled)
	}
	if req.CueInterval != nil {
		if *req.CueInterval < 0 {
			return nil, fmt.Errorf("cue_interval must not be negative")
		}
		out[config.KeyCueInterval] = strconv.Itoa(*req.CueInterval)
	}
	if req.TimeScale != nil {
		if *req.TimeScale <= 0 {
			return nil, fmt.Errorf("time_scale must be positive")
		}
		out[config.KeyTimeScale] = strconv.FormatFloat(*req.TimeScale, 'f', -1, 64)
	}
	if req.RotateNextStep != nil {
		out[config.KeyRotateNextStep] = strconv.FormatBool(*req.RotateNextStep)
	}
	if req.DefaultScript != nil {
		out[config.KeyLastScript] = *req.DefaultScript
	}
	return out, nil
}
