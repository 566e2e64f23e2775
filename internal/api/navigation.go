package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"carnav/pkg/config"
	"carnav/pkg/model"
	"carnav/pkg/navigation"
	"carnav/pkg/screen"
	"carnav/pkg/script"
	"carnav/pkg/store"
)

// Controller starts and stops navigation.
type Controller interface {
	ExecuteScript(name string) error
	Navigate(query string) error
	StopNavigation()
	Scripts() []string
}

// NavigationHandler handles navigation control endpoints.
type NavigationHandler struct {
	ctrl   Controller
	screen *screen.NavigationScreen
	store  store.StateStore
}

// NewNavigationHandler creates a new NavigationHandler. scr and st may be nil.
func NewNavigationHandler(ctrl Controller, scr *screen.NavigationScreen, st store.StateStore) *NavigationHandler {
	return &NavigationHandler{ctrl: ctrl, screen: scr, store: st}
}

// StartRequest selects what to drive to. Query takes precedence over Script.
type StartRequest struct {
	Script string `json:"script,omitempty"`
	Query  string `json:"query,omitempty"`
}

// ActionRequest presses a screen button.
type ActionRequest struct {
	Action string `json:"action"`
}

// HandleStart handles POST /api/navigation/start. An empty body runs the default script.
func (h *NavigationHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var err error
	if req.Query != "" {
		err = h.ctrl.Navigate(req.Query)
	} else {
		err = h.ctrl.ExecuteScript(req.Script)
	}
	if err != nil {
		slog.Warn("NavigationHandler: Start failed", "script", req.Script, "query", req.Query, "error", err)
		writeError(w, startStatus(err), err.Error())
		return
	}

	if req.Script != "" && h.store != nil {
		if err := h.store.SetState(r.Context(), config.KeyLastScript, req.Script); err != nil {
			slog.Warn("NavigationHandler: Failed to remember script", "error", err)
		}
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func startStatus(err error) int {
	switch {
	case errors.Is(err, script.ErrUnknownScript):
		return http.StatusNotFound
	case errors.Is(err, navigation.ErrNotBound):
		return http.StatusConflict
	case errors.Is(err, model.ErrInvalidInstruction), errors.Is(err, script.ErrUnbalanced):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// HandleStop handles POST /api/navigation/stop.
func (h *NavigationHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	h.ctrl.StopNavigation()
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// HandleScripts handles GET /api/scripts.
func (h *NavigationHandler) HandleScripts(w http.ResponseWriter, r *http.Request) {
	names := h.ctrl.Scripts()
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

// HandleAction handles POST /api/screen/action.
func (h *NavigationHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	if h.screen == nil {
		writeError(w, http.StatusNotFound, "no screen attached")
		return
	}
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.screen.HandleAction(req.Action); err != nil {
		status := startStatus(err)
		if errors.Is(err, screen.ErrUnknownAction) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.screen.Template())
}
