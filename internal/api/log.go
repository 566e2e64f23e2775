package api

import (
	"net/http"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"carnav/pkg/logging"
)

// Attribute values longer than this are too noisy for the status line.
const maxParamLen = 20

var attrPattern = regexp.MustCompile(`([\w.\-]+)=(?:"([^"]*)"|(\S+))`)

// handleLatestLog returns the newest server log line and the newest trip event.
func handleLatestLog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"log":   formatLogLine(logging.ServerLines.Last()),
		"event": logging.EventLines.Last(),
	})
}

// handleRecentLog returns the last n server log lines and trip events, oldest first.
func handleRecentLog(w http.ResponseWriter, r *http.Request) {
	n := 10
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = parsed
	}

	lines := logging.ServerLines.Lines(n)
	for i, l := range lines {
		lines[i] = formatLogLine(l)
	}
	writeJSON(w, http.StatusOK, map[string][]string{
		"log":    lines,
		"events": logging.EventLines.Lines(n),
	})
}

// formatLogLine shortens a slog text record to "15:04:05 msg (k=v, ...)".
// Anything that is not a slog record is returned unchanged.
func formatLogLine(raw string) string {
	var stamp, msg string
	var attrs []string

	for _, m := range attrPattern.FindAllStringSubmatch(raw, -1) {
		key, val := m[1], m[2]
		if val == "" {
			val = m[3]
		}
		switch key {
		case "level":
		case "time":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				stamp = t.Format(time.TimeOnly)
			}
		case "msg":
			msg = val
		default:
			if len(val) <= maxParamLen {
				attrs = append(attrs, key+"="+strings.TrimSpace(val))
			}
		}
	}
	if msg == "" {
		return raw
	}

	out := msg
	if stamp != "" {
		out = stamp + " " + msg
	}
	if len(attrs) == 0 {
		return out
	}
	slices.Sort(attrs)
	return out + " (" + strings.Join(attrs, ", ") + ")"
}
