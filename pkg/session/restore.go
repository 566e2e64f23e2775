package session

import (
	"context"
	"log/slog"

	"carnav/pkg/store"
)

// TryRestore loads the persisted trip history into mgr.
// It returns the number of restored events.
func TryRestore(ctx context.Context, st store.EventStore, mgr *Manager) int {
	if st == nil {
		return 0
	}

	mgr.mu.RLock()
	limit := mgr.limit
	mgr.mu.RUnlock()

	events, err := st.ListEvents(ctx, limit)
	if err != nil {
		slog.Error("Session: Failed to load trip history", "error", err)
		return 0
	}
	if len(events) == 0 {
		slog.Info("Session: No trip history. Starting fresh session.")
		return 0
	}

	mgr.Restore(events)
	slog.Info("Session: Restored trip history", "events", len(events))
	return len(events)
}
