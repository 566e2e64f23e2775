package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"carnav/pkg/db"
	"carnav/pkg/model"
)

// setupTestStore creates a test database and store for each test.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	d, err := db.Init(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to init DB: %v", err)
	}
	s := NewSQLiteStore(d)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_State(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	if _, ok := s.GetState(ctx, "missing"); ok {
		t.Error("expected missing key to be absent")
	}

	if err := s.SetState(ctx, "settings.one", "true"); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}
	if err := s.SetState(ctx, "settings.two", "false"); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}
	if err := s.SetState(ctx, "audio_volume", "0.5"); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}
	// Overwrite
	if err := s.SetState(ctx, "settings.two", "true"); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}

	val, ok := s.GetState(ctx, "settings.two")
	if !ok || val != "true" {
		t.Errorf("expected true, got %q (%v)", val, ok)
	}

	list, err := s.ListState(ctx, "settings.")
	if err != nil {
		t.Fatalf("ListState failed: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("expected 2 settings, got %d: %v", len(list), list)
	}
	if _, ok := list["audio_volume"]; ok {
		t.Error("prefix filter leaked audio_volume")
	}

	if err := s.DeleteState(ctx, "settings.one"); err != nil {
		t.Fatalf("DeleteState failed: %v", err)
	}
	if _, ok := s.GetState(ctx, "settings.one"); ok {
		t.Error("expected deleted key to be absent")
	}
}

func TestSQLiteStore_Events(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	events := []model.TripEvent{
		{ID: "1", Type: model.EventNavigationStarted, Title: "Navigation started", Timestamp: base},
		{ID: "2", Type: model.EventRerouting, Title: "Rerouting", Summary: "Work", Timestamp: base.Add(time.Second)},
		{ID: "3", Type: model.EventArrived, Title: "Arrived!", Timestamp: base.Add(2 * time.Second)},
	}
	for i := range events {
		if err := s.SaveEvent(ctx, &events[i]); err != nil {
			t.Fatalf("SaveEvent failed: %v", err)
		}
	}

	all, err := s.ListEvents(ctx, 0)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}
	if all[0].ID != "1" || all[2].ID != "3" {
		t.Errorf("expected chronological order, got %v", all)
	}
	if all[1].Summary != "Work" || all[1].Type != model.EventRerouting {
		t.Errorf("unexpected event: %+v", all[1])
	}
	if !all[0].Timestamp.Equal(base) {
		t.Errorf("expected timestamp %v, got %v", base, all[0].Timestamp)
	}

	last, err := s.ListEvents(ctx, 2)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(last) != 2 || last[0].ID != "2" || last[1].ID != "3" {
		t.Errorf("expected newest two events, got %v", last)
	}

	if err := s.SaveEvent(ctx, &model.TripEvent{Title: "no id"}); err == nil {
		t.Error("expected error for event without id")
	}

	if err := s.ClearEvents(ctx); err != nil {
		t.Fatalf("ClearEvents failed: %v", err)
	}
	all, _ = s.ListEvents(ctx, 0)
	if len(all) != 0 {
		t.Errorf("expected no events after clear, got %d", len(all))
	}
}
