package store

import (
	"context"

	"carnav/pkg/model"
)

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}

// EventStore keeps the trip history across runs.
type EventStore interface {
	SaveEvent(ctx context.Context, event *model.TripEvent) error
	ListEvents(ctx context.Context, limit int) ([]model.TripEvent, error)
	ClearEvents(ctx context.Context) error
}
