package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"carnav/internal/api"
	"carnav/pkg/audio"
	"carnav/pkg/config"
	"carnav/pkg/db"
	"carnav/pkg/geo"
	"carnav/pkg/model"
	"carnav/pkg/navigation"
	"carnav/pkg/notify"
	"carnav/pkg/playback"
	"carnav/pkg/screen"
	"carnav/pkg/script"
	"carnav/pkg/session"
	"carnav/pkg/store"
	"carnav/pkg/tracker"
)

const historyRetention = 30 * 24 * time.Hour

// services holds everything run wires together.
type services struct {
	Store    *store.SQLiteStore
	Provider *config.UnifiedProvider
	Tracker  *tracker.Tracker
	History  *session.Manager
	Notes    *notify.Center
	Cues     *playback.Manager
	Audio    *audio.Manager
	Nav      *navigation.Service
	Route    *geo.Route
	Session  *session.NavigationSession
	Hub      *api.Hub

	unsubscribe []func()
}

func initDB(appCfg *config.Config) (*db.DB, *store.SQLiteStore, error) {
	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return dbConn, store.NewSQLiteStore(dbConn), nil
}

func loadCatalog(cfg *config.Config) (*script.Catalog, error) {
	cat, err := script.DefaultCatalog(script.DemoConfigFrom(&cfg.Script))
	if err != nil {
		return nil, fmt.Errorf("failed to build demo script: %w", err)
	}

	files, err := script.LoadDir(cfg.Script.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load scripts: %w", err)
	}
	for _, f := range files {
		if err := cat.RegisterFile(f); err != nil {
			return nil, fmt.Errorf("failed to register script %s: %w", f.Name, err)
		}
		slog.Debug("Scripts: Loaded script file", "name", f.Name, "instructions", len(f.Instructions))
	}
	return cat, nil
}

func initServices(ctx context.Context, cfg *config.Config, st *store.SQLiteStore) (*services, error) {
	s := &services{
		Store:    st,
		Provider: config.NewProvider(cfg, st),
		Tracker:  tracker.New(),
		Hub:      api.NewHub(),
	}

	s.History = session.NewManager(st)
	session.TryRestore(ctx, st, s.History)
	s.Notes = notify.NewCenter(s.History)

	// Audio cues
	s.Cues = playback.NewManager(cfg.Audio.QueueSize)
	s.Audio = audio.New(s.Provider.Volume(ctx))
	go s.Cues.Run(ctx, s.Audio, func() bool { return s.Provider.AudioEnabled(ctx) })

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}
	slog.Info("Scripts: Catalog ready", "scripts", catalog.Names())

	navCfg := navigation.ConfigFrom(cfg)
	navCfg.CueInterval = s.Provider.CueInterval(ctx)
	navCfg.TimeScale = s.Provider.TimeScale(ctx)
	s.Nav = navigation.NewService(navCfg, navigation.Deps{
		Notifier: s.Notes,
		Cues:     s.Cues,
		Stats:    s.Tracker,
		Events:   s.History,
	})
	s.Nav.Start(ctx)

	start := geo.Point{Lat: cfg.Route.StartLat, Lon: cfg.Route.StartLon}
	route, err := geo.BuildRoute(start, cfg.Route.Bearing, geo.DemoLegs)
	if err != nil {
		return nil, fmt.Errorf("failed to build route: %w", err)
	}
	s.Route = route

	s.Session = session.NewNavigationSession(s.Nav, session.Options{
		Catalog:       catalog,
		History:       s.History,
		Route:         route,
		DefaultScript: func() string { return s.Provider.DefaultScript(context.Background()) },
		ScreenOptions: []screen.Option{screen.WithRotation(s.Provider.RotateNextStep(ctx))},
	})

	// Live updates for websocket clients
	s.Hub.SetGreeting(func() []api.Message {
		return []api.Message{{Type: api.MessageTrip, Data: s.Nav.Snapshot()}}
	})
	s.unsubscribe = append(s.unsubscribe,
		s.Nav.Subscribe(func(st model.TripState) { s.Hub.Broadcast(api.MessageTrip, st) }),
		s.Notes.Subscribe(func(p notify.Posted) { s.Hub.Broadcast(api.MessageNotification, p) }),
	)

	return s, nil
}

// applySettings pushes persisted settings into the running services.
func (s *services) applySettings(ctx context.Context) {
	s.Nav.SetCueInterval(s.Provider.CueInterval(ctx))
	s.Nav.SetTimeScale(s.Provider.TimeScale(ctx))
	s.Audio.SetVolume(s.Provider.Volume(ctx))
	s.Session.Screen().SetRotation(s.Provider.RotateNextStep(ctx))
	if !s.Provider.AudioEnabled(ctx) {
		s.Cues.Clear()
		s.Audio.Stop()
	}
}

// Handlers builds the API handlers.
func (s *services) Handlers() api.Handlers {
	scr := s.Session.Screen()
	return api.Handlers{
		Trip:       api.NewTripHandler(s.Nav, s.History, scr, s.Notes, s.Route),
		Navigation: api.NewNavigationHandler(s.Session, scr, s.Store),
		Settings:   api.NewSettingsHandler(s.Store, s.Provider, s.History, s.applySettings),
		Stats:      api.NewStatsHandler(s.Tracker, s.Cues, s.Hub),
		Audio:      api.NewAudioHandler(s.Audio, s.Store),
		Hub:        s.Hub,
	}
}

// Close stops navigation and releases audio.
func (s *services) Close() {
	for _, fn := range s.unsubscribe {
		fn()
	}
	if err := s.Nav.StopNavigation(); err != nil {
		slog.Debug("Navigation: Stop on shutdown", "error", err)
	}
	s.Nav.Close()
	s.Audio.Shutdown()
}
