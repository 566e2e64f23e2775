package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"carnav/internal/api"
	"carnav/pkg/config"
	"carnav/pkg/logging"
	"carnav/pkg/probe"
	"carnav/pkg/script"
	"carnav/pkg/session"
	"carnav/pkg/version"
)

const defaultConfigPath = "configs/carnav.yaml"

var (
	initConfig   = flag.Bool("init-config", false, "Generate default config file and exit")
	exportScript = flag.String("export-script", "", "Write the named built-in script as YAML to stdout and exit")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found (using environment variables)")
	}
	configPath := getEnv("CARNAV_CONFIG", defaultConfigPath)

	if *initConfig {
		if err := config.GenerateDefault(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated:", configPath)
		return
	}

	if *exportScript != "" {
		if err := writeScript(os.Stdout, configPath, *exportScript); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to export script: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(context.Background(), configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("CarNav Started", "version", version.Version)

	dbConn, st, err := initDB(appCfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if n, err := dbConn.PruneEvents(historyRetention); err != nil {
		slog.Error("Maintenance: Failed to prune trip history", "error", err)
	} else if n > 0 {
		slog.Info("Maintenance: Pruned trip history", "events", n)
	}

	svcs, err := initServices(ctx, appCfg, st)
	if err != nil {
		return err
	}
	defer svcs.Close()

	// Startup Probes
	probes := []probe.Probe{
		probe.Database(dbConn),
		probe.File("cue_file", appCfg.Navigation.CueFile, false),
		probe.Dir("scripts_dir", appCfg.Script.Dir, true),
	}
	if err := probe.AnalyzeResults(probe.Run(ctx, probes)); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	sess := svcs.Session
	for _, e := range []session.Event{session.EventCreate, session.EventStart, session.EventResume} {
		if err := sess.Fire(e); err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
	}
	defer func() {
		for _, e := range []session.Event{session.EventPause, session.EventStop, session.EventDestroy} {
			if err := sess.Fire(e); err != nil {
				slog.Warn("Session: Shutdown transition failed", "event", e, "error", err)
			}
		}
	}()

	if appCfg.Navigation.AutoStart {
		if err := sess.ExecuteScript(""); err != nil {
			slog.Error("Navigation: Auto start failed", "error", err)
		}
	}

	return runServer(ctx, appCfg, svcs)
}

func runServer(ctx context.Context, cfg *config.Config, svcs *services) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(cfg.Server.Address, svcs.Handlers(), shutdownFunc)
	srv.Handler = loggingMiddleware(srv.Handler)
	defer svcs.Hub.Close()

	return runServerLifecycle(ctx, srv, quit)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// writeScript renders a catalog script, including scripts loaded from the scripts dir.
func writeScript(w io.Writer, configPath, name string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	now := time.Now()
	seq, err := cat.Build(name, now)
	if err != nil {
		return err
	}
	data, err := script.NewFile(name, seq, now).Marshal()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
