package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	DB         DBConfig         `yaml:"db"`
	Server     ServerConfig     `yaml:"server"`
	Script     ScriptConfig     `yaml:"script"`
	Navigation NavigationConfig `yaml:"navigation"`
	Audio      AudioConfig      `yaml:"audio"`
	Screen     ScreenConfig     `yaml:"screen"`
	Route      RouteConfig      `yaml:"route"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
	Events   LogSettings `yaml:"events"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// ScriptConfig shapes the bundled demo trip and where extra scripts are loaded from.
type ScriptConfig struct {
	Default       string   `yaml:"default"`
	Dir           string   `yaml:"dir"`
	Speed         float64  `yaml:"speed_mps"`
	Distance      Distance `yaml:"distance"`
	ArrivalOffset Duration `yaml:"arrival_offset"`
	RerouteDelay  Duration `yaml:"reroute_delay"`
	ArrivedDelay  Duration `yaml:"arrived_delay"`
	ZoneName      string   `yaml:"zone_name"`
	TimeScale     float64  `yaml:"time_scale"`
}

// NavigationConfig holds settings for the navigation service side effects.
type NavigationConfig struct {
	CueInterval int    `yaml:"cue_interval"`
	CueFile     string `yaml:"cue_file"`
	AutoStart   bool   `yaml:"auto_start"`
}

// AudioConfig holds cue playback settings.
type AudioConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Volume    float64 `yaml:"volume"`
	QueueSize int     `yaml:"queue_size"`
}

// ScreenConfig holds rendering options of the navigation screen.
type ScreenConfig struct {
	RotateNextStep bool `yaml:"rotate_next_step"`
}

// RouteConfig anchors the simulated route on the map.
type RouteConfig struct {
	StartLat float64 `yaml:"start_lat"`
	StartLon float64 `yaml:"start_lon"`
	Bearing  float64 `yaml:"bearing"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
			Events: LogSettings{
				Path:  "./logs/events.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path: "./data/carnav.db",
		},
		Server: ServerConfig{
			Address: "localhost:1930",
		},
		Script: ScriptConfig{
			Default:       "home",
			Dir:           "./configs/scripts",
			Speed:         5,
			Distance:      Distance(450),
			ArrivalOffset: Duration(30 * time.Second),
			RerouteDelay:  Duration(5 * time.Second),
			ArrivedDelay:  Duration(5 * time.Second),
			ZoneName:      "PST",
			TimeScale:     1.0,
		},
		Navigation: NavigationConfig{
			CueInterval: 10,
			CueFile:     "./assets/turn_right.wav",
		},
		Audio: AudioConfig{
			Enabled:   true,
			Volume:    1.0,
			QueueSize: 5,
		},
		Route: RouteConfig{
			StartLat: 47.6694,
			StartLon: -122.1969,
			Bearing:  90,
		},
	}
}

// Validate reports settings that would make the simulation misbehave.
func (c *Config) Validate() error {
	var errs []error
	if c.Script.Speed <= 0 {
		errs = append(errs, fmt.Errorf("script.speed_mps must be positive, got %v", c.Script.Speed))
	}
	if c.Script.TimeScale <= 0 {
		errs = append(errs, fmt.Errorf("script.time_scale must be positive, got %v", c.Script.TimeScale))
	}
	if c.Navigation.CueInterval < 0 {
		errs = append(errs, fmt.Errorf("navigation.cue_interval must not be negative, got %d", c.Navigation.CueInterval))
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		errs = append(errs, fmt.Errorf("audio.volume must be within [0, 1], got %v", c.Audio.Volume))
	}
	return errors.Join(errs...)
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// Existing files are merged over the defaults and never rewritten.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	// Environment overrides are applied in memory only
	if addr := os.Getenv("CARNAV_ADDR"); addr != "" {
		cfg.Server.Address = addr
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# carnav Configuration
# ---------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
#   Distance: m (meters), km (kilometers), mi (miles), ft (feet), yd (yards)

`)
	data = append(header, data...)

	reScale := regexp.MustCompile(`(?m)^(\s+)time_scale:`)
	data = reScale.ReplaceAll(data, []byte("${1}# 2.0 replays the script twice as fast\n${1}time_scale:"))

	reCue := regexp.MustCompile(`(?m)^(\s+)cue_interval:`)
	data = reCue.ReplaceAll(data, []byte("${1}# Play the cue every N applied position updates (0 disables)\n${1}cue_interval:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
