package config

import (
	"context"
	"strconv"

	"carnav/pkg/store"
)

// Provider defines the interface for accessing unified configuration.
type Provider interface {
	// Audio
	Volume(ctx context.Context) float64
	AudioEnabled(ctx context.Context) bool

	// Navigation
	CueInterval(ctx context.Context) int
	TimeScale(ctx context.Context) float64
	DefaultScript(ctx context.Context) string

	// Screen
	RotateNextStep(ctx context.Context) bool

	// Settings toggles
	Toggle(ctx context.Context, key string) bool

	// Raw access (for components that need deep access)
	AppConfig() *Config
}

// UnifiedProvider implements Provider by bridging static Config and persistent Store.
type UnifiedProvider struct {
	base  *Config
	store store.StateStore
}

// NewProvider creates a new UnifiedProvider.
func NewProvider(base *Config, st store.StateStore) *UnifiedProvider {
	return &UnifiedProvider{
		base:  base,
		store: st,
	}
}

func (p *UnifiedProvider) AppConfig() *Config { return p.base }

func (p *UnifiedProvider) Volume(ctx context.Context) float64 {
	v := p.getFloat64(ctx, KeyVolume, p.base.Audio.Volume)
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (p *UnifiedProvider) AudioEnabled(ctx context.Context) bool {
	return p.getBool(ctx, KeyAudioEnabled, p.base.Audio.Enabled)
}

func (p *UnifiedProvider) CueInterval(ctx context.Context) int {
	return p.getInt(ctx, KeyCueInterval, p.base.Navigation.CueInterval)
}

func (p *UnifiedProvider) TimeScale(ctx context.Context) float64 {
	s := p.getFloat64(ctx, KeyTimeScale, p.base.Script.TimeScale)
	if s <= 0 {
		return 1
	}
	return s
}

func (p *UnifiedProvider) DefaultScript(ctx context.Context) string {
	return p.getString(ctx, KeyLastScript, p.base.Script.Default)
}

func (p *UnifiedProvider) RotateNextStep(ctx context.Context) bool {
	return p.getBool(ctx, KeyRotateNextStep, p.base.Screen.RotateNextStep)
}

// Toggle reads a settings screen toggle. Unset toggles are off.
func (p *UnifiedProvider) Toggle(ctx context.Context, key string) bool {
	return p.getBool(ctx, key, false)
}

// --- Helpers ---

func (p *UnifiedProvider) getString(ctx context.Context, key, fallback string) string {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			return val
		}
	}
	return fallback
}

func (p *UnifiedProvider) getInt(ctx context.Context, key string, fallback int) int {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			if i, err := strconv.Atoi(val); err == nil {
				return i
			}
		}
	}
	return fallback
}

func (p *UnifiedProvider) getFloat64(ctx context.Context, key string, fallback float64) float64 {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				return f
			}
		}
	}
	return fallback
}

func (p *UnifiedProvider) getBool(ctx context.Context, key string, fallback bool) bool {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			return val == "true"
		}
	}
	return fallback
}
