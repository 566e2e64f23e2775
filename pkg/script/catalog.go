package script

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"carnav/pkg/model"
)

// DefaultScript is the name the demo trip is registered under.
const DefaultScript = "home"

// ErrUnknownScript is returned when a script name is not registered.
var ErrUnknownScript = errors.New("unknown script")

// Factory builds a fresh instruction sequence anchored at now.
type Factory func(now time.Time) []model.Instruction

// Catalog holds the named scripts the service can play.
type Catalog struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{factories: make(map[string]Factory)}
}

// DefaultCatalog returns a catalog holding the demo trip built from cfg.
func DefaultCatalog(cfg DemoConfig) (*Catalog, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := NewCatalog()
	if err := c.Register(DefaultScript, func(now time.Time) []model.Instruction {
		return BuildDemoTrip(cfg, now)
	}); err != nil {
		return nil, err
	}
	return c, nil
}

// Register adds or replaces a script. The factory output is validated once.
func (c *Catalog) Register(name string, f Factory) error {
	if name == "" {
		return fmt.Errorf("script name must not be empty")
	}
	if f == nil {
		return fmt.Errorf("script %q: nil factory", name)
	}
	if err := Validate(f(time.Now())); err != nil {
		return fmt.Errorf("script %q: %w", name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[name] = f
	return nil
}

// RegisterFile registers a script loaded from YAML under its own name.
func (c *Catalog) RegisterFile(f *File) error {
	return c.Register(f.Name, f.Instructions)
}

// Get returns the factory registered under name.
func (c *Catalog) Get(name string) (Factory, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScript, name)
	}
	return f, nil
}

// Build looks up name and builds its sequence anchored at now.
func (c *Catalog) Build(name string, now time.Time) ([]model.Instruction, error) {
	f, err := c.Get(name)
	if err != nil {
		return nil, err
	}
	return f(now), nil
}

// Names returns the registered script names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.factories))
	for n := range c.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
