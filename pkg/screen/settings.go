package screen

import (
	"context"
	"fmt"
	"strconv"

	"carnav/pkg/config"
	"carnav/pkg/store"
)

// Row is one toggle of the settings screen.
type Row struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	Checked bool   `json:"checked"`
}

// Section groups rows under a header.
type Section struct {
	Title string `json:"title"`
	Rows  []Row  `json:"rows"`
}

// SettingsTemplate is the rendered settings screen.
type SettingsTemplate struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

var settingsLayout = []struct {
	title string
	rows  []Row
}{
	{"Section A", []Row{
		{Key: config.KeySettingOne, Title: "Setting One"},
		{Key: config.KeySettingTwo, Title: "Setting Two"},
		{Key: config.KeySettingThree, Title: "Setting Three"},
	}},
	{"Section B", []Row{
		{Key: config.KeySettingFour, Title: "Setting Four"},
		{Key: config.KeySettingFive, Title: "Setting Five"},
		{Key: config.KeySettingSix, Title: "Setting Six"},
	}},
}

// SettingsScreen shows boolean toggles persisted in a state store.
type SettingsScreen struct {
	store store.StateStore
}

func NewSettingsScreen(st store.StateStore) *SettingsScreen {
	return &SettingsScreen{store: st}
}

// Template reads every toggle from the store.
func (s *SettingsScreen) Template(ctx context.Context) SettingsTemplate {
	t := SettingsTemplate{Title: "Settings"}
	for _, sec := range settingsLayout {
		out := Section{Title: sec.title}
		for _, r := range sec.rows {
			if v, ok := s.store.GetState(ctx, r.Key); ok {
				r.Checked = v == "true"
			}
			out.Rows = append(out.Rows, r)
		}
		t.Sections = append(t.Sections, out)
	}
	return t
}

// SetToggle persists one toggle.
func (s *SettingsScreen) SetToggle(ctx context.Context, key string, on bool) error {
	if !IsToggle(key) {
		return fmt.Errorf("unknown setting %q", key)
	}
	if err := s.store.SetState(ctx, key, strconv.FormatBool(on)); err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

// IsToggle reports whether key belongs to a settings row.
func IsToggle(key string) bool {
	for _, sec := range settingsLayout {
		for _, r := range sec.rows {
			if r.Key == key {
				return true
			}
		}
	}
	return false
}
