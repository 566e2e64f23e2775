package script

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carnav/pkg/model"
)

func TestFile_DemoTripSurvivesYAML(t *testing.T) {
	seq := BuildDemoTrip(DefaultDemoConfig(), testNow)

	data, err := NewFile("home", seq, testNow).Marshal()
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "home.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "home", f.Name)
	assert.Equal(t, "PST", f.Zone)
	assert.Equal(t, seq, f.Instructions(testNow))
}

func TestFile_KeepsDistanceUnits(t *testing.T) {
	arrival := model.DateTimeWithZone{Time: testNow.Add(10 * time.Minute), ZoneShortName: "PST"}
	seq := []model.Instruction{
		model.NewInstruction(model.KindStartNavigation, 0),
		model.NewInstruction(model.KindAddDestination, 0, model.WithDestination(model.Destination{Name: "Lake", Address: "Hwy 2"})),
		model.NewInstruction(model.KindAddStep, 0, model.WithStep(model.Step{Cue: "Exit 12", Road: "Hwy 2"})),
		model.NewInstruction(model.KindSetTripPosition, time.Second,
			model.WithStepRemainingDistance(model.Distance{Value: 1.5, Unit: model.UnitKilometers}),
			model.WithStepTravelEstimate(model.TravelEstimate{
				RemainingDistance: model.Distance{Value: 1.5, Unit: model.UnitKilometers},
				Arrival:           arrival,
				RemainingTime:     time.Minute,
			}),
			model.WithDestinationTravelEstimate(model.TravelEstimate{
				RemainingDistance: model.Distance{Value: 2, Unit: model.UnitMiles},
				Arrival:           arrival,
				RemainingTime:     10 * time.Minute,
			})),
		model.NewInstruction(model.KindEndNavigation, 0),
	}

	data, err := NewFile("lake", seq, testNow).Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "step_remaining: 1500m")
	assert.Contains(t, string(data), "step_remaining_unit: km")

	path := filepath.Join(t.TempDir(), "lake.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	f, err := LoadFile(path)
	require.NoError(t, err)

	pos := f.Instructions(testNow)[3]
	assert.Equal(t, model.UnitKilometers, pos.StepRemainingDistance.Unit)
	assert.InDelta(t, 1.5, pos.StepRemainingDistance.Value, 1e-9)
	assert.Equal(t, model.UnitKilometers, pos.StepTravelEstimate.RemainingDistance.Unit)
	assert.Equal(t, model.UnitMiles, pos.DestinationTravelEstimate.RemainingDistance.Unit)
	assert.InDelta(t, 2.0, pos.DestinationTravelEstimate.RemainingDistance.Value, 1e-9)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	doc := `
instructions:
  - kind: start_navigation
  - kind: add_destination
    destination: {name: Gym, address: 1 Main St.}
  - kind: add_step
    step:
      cue: Main Street
      road: Main Street
      maneuver: {type: turn_normal_left, icon: ic_turn_normal_left}
  - kind: set_trip_position
    delay: 2s
    step_remaining: 100m
    step_estimate: {remaining: 100m, remaining_time: 20s, arrive_in: 20s}
    destination_estimate: {remaining: 300, remaining_time: 1m, arrive_in: 1m}
    road: 1st Avenue
    show_next_step: true
  - kind: set_arrived
    delay: 1s
  - kind: end_navigation
`
	path := filepath.Join(dir, "gym.yml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "gym", f.Name)

	seq := f.Instructions(testNow)
	require.Len(t, seq, 6)
	pos := seq[3]
	assert.Equal(t, model.KindSetTripPosition, pos.Kind)
	assert.Equal(t, 100.0, pos.StepRemainingDistance.Value)
	assert.Equal(t, 300.0, pos.DestinationTravelEstimate.RemainingDistance.Value)
	assert.Equal(t, testNow.Add(pos.DestinationTravelEstimate.RemainingTime), pos.DestinationTravelEstimate.Arrival.Time)
	assert.Equal(t, "1st Avenue", pos.Road)
	assert.True(t, pos.ShowNextStep)
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("instructions:\n  - kind: pop_step\n"), 0o644))

	_, err := LoadFile(path)
	assert.ErrorIs(t, err, ErrUnbalanced)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadDir(t *testing.T) {
	files, err := LoadDir(filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)
	assert.Empty(t, files)

	dir := t.TempDir()
	data, err := NewFile("home", BuildDemoTrip(DefaultDemoConfig(), testNow), testNow).Marshal()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	files, err = LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)

	c := NewCatalog()
	require.NoError(t, c.RegisterFile(files[0]))
	assert.Equal(t, []string{"home"}, c.Names())
}

func TestLoadDir_BundledScripts(t *testing.T) {
	files, err := LoadDir(filepath.Join("..", "..", "configs", "scripts"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		seq := f.Instructions(testNow)
		require.NotEmpty(t, seq, f.Name)
		assert.Equal(t, model.KindStartNavigation, seq[0].Kind, f.Name)
		assert.Equal(t, model.KindEndNavigation, seq[len(seq)-1].Kind, f.Name)
	}
}
