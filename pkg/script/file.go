package script

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"carnav/pkg/config"
	"carnav/pkg/model"
)

// File is the YAML form of a script. Arrival times are stored as offsets from
// the moment the script starts, so a file replays the same way at any time.
type File struct {
	Name         string            `yaml:"name"`
	Description  string            `yaml:"description,omitempty"`
	Zone         string            `yaml:"zone,omitempty"`
	Instructions []FileInstruction `yaml:"instructions"`
}

// FileInstruction is one instruction of a script file.
type FileInstruction struct {
	Kind                model.InstructionKind `yaml:"kind"`
	Delay               config.Duration       `yaml:"delay,omitempty"`
	Destination         *model.Destination    `yaml:"destination,omitempty"`
	Step                *model.Step           `yaml:"step,omitempty"`
	StepRemaining       *config.Distance      `yaml:"step_remaining,omitempty"`
	StepRemainingUnit   model.DistanceUnit    `yaml:"step_remaining_unit,omitempty"`
	StepEstimate        *FileEstimate         `yaml:"step_estimate,omitempty"`
	DestinationEstimate *FileEstimate         `yaml:"destination_estimate,omitempty"`
	Road                string                `yaml:"road,omitempty"`
	ShowNextStep        bool                  `yaml:"show_next_step,omitempty"`
	ShowLanes           bool                  `yaml:"show_lanes,omitempty"`
	JunctionImage       string                `yaml:"junction_image,omitempty"`
	Notification        *model.Notification   `yaml:"notification,omitempty"`
}

// FileEstimate is a travel estimate with a relative arrival. Distances are
// stored in meters; Unit is the unit they are displayed in.
type FileEstimate struct {
	Remaining     config.Distance    `yaml:"remaining"`
	Unit          model.DistanceUnit `yaml:"unit,omitempty"`
	RemainingTime config.Duration    `yaml:"remaining_time"`
	ArriveIn      config.Duration    `yaml:"arrive_in"`
	TimeColor     model.Color        `yaml:"time_color,omitempty"`
	DistanceColor model.Color        `yaml:"distance_color,omitempty"`
}

func (e *FileEstimate) estimate(now time.Time, zone string) model.TravelEstimate {
	return model.TravelEstimate{
		RemainingDistance:      model.DistanceIn(e.Remaining.Meters(), e.Unit),
		Arrival:                model.DateTimeWithZone{Time: now.Add(e.ArriveIn.Std()), ZoneShortName: zone},
		RemainingTime:          e.RemainingTime.Std(),
		RemainingTimeColor:     e.TimeColor,
		RemainingDistanceColor: e.DistanceColor,
	}
}

func fileEstimate(e *model.TravelEstimate, now time.Time) *FileEstimate {
	if e == nil {
		return nil
	}
	return &FileEstimate{
		Remaining:     config.Distance(e.RemainingDistance.InMeters()),
		Unit:          displayUnit(e.RemainingDistance),
		RemainingTime: config.Duration(e.RemainingTime),
		ArriveIn:      config.Duration(e.Arrival.Time.Sub(now)),
		TimeColor:     e.RemainingTimeColor,
		DistanceColor: e.RemainingDistanceColor,
	}
}

// displayUnit is empty for meters so meter-only scripts stay terse.
func displayUnit(d model.Distance) model.DistanceUnit {
	if d.Unit == model.UnitMeters {
		return ""
	}
	return d.Unit
}

// Instructions builds the sequence anchored at now. It is a Factory.
func (f *File) Instructions(now time.Time) []model.Instruction {
	out := make([]model.Instruction, 0, len(f.Instructions))
	for _, fi := range f.Instructions {
		opts := []model.InstructionOption{
			model.WithRoad(fi.Road),
			model.WithShowNextStep(fi.ShowNextStep),
			model.WithShowLanes(fi.ShowLanes),
			model.WithJunctionImage(fi.JunctionImage),
		}
		if fi.Destination != nil {
			opts = append(opts, model.WithDestination(*fi.Destination))
		}
		if fi.Step != nil {
			opts = append(opts, model.WithStep(*fi.Step))
		}
		if fi.StepRemaining != nil {
			opts = append(opts, model.WithStepRemainingDistance(model.DistanceIn(fi.StepRemaining.Meters(), fi.StepRemainingUnit)))
		}
		if fi.StepEstimate != nil {
			opts = append(opts, model.WithStepTravelEstimate(fi.StepEstimate.estimate(now, f.Zone)))
		}
		if fi.DestinationEstimate != nil {
			opts = append(opts, model.WithDestinationTravelEstimate(fi.DestinationEstimate.estimate(now, f.Zone)))
		}
		if fi.Notification != nil {
			opts = append(opts, model.WithNotification(*fi.Notification))
		}
		out = append(out, model.NewInstruction(fi.Kind, fi.Delay.Std(), opts...))
	}
	return out
}

// NewFile converts a sequence built at now into its file form.
func NewFile(name string, instructions []model.Instruction, now time.Time) *File {
	f := &File{Name: name}
	for i := range instructions {
		ins := &instructions[i]
		fi := FileInstruction{
			Kind:                ins.Kind,
			Delay:               config.Duration(ins.Delay),
			Destination:         ins.Destination,
			Step:                ins.Step,
			StepEstimate:        fileEstimate(ins.StepTravelEstimate, now),
			DestinationEstimate: fileEstimate(ins.DestinationTravelEstimate, now),
			Road:                ins.Road,
			ShowNextStep:        ins.ShowNextStep,
			ShowLanes:           ins.ShowLanes,
			JunctionImage:       ins.JunctionImage,
			Notification:        ins.Notification,
		}
		if ins.StepRemainingDistance != nil {
			d := config.Distance(ins.StepRemainingDistance.InMeters())
			fi.StepRemaining = &d
			fi.StepRemainingUnit = displayUnit(*ins.StepRemainingDistance)
		}
		for _, e := range []*model.TravelEstimate{ins.StepTravelEstimate, ins.DestinationTravelEstimate} {
			if e != nil && f.Zone == "" {
				f.Zone = e.Arrival.ZoneShortName
			}
		}
		f.Instructions = append(f.Instructions, fi)
	}
	return f
}

// Marshal encodes the file as YAML.
func (f *File) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal script %q: %w", f.Name, err)
	}
	return data, nil
}

// LoadFile reads and validates a script file. The file name is used when the
// document carries no name.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse script %s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := Validate(f.Instructions(time.Now())); err != nil {
		return nil, fmt.Errorf("script %s: %w", path, err)
	}
	return &f, nil
}

// LoadDir loads every .yaml and .yml script in dir. A missing dir yields no scripts.
func LoadDir(dir string) ([]*File, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read script dir: %w", err)
	}

	var files []*File
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		f, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}
