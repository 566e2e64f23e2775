package geo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrail_Push(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	fix := func(sec int, lat, lon float64) Location {
		return Location{Time: base.Add(time.Duration(sec) * time.Second), Point: Point{Lat: lat, Lon: lon}, Heading: 99}
	}

	tests := []struct {
		name  string
		size  int
		fixes []Location
		want  []float64
	}{
		{
			name:  "window of three",
			size:  3,
			fixes: []Location{fix(0, 10, 20), fix(1, 11, 20), fix(2, 11, 21), fix(3, 10, 21)},
			want:  []float64{99, 0, 45, 135},
		},
		{
			name:  "repeated point keeps single fix",
			size:  3,
			fixes: []Location{fix(0, 10, 20), fix(1, 10, 20)},
			want:  []float64{99, 99},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTrail(tt.size)
			for i, l := range tt.fixes {
				got := tr.Push(l)
				assert.InDelta(t, tt.want[i], got.Heading, 1.0, "fix %d", i)
				assert.Equal(t, l.Point, got.Point)
			}
		})
	}
}

func TestTrail_SpeedAndReset(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	start := Point{Lat: 47.6, Lon: -122.3}
	tr := NewTrail(1)
	assert.Zero(t, tr.Speed())

	tr.Push(Location{Time: base, Point: start})
	tr.Push(Location{Time: base.Add(10 * time.Second), Point: DestinationPoint(start, 100, 90)})
	assert.Equal(t, 2, tr.Len())
	assert.InDelta(t, 10.0, tr.Speed(), 0.1)

	tr.Reset()
	assert.Zero(t, tr.Len())
	assert.Zero(t, tr.Speed())
}
