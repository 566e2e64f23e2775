package geo

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

// Leg is one straight section of a generated route.
type Leg struct {
	Name   string
	Length float64 // meters
	Turn   float64 // degrees relative to the previous leg, positive is right
}

// DemoLegs matches the distances of the bundled demo trip.
var DemoLegs = []Leg{
	{Name: "3rd Street", Length: 100},
	{Name: "State Street", Length: 150, Turn: -90},
	{Name: "Kirkland Way", Length: 100, Turn: 90},
	{Name: "6th Street", Length: 100, Turn: 90},
}

// Route is the path the simulated vehicle drives.
type Route struct {
	line   orb.LineString
	cum    []float64 // distance from start to each vertex
	length float64
}

// NewRoute builds a route through the given points.
func NewRoute(line orb.LineString) (*Route, error) {
	if len(line) < 2 {
		return nil, fmt.Errorf("route needs at least 2 points, got %d", len(line))
	}
	r := &Route{line: line, cum: make([]float64, len(line))}
	for i := 1; i < len(line); i++ {
		r.cum[i] = r.cum[i-1] + orbgeo.Distance(line[i-1], line[i])
	}
	r.length = r.cum[len(r.cum)-1]
	return r, nil
}

// BuildRoute lays out legs from start, heading out on bearing.
func BuildRoute(start Point, bearing float64, legs []Leg) (*Route, error) {
	line := orb.LineString{start.Orb()}
	cur := start.Orb()
	for _, l := range legs {
		bearing += l.Turn
		cur = orbgeo.PointAtBearingAndDistance(cur, bearing, l.Length)
		line = append(line, cur)
	}
	return NewRoute(line)
}

// LoadRoute reads the first LineString feature of a GeoJSON file.
func LoadRoute(path string) (*Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read geojson %s: %w", path, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse geojson %s: %w", path, err)
	}
	for _, f := range fc.Features {
		if ls, ok := f.Geometry.(orb.LineString); ok {
			return NewRoute(ls)
		}
	}
	return nil, fmt.Errorf("no LineString feature in %s", path)
}

// Length returns the route length in meters.
func (r *Route) Length() float64 {
	return r.length
}

func (r *Route) Start() Point {
	return FromOrb(r.line[0])
}

func (r *Route) End() Point {
	return FromOrb(r.line[len(r.line)-1])
}

// PositionAt returns the point that lies remaining meters before the end of
// the route, and the heading there. Distances beyond the route are clamped.
func (r *Route) PositionAt(remaining float64) (Point, float64) {
	traveled := r.length - remaining
	if traveled < 0 {
		traveled = 0
	}
	if traveled > r.length {
		traveled = r.length
	}

	for i := 1; i < len(r.line); i++ {
		if traveled > r.cum[i] && i < len(r.line)-1 {
			continue
		}
		a, b := r.line[i-1], r.line[i]
		heading := orbgeo.Bearing(a, b)
		if heading < 0 {
			heading += 360
		}
		p := orbgeo.PointAtBearingAndDistance(a, heading, traveled-r.cum[i-1])
		return FromOrb(p), heading
	}
	return r.End(), 0
}

// GeoJSON returns the route and, if given, the vehicle position as a feature collection.
func (r *Route) GeoJSON(vehicle *Point) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	line := geojson.NewFeature(r.line)
	line.Properties["name"] = "route"
	line.Properties["length_m"] = r.length
	fc.Append(line)

	if vehicle != nil {
		v := geojson.NewFeature(vehicle.Orb())
		v.Properties["name"] = "vehicle"
		fc.Append(v)
	}
	return fc
}
