package geo

import (
	"strconv"
	"time"
)

// Location is a timestamped fix of the simulated vehicle.
type Location struct {
	Time    time.Time `json:"time"`
	Point   Point     `json:"point"`
	Heading float64   `json:"heading"`
}

// LocationString renders a fix for the map surface overlay.
func LocationString(l *Location) string {
	if l == nil {
		return "unknown"
	}
	return "time: " + strconv.FormatInt(l.Time.UnixMilli(), 10) +
		" lat: " + strconv.FormatFloat(l.Point.Lat, 'f', -1, 64) +
		" lng: " + strconv.FormatFloat(l.Point.Lon, 'f', -1, 64)
}
