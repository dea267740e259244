package geo

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrTooFewWaypoints is returned when a route has fewer than two points
	ErrTooFewWaypoints = errors.New("route requires at least two waypoints")
	// ErrInvalidCoordinate is returned for out-of-range latitude/longitude
	ErrInvalidCoordinate = errors.New("coordinate out of range")
)

// Waypoint is a geographic point on a trip route. The first and last points of
// a route are the pickup and drop; everything in between is a mid-stop.
// StayDurationHours is the planned dwell time at a mid-stop (0 for pickup/drop).
type Waypoint struct {
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	Name              string  `json:"name,omitempty"`
	StayDurationHours float64 `json:"stay_duration_hours,omitempty"`
}

// Validate checks the coordinate ranges
func (w Waypoint) Validate() error {
	if math.IsNaN(w.Latitude) || w.Latitude < -90 || w.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidCoordinate, w.Latitude)
	}
	if math.IsNaN(w.Longitude) || w.Longitude < -180 || w.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidCoordinate, w.Longitude)
	}
	return nil
}
