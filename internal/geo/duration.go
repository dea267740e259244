package geo

import "math"

// averageSpeedKmh is the assumed average travel speed used for duration
// estimates. A deliberate constant with no configuration override.
const averageSpeedKmh = 40.0

// TripDuration estimates total trip time in hours: travel time at the assumed
// average speed plus the dwell time at each mid-stop. The first and last
// waypoints (pickup/drop) contribute no dwell time. Negative or NaN dwell
// values are treated as zero.
func TripDuration(distanceKm float64, waypoints []Waypoint) float64 {
	travelHours := distanceKm / averageSpeedKmh

	var stayHours float64
	for i, wp := range waypoints {
		if i == 0 || i == len(waypoints)-1 {
			continue
		}
		if math.IsNaN(wp.StayDurationHours) || wp.StayDurationHours < 0 {
			continue
		}
		stayHours += wp.StayDurationHours
	}

	return Round2(travelHours + stayHours)
}
