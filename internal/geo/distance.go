package geo

import "math"

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometers between two
// coordinates. Straight-line approximation, no road-network routing.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180.0)*math.Cos(lat2*math.Pi/180.0)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// RouteDistance sums the haversine distance over each consecutive pair of
// waypoints: pickup -> mid-stops (in order) -> drop. The result is rounded to
// 2 decimal places.
func RouteDistance(waypoints []Waypoint) (float64, error) {
	if len(waypoints) < 2 {
		return 0, ErrTooFewWaypoints
	}

	for _, wp := range waypoints {
		if err := wp.Validate(); err != nil {
			return 0, err
		}
	}

	var total float64
	for i := 0; i < len(waypoints)-1; i++ {
		a, b := waypoints[i], waypoints[i+1]
		total += Haversine(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
	}

	return Round2(total), nil
}

// Round2 rounds to 2 decimal places using half-up rounding
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
