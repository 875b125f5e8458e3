package track

import "math"

// distanceNM calculates the distance between two points in nautical miles
func distanceNM(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 3440.065 // Earth's radius in nautical miles
	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	dlat := lat2Rad - lat1Rad
	dlon := lon2Rad - lon1Rad

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return R * c
}

// PathDistanceNM returns the great-circle distance flown along the track,
// summed over consecutive samples, in nautical miles.
func PathDistanceNM(t Track) float64 {
	total := 0.0
	for i := 1; i < len(t); i++ {
		total += distanceNM(t[i-1].Lat, t[i-1].Lon, t[i].Lat, t[i].Lon)
	}
	return total
}
