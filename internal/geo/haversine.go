// Package geo provides great-circle distance math for the allocation network.
package geo

import "math"

const earthRadiusKm = 6371

// DistanceKm returns the haversine great-circle distance between two
// coordinates, rounded to whole kilometers. The result is symmetric in its
// endpoints and zero when they coincide.
func DistanceKm(lat1, lon1, lat2, lon2 float64) int {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return int(math.Round(earthRadiusKm * c))
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
