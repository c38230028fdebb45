// Package geo provides haversine distance and the district centroid
// reference data used to backfill listings that lack coordinates.
package geo

import "math"

// EarthRadiusKm is the mean radius of Earth used for Haversine distance.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometers between two
// points specified by latitude and longitude in degrees. Non-finite inputs
// yield +Inf so callers can treat bad coordinates as "beyond any radius".
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	for _, v := range [4]float64{lat1, lon1, lat2, lon2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return math.Inf(1)
		}
	}

	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	d := EarthRadiusKm * c
	if math.IsNaN(d) {
		return math.Inf(1)
	}
	return d
}

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
