// Package geo provides the land/water classification capability and the
// spherical distance and area helpers shared by the scoring and grid packages.
package geo

import "math"

// EarthRadiusKM is the mean Earth radius used for great-circle distances.
const EarthRadiusKM = 6371.0

// Approximate degree-to-kilometer conversion factors at mid-latitudes.
const (
	KMPerDegreeLat = 110.57
	KMPerDegreeLon = 111.32 // at the equator; scale by cos(lat)
)

// Haversine returns the great-circle distance in kilometers between two
// lat/lon points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKM * c
}

// BoundsAreaKM2 returns the approximate area of a lat/lon bounding box in
// km², accounting for meridian convergence at the box's mid-latitude.
func BoundsAreaKM2(minLat, minLon, maxLat, maxLon float64) float64 {
	latMid := (minLat + maxLat) / 2 * math.Pi / 180
	dLat := maxLat - minLat
	dLon := maxLon - minLon

	kx := 111132.92 - 559.82*math.Cos(2*latMid)
	ky := 111412.84 * math.Cos(latMid)

	return math.Abs(dLat*kx*dLon*ky) / 1e6
}
