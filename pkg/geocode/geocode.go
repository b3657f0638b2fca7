// Package geocode provides reverse geocoding for candidate sites: country,
// region band, and population category for a lat/lon. The default backend is
// a static bounding-box table; a rate-limited remote backend and a cascade
// that tries backends in order are also provided.
package geocode

import "context"

// Region bands. The split is latitude-based: equatorial inside the tropics,
// mid-latitude up to 55°, high-latitude beyond.
const (
	RegionEquatorial   = "equatorial"
	RegionMidLatitude  = "mid_latitude"
	RegionHighLatitude = "high_latitude"
)

// Population categories derived from distance to the nearest major city.
const (
	PopUrban    = "urban"
	PopSuburban = "suburban"
	PopRegional = "regional"
	PopRemote   = "remote"
)

// Info is the reverse-geocoding result for a point.
type Info struct {
	Country            string  `json:"country"`
	CountryCode        string  `json:"country_code"`
	Region             string  `json:"region"`
	PopulationCategory string  `json:"population_category"`
	NearestCity        string  `json:"nearest_city,omitempty"`
	CityDistanceKM     float64 `json:"city_distance_km,omitempty"`
}

// Geocoder resolves a coordinate to an Info. Implementations must be safe
// for concurrent use; grid generation calls Reverse from worker goroutines.
type Geocoder interface {
	Name() string
	Reverse(ctx context.Context, lat, lon float64) (*Info, error)
}
