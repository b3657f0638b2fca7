package geocode

import (
	"context"
	"math"
)

// countryBox is a coarse country bounding box. Boxes overlap at borders; the
// first match in table order wins, so smaller countries precede the large
// ones that would swallow them.
type countryBox struct {
	name                   string
	code                   string
	minLat, minLon, maxLat, maxLon float64
}

var countryBoxes = []countryBox{
	{"Japan", "JP", 30.0, 129.0, 45.5, 146.0},
	{"South Korea", "KR", 33.0, 125.0, 38.7, 130.0},
	{"United Kingdom", "GB", 49.9, -8.2, 60.9, 1.8},
	{"Ireland", "IE", 51.4, -10.5, 55.4, -5.9},
	{"Portugal", "PT", 36.9, -9.6, 42.2, -6.2},
	{"Spain", "ES", 36.0, -9.3, 43.8, 3.3},
	{"France", "FR", 42.3, -5.1, 51.1, 8.2},
	{"Germany", "DE", 47.3, 5.9, 55.1, 15.0},
	{"Italy", "IT", 36.6, 6.6, 47.1, 18.5},
	{"Norway", "NO", 58.0, 4.6, 71.2, 31.1},
	{"Sweden", "SE", 55.3, 11.1, 69.1, 24.2},
	{"Finland", "FI", 59.8, 20.5, 70.1, 31.6},
	{"Iceland", "IS", 63.4, -24.5, 66.6, -13.5},
	{"Greece", "GR", 34.8, 19.4, 41.8, 28.3},
	{"Turkey", "TR", 36.0, 26.0, 42.1, 44.8},
	{"Egypt", "EG", 22.0, 24.7, 31.7, 36.9},
	{"South Africa", "ZA", -34.8, 16.5, -22.1, 32.9},
	{"Kenya", "KE", -4.7, 33.9, 5.5, 41.9},
	{"Nigeria", "NG", 4.3, 2.7, 13.9, 14.7},
	{"India", "IN", 8.1, 68.1, 35.5, 97.4},
	{"Singapore", "SG", 1.2, 103.6, 1.5, 104.0},
	{"Indonesia", "ID", -11.0, 95.0, 6.1, 141.0},
	{"Thailand", "TH", 5.6, 97.3, 20.5, 105.6},
	{"Vietnam", "VN", 8.6, 102.1, 23.4, 109.5},
	{"Philippines", "PH", 4.6, 116.9, 21.1, 126.6},
	{"Bangladesh", "BD", 20.7, 88.0, 26.6, 92.7},
	{"Chile", "CL", -55.9, -75.6, -17.5, -66.4},
	{"Argentina", "AR", -55.1, -73.6, -21.8, -53.6},
	{"Brazil", "BR", -33.8, -73.9, 5.3, -34.8},
	{"Mexico", "MX", 14.5, -118.4, 32.7, -86.7},
	{"Canada", "CA", 41.7, -141.0, 83.1, -52.6},
	{"United States", "US", 24.5, -125.0, 49.4, -66.9},
	{"Australia", "AU", -43.6, 113.3, -10.7, 153.6},
	{"New Zealand", "NZ", -47.3, 166.5, -34.4, 178.5},
	{"Russia", "RU", 41.2, 27.3, 77.7, 180.0},
	{"China", "CN", 18.2, 73.5, 53.6, 134.8},
}

// majorCity anchors population-category tiering.
type majorCity struct {
	name     string
	lat, lon float64
}

var majorCities = []majorCity{
	{"Tokyo", 35.68, 139.69},
	{"Seoul", 37.57, 126.98},
	{"Singapore", 1.35, 103.82},
	{"Mumbai", 19.08, 72.88},
	{"Dhaka", 23.81, 90.41},
	{"Jakarta", -6.21, 106.85},
	{"Sydney", -33.87, 151.21},
	{"Auckland", -36.85, 174.76},
	{"London", 51.51, -0.13},
	{"Paris", 48.86, 2.35},
	{"Berlin", 52.52, 13.41},
	{"Madrid", 40.42, -3.70},
	{"Rome", 41.90, 12.50},
	{"Oslo", 59.91, 10.75},
	{"Stockholm", 59.33, 18.07},
	{"Helsinki", 60.17, 24.94},
	{"Reykjavik", 64.15, -21.94},
	{"Istanbul", 41.01, 28.98},
	{"Cairo", 30.04, 31.24},
	{"Lagos", 6.52, 3.38},
	{"Nairobi", -1.29, 36.82},
	{"Johannesburg", -26.20, 28.05},
	{"São Paulo", -23.55, -46.63},
	{"Buenos Aires", -34.60, -58.38},
	{"Santiago", -33.45, -70.67},
	{"Mexico City", 19.43, -99.13},
	{"New York", 40.71, -74.01},
	{"Los Angeles", 34.05, -118.24},
	{"Chicago", 41.88, -87.63},
	{"Toronto", 43.65, -79.38},
	{"Moscow", 55.76, 37.62},
	{"Beijing", 39.90, 116.41},
	{"Shanghai", 31.23, 121.47},
}

// Population-category distance tiers (kilometers to nearest major city).
const (
	urbanRadiusKM    = 50.0
	suburbanRadiusKM = 200.0
	regionalRadiusKM = 500.0
)

// Region band latitude cuts.
const (
	tropicLat       = 23.5
	highLatitudeCut = 55.0
)

// BoundingBoxGeocoder resolves coordinates against static country and city
// tables. It is pure, allocation-light, and never fails, which makes it the
// default backend for the parallel grid phase.
type BoundingBoxGeocoder struct{}

// NewBoundingBoxGeocoder returns the static-table geocoder.
func NewBoundingBoxGeocoder() *BoundingBoxGeocoder { return &BoundingBoxGeocoder{} }

// Name implements Geocoder.
func (g *BoundingBoxGeocoder) Name() string { return "bbox" }

// Reverse implements Geocoder. Points matching no country box return
// Country "International Waters" with an empty code.
func (g *BoundingBoxGeocoder) Reverse(_ context.Context, lat, lon float64) (*Info, error) {
	info := &Info{
		Country: "International Waters",
		Region:  RegionFor(lat),
	}
	for _, box := range countryBoxes {
		if lat >= box.minLat && lat <= box.maxLat && lon >= box.minLon && lon <= box.maxLon {
			info.Country = box.name
			info.CountryCode = box.code
			break
		}
	}

	city, dist := nearestCity(lat, lon)
	info.NearestCity = city
	info.CityDistanceKM = dist
	info.PopulationCategory = popCategory(dist)
	return info, nil
}

// RegionFor returns the latitude band for a point.
func RegionFor(lat float64) string {
	abs := math.Abs(lat)
	switch {
	case abs <= tropicLat:
		return RegionEquatorial
	case abs <= highLatitudeCut:
		return RegionMidLatitude
	default:
		return RegionHighLatitude
	}
}

func popCategory(cityDistKM float64) string {
	switch {
	case cityDistKM <= urbanRadiusKM:
		return PopUrban
	case cityDistKM <= suburbanRadiusKM:
		return PopSuburban
	case cityDistKM <= regionalRadiusKM:
		return PopRegional
	default:
		return PopRemote
	}
}

func nearestCity(lat, lon float64) (string, float64) {
	best := ""
	bestDist := math.MaxFloat64
	for _, c := range majorCities {
		d := haversineKM(lat, lon, c.lat, c.lon)
		if d < bestDist {
			bestDist = d
			best = c.name
		}
	}
	return best, bestDist
}

// haversineKM is duplicated here rather than imported so pkg/geocode stays
// dependency-free for external reuse.
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKM = 6371.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}
