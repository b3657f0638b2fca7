package geo

import (
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// LandClassifier reports whether a coordinate is on land. Implementations
// must be pure lookups from the caller's perspective: grid generation calls
// them from multiple goroutines and requires deterministic answers.
type LandClassifier interface {
	// IsLand returns true when the point is classified as land. Errors are
	// treated fail-closed by callers: an unclassifiable point is not land.
	IsLand(lat, lon float64) (bool, error)
}

// Bounds is a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat" yaml:"min_lat"`
	MinLon float64 `json:"min_lon" yaml:"min_lon"`
	MaxLat float64 `json:"max_lat" yaml:"max_lat"`
	MaxLon float64 `json:"max_lon" yaml:"max_lon"`
}

// Contains reports whether the point lies inside the bounds.
func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Coverage samples a bounding box on a density×density lattice against the
// classifier and returns the land percentage in [0,100]. Lookup failures
// count as water (fail-closed).
func Coverage(c LandClassifier, b Bounds, density int) float64 {
	if density < 2 {
		density = 2
	}
	total := density * density
	hits := 0
	latStep := (b.MaxLat - b.MinLat) / float64(density-1)
	lonStep := (b.MaxLon - b.MinLon) / float64(density-1)
	for i := 0; i < density; i++ {
		for j := 0; j < density; j++ {
			lat := b.MinLat + float64(i)*latStep
			lon := b.MinLon + float64(j)*lonStep
			land, err := c.IsLand(lat, lon)
			if err != nil {
				continue
			}
			if land {
				hits++
			}
		}
	}
	return float64(hits) / float64(total) * 100
}

// coastalProbeKM is the ring radius used to detect a land/water transition.
const coastalProbeKM = 12.0

// IsCoastal reports whether a land point sits near a land/water boundary:
// the point itself is land and at least one of eight ring probes is water.
func IsCoastal(c LandClassifier, lat, lon float64) bool {
	land, err := c.IsLand(lat, lon)
	if err != nil || !land {
		return false
	}
	dLat := coastalProbeKM / KMPerDegreeLat
	dLon := coastalProbeKM / (KMPerDegreeLon * cosDeg(lat))
	offsets := [8][2]float64{
		{dLat, 0}, {-dLat, 0}, {0, dLon}, {0, -dLon},
		{dLat, dLon}, {dLat, -dLon}, {-dLat, dLon}, {-dLat, -dLon},
	}
	for _, off := range offsets {
		probe, err := c.IsLand(lat+off[0], lon+off[1])
		if err != nil {
			continue
		}
		if !probe {
			return true
		}
	}
	return false
}

// PolygonClassifier classifies points against an in-memory set of land
// polygons. It is pure and safe for concurrent use after construction.
type PolygonClassifier struct {
	polygons []*geom.Polygon
	bounds   []Bounds // per-polygon bounding boxes for fast rejection
}

// NewPolygonClassifier builds a classifier over the given land polygons.
func NewPolygonClassifier(polygons []*geom.Polygon) *PolygonClassifier {
	c := &PolygonClassifier{polygons: polygons}
	for _, p := range polygons {
		b := p.Bounds()
		c.bounds = append(c.bounds, Bounds{
			MinLat: b.Min(1), MinLon: b.Min(0),
			MaxLat: b.Max(1), MaxLon: b.Max(0),
		})
	}
	return c
}

// IsLand implements LandClassifier. A point is land when it falls inside any
// polygon's outer ring and none of that polygon's holes.
func (c *PolygonClassifier) IsLand(lat, lon float64) (bool, error) {
	pt := geom.Coord{lon, lat}
	for i, poly := range c.polygons {
		if !c.bounds[i].Contains(lat, lon) {
			continue
		}
		if polygonContains(poly, pt) {
			return true, nil
		}
	}
	return false, nil
}

func polygonContains(poly *geom.Polygon, pt geom.Coord) bool {
	if poly.NumLinearRings() == 0 {
		return false
	}
	outer := poly.LinearRing(0)
	if !xy.IsPointInRing(poly.Layout(), pt, outer.FlatCoords()) {
		return false
	}
	for i := 1; i < poly.NumLinearRings(); i++ {
		if xy.IsPointInRing(poly.Layout(), pt, poly.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}

func cosDeg(deg float64) float64 {
	c := math.Cos(deg * math.Pi / 180)
	if c < 0.05 {
		return 0.05 // avoid blow-up at the poles
	}
	return c
}
