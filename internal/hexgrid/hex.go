// Package hexgrid generates and scores land-filtered hexagonal candidate
// grids over a geographic region.
package hexgrid

import (
	"fmt"
	"math"

	"github.com/twpayne/go-geom"

	"github.com/stationscout/siteval-cli/internal/geo"
)

// Resolution bounds of the hierarchical hex index.
const (
	MinResolution = 0
	MaxResolution = 6
)

// edgeKM is the hex edge length per resolution. Each step roughly halves the
// cell diameter, so finer cells nest (approximately) inside coarser ones.
var edgeKM = [MaxResolution + 1]float64{420, 158, 59, 22, 8.3, 3.1, 1.2}

// EdgeKM returns the hex edge length in kilometers for a resolution.
func EdgeKM(res int) float64 { return edgeKM[res] }

// ValidResolution reports whether res is within the supported range.
func ValidResolution(res int) bool {
	return res >= MinResolution && res <= MaxResolution
}

// Cell identifies one hexagon: axial coordinates at a resolution. The
// planar frame is an equirectangular projection (km east of the prime
// meridian at equator scale, km north of the equator), which keeps the index
// globally consistent: the same lat/lon always maps to the same cell.
type Cell struct {
	Res int
	Q   int
	R   int
}

// ID returns the canonical string id, unique per resolution.
func (c Cell) ID() string {
	return fmt.Sprintf("h%d:%d:%d", c.Res, c.Q, c.R)
}

const sqrt3 = 1.7320508075688772

// CellAt maps a lat/lon to its containing cell at the given resolution.
func CellAt(lat, lon float64, res int) Cell {
	s := edgeKM[res]
	x := lon * geo.KMPerDegreeLon
	y := lat * geo.KMPerDegreeLat

	// Pointy-top axial coordinates with cube rounding.
	qf := (sqrt3/3*x - y/3) / s
	rf := (2.0 / 3 * y) / s
	q, r := roundAxial(qf, rf)
	return Cell{Res: res, Q: q, R: r}
}

// Center returns the cell's center lat/lon.
func (c Cell) Center() (lat, lon float64) {
	s := edgeKM[c.Res]
	x := s * (sqrt3*float64(c.Q) + sqrt3/2*float64(c.R))
	y := s * 1.5 * float64(c.R)
	return y / geo.KMPerDegreeLat, x / geo.KMPerDegreeLon
}

// Boundary returns the cell's six-vertex boundary as a closed go-geom
// polygon in lon/lat order (SRID 4326).
func (c Cell) Boundary() *geom.Polygon {
	s := edgeKM[c.Res]
	cLat, cLon := c.Center()
	cx := cLon * geo.KMPerDegreeLon
	cy := cLat * geo.KMPerDegreeLat

	flat := make([]float64, 0, 14)
	for k := 0; k < 6; k++ {
		angle := math.Pi / 180 * (60*float64(k) + 30)
		vx := cx + s*math.Cos(angle)
		vy := cy + s*math.Sin(angle)
		flat = append(flat, vx/geo.KMPerDegreeLon, vy/geo.KMPerDegreeLat)
	}
	// Close the ring.
	flat = append(flat, flat[0], flat[1])

	return geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)}).SetSRID(4326)
}

// BoundaryRing returns the boundary as a closed [lat, lon] vertex ring:
// six corners plus the first repeated, ready for map layers that cannot
// consume go-geom types.
func (c Cell) BoundaryRing() [][2]float64 {
	flat := c.Boundary().FlatCoords()
	ring := make([][2]float64, 0, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		ring = append(ring, [2]float64{flat[i+1], flat[i]})
	}
	return ring
}

// BoundingBox returns the cell boundary's lat/lon bounding box.
func (c Cell) BoundingBox() geo.Bounds {
	b := c.Boundary().Bounds()
	return geo.Bounds{
		MinLat: b.Min(1), MinLon: b.Min(0),
		MaxLat: b.Max(1), MaxLon: b.Max(0),
	}
}

// AreaKM2 returns the cell's approximate ground area. The planar hex area
// 3√3/2·s² shrinks east-west by cos(latitude) in the equirectangular frame.
func (c Cell) AreaKM2() float64 {
	lat, _ := c.Center()
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 0.05 {
		cosLat = 0.05
	}
	s := edgeKM[c.Res]
	return 3 * sqrt3 / 2 * s * s * cosLat
}

// roundAxial rounds fractional axial coordinates to the nearest hex using
// cube rounding.
func roundAxial(qf, rf float64) (int, int) {
	sf := -qf - rf

	q := math.Round(qf)
	r := math.Round(rf)
	s := math.Round(sf)

	dq := math.Abs(q - qf)
	dr := math.Abs(r - rf)
	ds := math.Abs(s - sf)

	switch {
	case dq > dr && dq > ds:
		q = -r - s
	case dr > ds:
		r = -q - s
	}
	return int(q), int(r)
}
