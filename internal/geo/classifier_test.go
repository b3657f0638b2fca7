package geo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

type classifierFunc func(lat, lon float64) (bool, error)

func (f classifierFunc) IsLand(lat, lon float64) (bool, error) { return f(lat, lon) }

var (
	allLand  = classifierFunc(func(lat, lon float64) (bool, error) { return true, nil })
	allWater = classifierFunc(func(lat, lon float64) (bool, error) { return false, nil })
)

func TestBoundsContains(t *testing.T) {
	b := Bounds{MinLat: 30, MinLon: 129, MaxLat: 46, MaxLon: 146}

	assert.True(t, b.Contains(35, 139))
	assert.True(t, b.Contains(30, 129), "edges are inclusive")
	assert.True(t, b.Contains(46, 146))
	assert.False(t, b.Contains(29.9, 139))
	assert.False(t, b.Contains(35, 146.1))
}

func TestCoverage(t *testing.T) {
	b := Bounds{MinLat: 0, MinLon: 0, MaxLat: 1, MaxLon: 1}

	assert.Equal(t, 100.0, Coverage(allLand, b, 4))
	assert.Equal(t, 0.0, Coverage(allWater, b, 4))

	// Land east of the 0.5 meridian: half of each lattice row on a 4x4 grid.
	half := classifierFunc(func(lat, lon float64) (bool, error) {
		return lon > 0.5, nil
	})
	assert.Equal(t, 50.0, Coverage(half, b, 4))
}

func TestCoverage_ErrorsCountAsWater(t *testing.T) {
	b := Bounds{MinLat: 0, MinLon: 0, MaxLat: 1, MaxLon: 1}
	failing := classifierFunc(func(lat, lon float64) (bool, error) {
		return true, errors.New("index unavailable")
	})

	assert.Equal(t, 0.0, Coverage(failing, b, 4))
}

func TestCoverage_DensityFloor(t *testing.T) {
	b := Bounds{MinLat: 0, MinLon: 0, MaxLat: 1, MaxLon: 1}
	// density below 2 would divide by zero on the step; it gets clamped.
	assert.Equal(t, 100.0, Coverage(allLand, b, 0))
}

func TestIsCoastal(t *testing.T) {
	// Land west of the meridian, water east: a point just inside the land
	// edge is coastal, a point far inland is not.
	coast := classifierFunc(func(lat, lon float64) (bool, error) {
		return lon < 0, nil
	})

	assert.True(t, IsCoastal(coast, 0, -0.05))
	assert.False(t, IsCoastal(coast, 0, -5.0))
	assert.False(t, IsCoastal(coast, 0, 1.0), "water points are never coastal")
	assert.False(t, IsCoastal(allLand, 0, 0))
}

func TestIsCoastal_ErrorIsNotCoastal(t *testing.T) {
	failing := classifierFunc(func(lat, lon float64) (bool, error) {
		return false, errors.New("boom")
	})
	assert.False(t, IsCoastal(failing, 35, 139))
}

func squarePolygon(t *testing.T, minX, minY, maxX, maxY float64) *geom.Polygon {
	t.Helper()
	poly, err := geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}})
	require.NoError(t, err)
	return poly
}

func TestPolygonClassifier(t *testing.T) {
	// 2x2 degree landmass centered on the origin.
	c := NewPolygonClassifier([]*geom.Polygon{squarePolygon(t, -1, -1, 1, 1)})

	land, err := c.IsLand(0, 0)
	require.NoError(t, err)
	assert.True(t, land)

	land, err = c.IsLand(0, 1.5)
	require.NoError(t, err)
	assert.False(t, land)

	// Far outside the polygon's bounding box: fast rejection path.
	land, err = c.IsLand(45, 90)
	require.NoError(t, err)
	assert.False(t, land)
}

func TestPolygonClassifier_Hole(t *testing.T) {
	poly, err := geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{
		{{-2, -2}, {2, -2}, {2, 2}, {-2, 2}, {-2, -2}},
		{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}, {-1, -1}}, // inland lake
	})
	require.NoError(t, err)
	c := NewPolygonClassifier([]*geom.Polygon{poly})

	land, err := c.IsLand(0, 1.5)
	require.NoError(t, err)
	assert.True(t, land)

	land, err = c.IsLand(0, 0)
	require.NoError(t, err)
	assert.False(t, land, "points inside a hole are water")
}

func TestMemoClassifier(t *testing.T) {
	calls := 0
	counting := classifierFunc(func(lat, lon float64) (bool, error) {
		calls++
		return true, nil
	})
	m := NewMemoClassifier(counting, 10)

	land, err := m.IsLand(35.5, 139.5)
	require.NoError(t, err)
	assert.True(t, land)
	assert.Equal(t, 1, calls)

	// Same quantized cell: served from cache.
	land, err = m.IsLand(35.5001, 139.5001)
	require.NoError(t, err)
	assert.True(t, land)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, m.Size())

	// Different cell: one more inner call.
	_, err = m.IsLand(36.0, 140.0)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestMemoClassifier_ErrorsNotCached(t *testing.T) {
	calls := 0
	flaky := classifierFunc(func(lat, lon float64) (bool, error) {
		calls++
		if calls == 1 {
			return false, errors.New("transient")
		}
		return true, nil
	})
	m := NewMemoClassifier(flaky, 10)

	_, err := m.IsLand(10, 10)
	require.Error(t, err)

	land, err := m.IsLand(10, 10)
	require.NoError(t, err)
	assert.True(t, land)
	assert.Equal(t, 2, calls)
}

func TestMemoClassifier_ResetAtCapacity(t *testing.T) {
	m := NewMemoClassifier(allLand, 3)

	for i := 0; i < 3; i++ {
		_, err := m.IsLand(float64(i), 0)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, m.Size())

	_, err := m.IsLand(50, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Size(), "cache resets once full")
}

func TestHaversine(t *testing.T) {
	// Tokyo to Osaka, roughly 400km.
	d := Haversine(35.6762, 139.6503, 34.6937, 135.5023)
	assert.InDelta(t, 400, d, 10)

	assert.Zero(t, Haversine(35, 139, 35, 139))

	// One degree of latitude is about 111km anywhere.
	assert.InDelta(t, 111.2, Haversine(0, 0, 1, 0), 0.5)
}

func TestBoundsAreaKM2(t *testing.T) {
	// A 1x1 degree box at the equator is about 111 * 111 km.
	assert.InDelta(t, 12350, BoundsAreaKM2(0, 0, 1, 1), 150)

	// The same box at 60°N covers roughly half the area.
	atSixty := BoundsAreaKM2(59.5, 0, 60.5, 1)
	assert.Less(t, atSixty, 7000.0)
	assert.Greater(t, atSixty, 5500.0)
}
