package hexgrid

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stationscout/siteval-cli/internal/geo"
	"github.com/stationscout/siteval-cli/internal/registry"
	"github.com/stationscout/siteval-cli/pkg/geocode"
)

type classifierFunc func(lat, lon float64) (bool, error)

func (f classifierFunc) IsLand(lat, lon float64) (bool, error) { return f(lat, lon) }

func allLand(float64, float64) (bool, error)  { return true, nil }
func allWater(float64, float64) (bool, error) { return false, nil }

var kantoBounds = geo.Bounds{MinLat: 35, MinLon: 139, MaxLat: 36, MaxLon: 140}

func newTestGenerator(c classifierFunc, competitors []registry.Competitor) *Generator {
	return NewGenerator(c, geocode.NewBoundingBoxGeocoder(),
		registry.NewMemoryRegistry(competitors), 4)
}

func TestGenerate_AcceptsLandCells(t *testing.T) {
	g := newTestGenerator(allLand, nil)

	grid, err := g.Generate(context.Background(), Options{
		Resolutions:     []int{4},
		Bounds:          kantoBounds,
		MinLandCoverage: 50,
	})
	require.NoError(t, err)
	require.NotEmpty(t, grid[4])

	seen := make(map[string]bool)
	for _, o := range grid[4] {
		assert.False(t, seen[o.CellID], "duplicate cell %s", o.CellID)
		seen[o.CellID] = true
		assert.GreaterOrEqual(t, o.LandCoverage, 50.0)
		assert.Equal(t, 4, o.Resolution)
		assert.Equal(t, "JP", o.CountryCode)
		assert.GreaterOrEqual(t, o.OverallScore, 0)
		assert.LessOrEqual(t, o.OverallScore, 100)
		assert.Positive(t, o.Economics.InvestmentUSD)
	}
}

func TestGenerate_NoCompetitorsStaysSerializable(t *testing.T) {
	// The default wiring runs without any competitor source; the resulting
	// grid must still encode cleanly for the store, the API, and exports.
	g := newTestGenerator(allLand, nil)

	grid, err := g.Generate(context.Background(), Options{
		Resolutions:           []int{4},
		Bounds:                kantoBounds,
		MaxCellsPerResolution: 5,
	})
	require.NoError(t, err)
	require.NotEmpty(t, grid[4])

	for _, o := range grid[4] {
		assert.EqualValues(t, registry.NoCompetitor, o.Competition.NearestKM)
		assert.Equal(t, 100.0, o.Scores.Competition)
	}

	data, err := json.Marshal(grid)
	require.NoError(t, err, "grid with no competitors must marshal")

	var decoded map[string][]Opportunity
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded["4"], len(grid[4]))
	ring := decoded["4"][0].Boundary
	require.Len(t, ring, 7, "boundary ring survives the wire")
	assert.Equal(t, ring[0], ring[6])
}

func TestGenerate_SortedByScoreDescending(t *testing.T) {
	g := newTestGenerator(allLand, nil)

	grid, err := g.Generate(context.Background(), Options{
		Resolutions: []int{4},
		Bounds:      kantoBounds,
	})
	require.NoError(t, err)
	cells := grid[4]
	for i := 1; i < len(cells); i++ {
		assert.GreaterOrEqual(t, cells[i-1].OverallScore, cells[i].OverallScore)
	}
}

func TestGenerate_AllWaterYieldsNothing(t *testing.T) {
	g := newTestGenerator(allWater, nil)

	grid, err := g.Generate(context.Background(), Options{
		Resolutions:     []int{4},
		Bounds:          kantoBounds,
		MinLandCoverage: 30,
	})
	require.NoError(t, err)
	assert.Empty(t, grid[4])
}

func TestGenerate_ClassifierErrorsFailClosed(t *testing.T) {
	g := newTestGenerator(func(float64, float64) (bool, error) {
		return true, assert.AnError
	}, nil)

	grid, err := g.Generate(context.Background(), Options{
		Resolutions:     []int{4},
		Bounds:          kantoBounds,
		MinLandCoverage: 30,
	})
	require.NoError(t, err)
	assert.Empty(t, grid[4], "unclassifiable cells must be excluded, not assumed land")
}

func TestGenerate_HonorsCap(t *testing.T) {
	g := newTestGenerator(allLand, nil)

	grid, err := g.Generate(context.Background(), Options{
		Resolutions:           []int{4},
		Bounds:                kantoBounds,
		MaxCellsPerResolution: 3,
	})
	require.NoError(t, err)
	assert.Len(t, grid[4], 3)
}

func TestGenerate_Deterministic(t *testing.T) {
	opts := Options{
		Resolutions:     []int{3, 4},
		Bounds:          kantoBounds,
		MinLandCoverage: 40,
	}
	g := newTestGenerator(allLand, []registry.Competitor{
		{ID: "gs-1", Lat: 35.7, Lon: 139.7},
	})

	first, err := g.Generate(context.Background(), opts)
	require.NoError(t, err)
	second, err := g.Generate(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerate_CoastalOnly(t *testing.T) {
	// Land west of 139.5°E only, so cells near that meridian are coastal.
	coast := classifierFunc(func(_, lon float64) (bool, error) {
		return lon < 139.5, nil
	})
	g := newTestGenerator(coast, nil)

	grid, err := g.Generate(context.Background(), Options{
		Resolutions:     []int{4},
		Bounds:          kantoBounds,
		MinLandCoverage: 50,
		CoastalOnly:     true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, grid[4])
	for _, o := range grid[4] {
		assert.True(t, o.Coastal)
	}

	// The same run without the filter keeps inland cells too.
	full, err := g.Generate(context.Background(), Options{
		Resolutions:     []int{4},
		Bounds:          kantoBounds,
		MinLandCoverage: 50,
	})
	require.NoError(t, err)
	assert.Greater(t, len(full[4]), len(grid[4]))
}

func TestGenerate_CompetitorProximityLowersScore(t *testing.T) {
	opts := Options{Resolutions: []int{4}, Bounds: kantoBounds}

	quiet, err := newTestGenerator(allLand, nil).Generate(context.Background(), opts)
	require.NoError(t, err)

	// A competitor stack in the middle of the box.
	crowded, err := newTestGenerator(allLand, []registry.Competitor{
		{ID: "a", Lat: 35.5, Lon: 139.5},
		{ID: "b", Lat: 35.51, Lon: 139.5},
		{ID: "c", Lat: 35.5, Lon: 139.51},
	}).Generate(context.Background(), opts)
	require.NoError(t, err)

	center := CellAt(35.5, 139.5, 4).ID()
	var quietScore, crowdedScore float64
	for _, o := range quiet[4] {
		if o.CellID == center {
			quietScore = o.Scores.Competition
		}
	}
	for _, o := range crowded[4] {
		if o.CellID == center {
			crowdedScore = o.Scores.Competition
		}
	}
	require.NotZero(t, quietScore)
	assert.Equal(t, 100.0, quietScore)
	assert.Less(t, crowdedScore, quietScore)
}

func TestGenerate_RejectsBadOptions(t *testing.T) {
	g := newTestGenerator(allLand, nil)
	ctx := context.Background()

	_, err := g.Generate(ctx, Options{Bounds: kantoBounds})
	assert.Error(t, err, "no resolutions")

	_, err = g.Generate(ctx, Options{Resolutions: []int{99}, Bounds: kantoBounds})
	assert.Error(t, err, "resolution out of range")

	_, err = g.Generate(ctx, Options{
		Resolutions: []int{4},
		Bounds:      geo.Bounds{MinLat: 36, MinLon: 139, MaxLat: 35, MaxLon: 140},
	})
	assert.Error(t, err, "inverted bounds")

	_, err = g.Generate(ctx, Options{
		Resolutions:     []int{4},
		Bounds:          kantoBounds,
		MinLandCoverage: 120,
	})
	assert.Error(t, err, "coverage above 100")
}

func TestGenerate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := newTestGenerator(allLand, nil)
	_, err := g.Generate(ctx, Options{Resolutions: []int{4}, Bounds: kantoBounds})
	assert.ErrorIs(t, err, context.Canceled)
}
