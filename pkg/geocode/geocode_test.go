package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundingBoxGeocoder_Countries(t *testing.T) {
	g := NewBoundingBoxGeocoder()

	tests := []struct {
		name     string
		lat, lon float64
		country  string
		region   string
	}{
		{"tokyo", 35.68, 139.69, "Japan", RegionMidLatitude},
		{"singapore", 1.35, 103.82, "Singapore", RegionEquatorial},
		{"oslo", 59.91, 10.75, "Norway", RegionHighLatitude},
		{"sao paulo", -23.55, -46.63, "Brazil", RegionEquatorial},
		{"mid-pacific", 10.0, -150.0, "International Waters", RegionEquatorial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := g.Reverse(context.Background(), tt.lat, tt.lon)
			require.NoError(t, err)
			assert.Equal(t, tt.country, info.Country)
			assert.Equal(t, tt.region, info.Region)
		})
	}
}

func TestBoundingBoxGeocoder_PopulationCategories(t *testing.T) {
	g := NewBoundingBoxGeocoder()

	urban, err := g.Reverse(context.Background(), 51.51, -0.13) // central London
	require.NoError(t, err)
	assert.Equal(t, PopUrban, urban.PopulationCategory)
	assert.Equal(t, "London", urban.NearestCity)

	remote, err := g.Reverse(context.Background(), -25.0, 125.0) // outback
	require.NoError(t, err)
	assert.Equal(t, PopRemote, remote.PopulationCategory)
}

func TestRegionFor(t *testing.T) {
	assert.Equal(t, RegionEquatorial, RegionFor(0))
	assert.Equal(t, RegionEquatorial, RegionFor(-23.5))
	assert.Equal(t, RegionMidLatitude, RegionFor(40))
	assert.Equal(t, RegionMidLatitude, RegionFor(-54.9))
	assert.Equal(t, RegionHighLatitude, RegionFor(68))
}

func TestRemoteGeocoder_CachesQuantizedLookups(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(Info{Country: "Testland", CountryCode: "TL"})
	}))
	defer srv.Close()

	g := NewRemoteGeocoder(srv.URL, 100)

	a, err := g.Reverse(context.Background(), 40.0001, -100.0001)
	require.NoError(t, err)
	b, err := g.Reverse(context.Background(), 40.0002, -100.0002) // same quantized key
	require.NoError(t, err)

	assert.Equal(t, "Testland", a.Country)
	assert.Same(t, a, b)
	assert.Equal(t, int64(1), calls.Load())
	// Region is backfilled from latitude when the API omits it.
	assert.Equal(t, RegionMidLatitude, a.Region)
}

func TestCascade_FallsBackToBBox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewCascade(NewRemoteGeocoder(srv.URL, 100), NewBoundingBoxGeocoder())
	info, err := c.Reverse(context.Background(), 35.68, 139.69)
	require.NoError(t, err)
	assert.Equal(t, "Japan", info.Country)
}
