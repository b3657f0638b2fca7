//go:build !integration

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stationscout/siteval-cli/internal/geo"
	"github.com/stationscout/siteval-cli/internal/validation"
)

func TestParseBounds(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    geo.Bounds
		wantErr bool
	}{
		{
			name:  "valid",
			input: "30,129,46,146",
			want:  geo.Bounds{MinLat: 30, MinLon: 129, MaxLat: 46, MaxLon: 146},
		},
		{
			name:  "spaces and negatives",
			input: " -10.5, 95 , 23, 130.25 ",
			want:  geo.Bounds{MinLat: -10.5, MinLon: 95, MaxLat: 23, MaxLon: 130.25},
		},
		{name: "too few components", input: "30,129,46", wantErr: true},
		{name: "not a number", input: "30,abc,46,146", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBounds(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseResolutions(t *testing.T) {
	got, err := parseResolutions("3, 4,5")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4, 5}, got)

	_, err = parseResolutions("three")
	assert.Error(t, err)

	_, err = parseResolutions(", ,")
	assert.Error(t, err)
}

func TestParseTarget(t *testing.T) {
	for _, valid := range []string{"revenue", "profit", "margin"} {
		got, err := parseTarget(valid)
		require.NoError(t, err)
		assert.Equal(t, validation.TargetMetric(valid), got)
	}

	_, err := parseTarget("ebitda")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ebitda")
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$0", formatMoney(0))
	assert.Equal(t, "$950", formatMoney(950))
	assert.Equal(t, "$2,000,000", formatMoney(2_000_000))
	assert.Equal(t, "$12,345,678", formatMoney(12_345_678))
}

func TestLoadFeatureFile(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	t.Run("single object", func(t *testing.T) {
		features, err := loadFeatureFile(write("single.json", `{"population_density": 1200}`))
		require.NoError(t, err)
		require.Len(t, features, 1)
		require.NotNil(t, features[0].PopulationDensity)
		assert.Equal(t, 1200.0, *features[0].PopulationDensity)
	})

	t.Run("array", func(t *testing.T) {
		features, err := loadFeatureFile(write("batch.json",
			`[{"population_density": 100}, {"gdp_per_capita": 45000}]`))
		require.NoError(t, err)
		assert.Len(t, features, 2)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadFeatureFile(filepath.Join(dir, "nope.json"))
		assert.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := loadFeatureFile(write("bad.json", "{not json"))
		assert.Error(t, err)
	})
}
