package hexgrid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stationscout/siteval-cli/internal/registry"
	"github.com/stationscout/siteval-cli/pkg/geocode"
)

func TestOverall_FixedWeights(t *testing.T) {
	tests := []struct {
		name   string
		scores SubScores
		want   int
	}{
		{"all max", SubScores{100, 100, 100, 100, 100, 100}, 100},
		{"all zero", SubScores{}, 0},
		{"market only", SubScores{Market: 100}, 25},
		{"competition only", SubScores{Competition: 100}, 20},
		{"accessibility only", SubScores{Accessibility: 100}, 10},
		{"rounding", SubScores{Market: 50, Competition: 50, Weather: 50, Coverage: 50, Terrain: 50, Accessibility: 50}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scores.Overall())
		})
	}
}

func TestCompetitionScore(t *testing.T) {
	tests := []struct {
		name  string
		stats registry.DistanceStats
		want  float64
	}{
		{"no competitors anywhere", registry.DistanceStats{NearestKM: registry.NoCompetitor}, 100},
		{"nearest beyond 100km", registry.DistanceStats{NearestKM: 250}, 100},
		{"nearest at 50km", registry.DistanceStats{NearestKM: 50}, 90},
		{"nearest at 10km", registry.DistanceStats{NearestKM: 10, CountWithin25: 1}, 80},
		{"one competitor on top", registry.DistanceStats{NearestKM: 2, CountWithin5: 1}, 45},
		{"crowded cell hits floor", registry.DistanceStats{NearestKM: 1, CountWithin5: 5}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, competitionScore(tt.stats), 1e-9)
		})
	}
}

func TestWeatherScore_Regions(t *testing.T) {
	// Sahara: mid-band bonus plus desert bonus.
	assert.InDelta(t, 95, weatherScore(25, 10), 1e-9)
	// Singapore: tropical penalty plus Southeast Asia monsoon penalty.
	assert.InDelta(t, 40, weatherScore(1.35, 103.8), 1e-9)
	// Svalbard: polar penalty.
	assert.InDelta(t, 55, weatherScore(78, 15), 1e-9)
	// Madrid: clean temperate-band bonus.
	assert.InDelta(t, 75, weatherScore(40.4, -3.7), 1e-9)
	// Tokyo: clean subtropical-band bonus.
	assert.InDelta(t, 80, weatherScore(35.7, 139.7), 1e-9)
}

func TestCoverageScore_LatitudeBands(t *testing.T) {
	assert.InDelta(t, 90, coverageScore(0), 1e-9)
	assert.InDelta(t, 50, coverageScore(40), 1e-9)
	assert.InDelta(t, 35, coverageScore(-55), 1e-9)
	// Beyond GEO visibility the LEO band takes over.
	assert.InDelta(t, 45, coverageScore(70), 1e-9)
	// Floor at the pole.
	assert.InDelta(t, 25, coverageScore(90), 1e-9)
}

func TestTerrainScore(t *testing.T) {
	// Plain inland site.
	assert.InDelta(t, 60, terrainScore(50, -1, false), 1e-9)
	// Coastal bonus.
	assert.InDelta(t, 75, terrainScore(50, -1, true), 1e-9)
	// Himalaya penalty.
	assert.InDelta(t, 35, terrainScore(30, 85, false), 1e-9)
	// Ganges delta flood penalty.
	assert.InDelta(t, 45, terrainScore(24, 90, false), 1e-9)
}

func TestAccessibilityScore(t *testing.T) {
	urban := &geocode.Info{PopulationCategory: geocode.PopUrban}
	remote := &geocode.Info{PopulationCategory: geocode.PopRemote}

	assert.InDelta(t, 90, accessibilityScore(urban, false, 45), 1e-9)
	assert.InDelta(t, 95, accessibilityScore(urban, true, 45), 1e-9)
	assert.InDelta(t, 35, accessibilityScore(remote, false, 45), 1e-9)
	// Extreme latitude penalty.
	assert.InDelta(t, 20, accessibilityScore(remote, false, 68), 1e-9)
}

func TestMarketScore(t *testing.T) {
	tests := []struct {
		name string
		info geocode.Info
		want float64
	}{
		{"urban high income", geocode.Info{PopulationCategory: geocode.PopUrban, CountryCode: "JP"}, 100},
		{"urban upper middle", geocode.Info{PopulationCategory: geocode.PopUrban, CountryCode: "BR"}, 90},
		{"remote unlisted country", geocode.Info{PopulationCategory: geocode.PopRemote, CountryCode: "TD"}, 50},
		{"suburban high income", geocode.Info{PopulationCategory: geocode.PopSuburban, CountryCode: "NO"}, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, marketScore(&tt.info), 1e-9)
		})
	}
}

func TestAssessRisk_Levels(t *testing.T) {
	benign := assessRisk(SubScores{Weather: 80, Terrain: 70}, registry.DistanceStats{NearestKM: registry.NoCompetitor}, "JP", 35)
	assert.Equal(t, RiskLow, benign.Level)
	assert.Zero(t, benign.Score)
	assert.Empty(t, benign.Factors)

	// Weather alone: 20 points, medium.
	weather := assessRisk(SubScores{Weather: 30, Terrain: 70}, registry.DistanceStats{}, "JP", 35)
	assert.Equal(t, 20, weather.Score)
	assert.Equal(t, RiskMedium, weather.Level)

	// Weather + terrain + density: 50 points, high.
	stacked := assessRisk(SubScores{Weather: 30, Terrain: 30},
		registry.DistanceStats{CountWithin25: 4}, "JP", 35)
	assert.Equal(t, 50, stacked.Score)
	assert.Equal(t, RiskHigh, stacked.Level)
	assert.Len(t, stacked.Factors, 3)

	// Everything at once: very high.
	worst := assessRisk(SubScores{Weather: 30, Terrain: 30},
		registry.DistanceStats{CountWithin25: 5}, "AF", 70)
	assert.Equal(t, 90, worst.Score)
	assert.Equal(t, RiskVeryHigh, worst.Level)
	assert.Len(t, worst.Factors, 5)
}

func TestRiskLevel_AtMost(t *testing.T) {
	assert.True(t, RiskLow.AtMost(RiskMedium))
	assert.True(t, RiskMedium.AtMost(RiskMedium))
	assert.False(t, RiskHigh.AtMost(RiskMedium))
	assert.True(t, RiskVeryHigh.AtMost(RiskVeryHigh))
}

func TestEstimateEconomics(t *testing.T) {
	// Neutral terrain/accessibility at score 50: factors collapse to 1.
	e := estimateEconomics(50, SubScores{Terrain: 60, Accessibility: 70}, 50)
	assert.InDelta(t, 2_000_000, e.InvestmentUSD, 1)
	assert.InDelta(t, 3_000_000, e.AnnualRevenueUSD, 1)
	assert.InDelta(t, 150, e.ROIPercent, 1e-6)
	assert.InDelta(t, 2.0/3.0, e.PaybackYears, 1e-6)
}

func TestEstimateEconomics_AreaTiers(t *testing.T) {
	neutral := SubScores{Terrain: 60, Accessibility: 70}
	small := estimateEconomics(99, neutral, 50)
	medium := estimateEconomics(999, neutral, 50)
	large := estimateEconomics(9_999, neutral, 50)
	xl := estimateEconomics(50_000, neutral, 50)

	assert.Less(t, small.InvestmentUSD, medium.InvestmentUSD)
	assert.Less(t, medium.InvestmentUSD, large.InvestmentUSD)
	assert.Less(t, large.InvestmentUSD, xl.InvestmentUSD)
}

func TestEstimateEconomics_HardTerrainCostsMore(t *testing.T) {
	easy := estimateEconomics(50, SubScores{Terrain: 90, Accessibility: 90}, 50)
	hard := estimateEconomics(50, SubScores{Terrain: 20, Accessibility: 20}, 50)
	assert.Greater(t, hard.InvestmentUSD, easy.InvestmentUSD)
}

func TestEstimateEconomics_ZeroScoreGuards(t *testing.T) {
	e := estimateEconomics(50, SubScores{Terrain: 60, Accessibility: 70}, 0)
	assert.Zero(t, e.AnnualRevenueUSD)
	assert.Zero(t, e.ROIPercent)
	assert.Zero(t, e.PaybackYears)
	assert.False(t, math.IsNaN(e.PaybackYears))
}
