package hexgrid

import (
	"math"

	"github.com/stationscout/siteval-cli/internal/geo"
	"github.com/stationscout/siteval-cli/internal/registry"
	"github.com/stationscout/siteval-cli/pkg/geocode"
)

// SubScores holds the six component scores, each clamped to its own range.
type SubScores struct {
	Market        float64 `json:"market"`
	Competition   float64 `json:"competition"`
	Weather       float64 `json:"weather"`
	Coverage      float64 `json:"coverage"`
	Terrain       float64 `json:"terrain"`
	Accessibility float64 `json:"accessibility"`
}

// Sub-score weights. Fixed: the overall score is comparable across runs only
// because these never move.
const (
	weightMarket        = 0.25
	weightCompetition   = 0.20
	weightWeather       = 0.15
	weightCoverage      = 0.15
	weightTerrain       = 0.15
	weightAccessibility = 0.10
)

// Overall collapses the six sub-scores into an integer score in [0,100].
func (s SubScores) Overall() int {
	v := weightMarket*s.Market +
		weightCompetition*s.Competition +
		weightWeather*s.Weather +
		weightCoverage*s.Coverage +
		weightTerrain*s.Terrain +
		weightAccessibility*s.Accessibility
	n := int(math.Round(v))
	if n < 0 {
		n = 0
	}
	if n > 100 {
		n = 100
	}
	return n
}

// highIncome and upperMiddleIncome drive the market score's country bonus.
// Static by design: grid runs must not depend on live economic data.
var highIncome = map[string]bool{
	"US": true, "CA": true, "GB": true, "DE": true, "FR": true, "NL": true,
	"NO": true, "SE": true, "CH": true, "JP": true, "KR": true, "SG": true,
	"AU": true, "NZ": true, "ES": true, "IT": true, "CL": true,
}

var upperMiddleIncome = map[string]bool{
	"CN": true, "BR": true, "MX": true, "TR": true, "AR": true, "RU": true,
	"MY": true, "TH": true, "ZA": true, "KZ": true,
}

// Static climate and terrain regions, matched by bounding box.
var monsoonRegions = []geo.Bounds{
	{MinLat: 5, MinLon: 60, MaxLat: 30, MaxLon: 97},    // South Asia
	{MinLat: -10, MinLon: 95, MaxLat: 23, MaxLon: 130}, // Southeast Asia
	{MinLat: 4, MinLon: -17, MaxLat: 15, MaxLon: 15},   // West Africa
}

var desertRegions = []geo.Bounds{
	{MinLat: 15, MinLon: -17, MaxLat: 30, MaxLon: 35},     // Sahara
	{MinLat: 15, MinLon: 35, MaxLat: 30, MaxLon: 60},      // Arabian
	{MinLat: -30, MinLon: 120, MaxLat: -20, MaxLon: 140},  // Australian interior
	{MinLat: -26, MinLon: -71, MaxLat: -18, MaxLon: -68},  // Atacama
	{MinLat: 38, MinLon: 95, MaxLat: 46, MaxLon: 112},     // Gobi
	{MinLat: 32, MinLon: -117, MaxLat: 37, MaxLon: -110},  // Mojave/Sonoran
}

var mountainRegions = []geo.Bounds{
	{MinLat: 27, MinLon: 70, MaxLat: 36, MaxLon: 95},      // Himalaya
	{MinLat: -40, MinLon: -75, MaxLat: 0, MaxLon: -65},    // Andes
	{MinLat: 35, MinLon: -120, MaxLat: 50, MaxLon: -105},  // Rockies
	{MinLat: 44, MinLon: 5, MaxLat: 48, MaxLon: 15},       // Alps
}

var floodRegions = []geo.Bounds{
	{MinLat: 22, MinLon: 88, MaxLat: 26, MaxLon: 92},   // Ganges delta
	{MinLat: 8, MinLon: 104, MaxLat: 12, MaxLon: 108},  // Mekong delta
	{MinLat: 29, MinLon: 112, MaxLat: 33, MaxLon: 122}, // Yangtze basin
}

func inAnyRegion(regions []geo.Bounds, lat, lon float64) bool {
	for _, b := range regions {
		if b.Contains(lat, lon) {
			return true
		}
	}
	return false
}

// marketScore rates demand from the population category and a country-income
// bonus. Range [10,100].
func marketScore(info *geocode.Info) float64 {
	score := 50.0
	switch info.PopulationCategory {
	case geocode.PopUrban:
		score += 30
	case geocode.PopSuburban:
		score += 20
	case geocode.PopRegional:
		score += 10
	}
	switch {
	case highIncome[info.CountryCode]:
		score += 20
	case upperMiddleIncome[info.CountryCode]:
		score += 10
	}
	return clampRange(score, 10, 100)
}

// competitionScore starts from a perfect 100 and penalizes by the nearest
// competitor distance and the count inside 5 km. Floor 5: a crowded cell is
// still reported, just heavily discounted.
func competitionScore(stats registry.DistanceStats) float64 {
	score := 100.0
	switch {
	case stats.NearestKM < 0:
		// registry.NoCompetitor: nothing nearby, keep the perfect score
	case stats.NearestKM < 5:
		score -= 40
	case stats.NearestKM < 25:
		score -= 20
	case stats.NearestKM < 100:
		score -= 10
	}
	score -= 15 * float64(stats.CountWithin5)
	if score < 5 {
		score = 5
	}
	return score
}

// weatherScore rates link availability from latitude band plus static
// monsoon/desert adjustments. Range [10,100].
func weatherScore(lat, lon float64) float64 {
	score := 70.0
	abs := math.Abs(lat)
	switch {
	case abs <= 23.5:
		score -= 10 // tropical rain fade
	case abs <= 40:
		score += 10
	case abs <= 55:
		score += 5
	default:
		score -= 15 // polar icing and storms
	}
	if inAnyRegion(monsoonRegions, lat, lon) {
		score -= 20
	}
	if inAnyRegion(desertRegions, lat, lon) {
		score += 15
	}
	return clampRange(score, 10, 100)
}

// coverageScore rates satellite visibility. GEO serves |lat| ≤ 55 and
// degrades linearly with latitude; beyond that only LEO constellations
// remain. Range [20,95].
func coverageScore(lat float64) float64 {
	abs := math.Abs(lat)
	var score float64
	if abs <= 55 {
		score = 90 - abs
	} else {
		score = 60 - (abs - 55)
	}
	return clampRange(score, 20, 95)
}

// terrainScore rates buildability. Coastal sites gain (cable landing,
// logistics), mountain and flood regions lose, deserts gain slightly (flat,
// cheap land). Range [15,95].
func terrainScore(lat, lon float64, coastal bool) float64 {
	score := 60.0
	if coastal {
		score += 15
	}
	if inAnyRegion(mountainRegions, lat, lon) {
		score -= 25
	}
	if inAnyRegion(desertRegions, lat, lon) {
		score += 5
	}
	if inAnyRegion(floodRegions, lat, lon) {
		score -= 15
	}
	return clampRange(score, 15, 95)
}

// accessibilityScore rates build/operate logistics from the population
// category, with coastal and extreme-latitude adjustments. Range [10,95].
func accessibilityScore(info *geocode.Info, coastal bool, lat float64) float64 {
	var score float64
	switch info.PopulationCategory {
	case geocode.PopUrban:
		score = 90
	case geocode.PopSuburban:
		score = 75
	case geocode.PopRegional:
		score = 55
	default:
		score = 35
	}
	if coastal {
		score += 5
	}
	if math.Abs(lat) > 60 {
		score -= 15
	}
	return clampRange(score, 10, 95)
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
