package scoring

import (
	"math"

	"github.com/stationscout/siteval-cli/internal/geo"
)

// neighborNormKM is the distance normalization constant for the local-context
// adjustment: a neighbor 100 km away carries half the weight of a co-located
// one.
const neighborNormKM = 100.0

// trendDamping bounds the temporal multiplier to [0.8, 1.2].
const trendDamping = 0.2

// Neighbor is a nearby already-scored site used by the local-context
// adjustment.
type Neighbor struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Score float64 `json:"score"`
}

// TemporalAdjustment converts a historical demand series into a bounded
// multiplier. The annualized growth rate between the first and last points is
// smoothed with tanh so extreme series cannot swing a score by more than
// ±20%. Series with fewer than two points, or a non-positive first point,
// return the neutral multiplier 1.0.
func TemporalAdjustment(history []float64) float64 {
	if len(history) < 2 {
		return 1.0
	}
	first := history[0]
	last := history[len(history)-1]
	if first <= 0 {
		return 1.0
	}
	periods := float64(len(history) - 1)
	growthRate := (last/first - 1) / periods
	return 1 + math.Tanh(growthRate)*trendDamping
}

// LocalContextAdjustment blends a candidate's score toward its neighborhood
// using inverse-geodesic-distance weights and returns the result as a bounded
// multiplier on the candidate score. With no neighbors (or a degenerate
// weight sum) the multiplier is the neutral 1.0.
func LocalContextAdjustment(score, lat, lon float64, neighbors []Neighbor) float64 {
	if len(neighbors) == 0 {
		return 1.0
	}

	if score <= 0 {
		return 1.0
	}

	// The candidate participates with weight 1, so a lone distant neighbor
	// barely moves the blend while a co-located one moves it strongly.
	weightSum := 1.0
	weighted := score
	for _, n := range neighbors {
		d := geo.Haversine(lat, lon, n.Lat, n.Lon)
		w := 1 / (1 + d/neighborNormKM)
		weightSum += w
		weighted += w * n.Score
	}
	if weightSum <= 0 {
		return 1.0
	}

	blended := weighted / weightSum
	m := blended / score
	return math.Max(0.8, math.Min(1.2, m))
}
