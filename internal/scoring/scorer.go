package scoring

import (
	"math"

	"github.com/rotisserie/eris"
)

// StationScore is the result of scoring one candidate site. Instances are
// created fresh per call and never mutated afterward.
type StationScore struct {
	OverallScore    float64              `json:"overall_score"` // 0-1
	Confidence      float64              `json:"confidence"`    // 0-1, share of tracked factors supplied
	CategoryScores  map[Category]float64 `json:"category_scores"`
	Factors         map[string]float64   `json:"factors"`
	Recommendations []string             `json:"recommendations"`
	Risks           []string             `json:"risks"`
	Opportunities   []string             `json:"opportunities"`
}

// Scorer computes StationScores under a fixed, validated weight
// configuration. Scorers are safe for concurrent use; the weights are
// read-only after construction.
type Scorer struct {
	weights ScoringWeights
}

// NewScorer validates the weight configuration and returns a Scorer.
// Invalid weight sums are a construction-time error, never a silent clamp.
func NewScorer(weights ScoringWeights) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, eris.Wrap(err, "scoring: invalid weights")
	}
	return &Scorer{weights: weights}, nil
}

// Score evaluates a site feature bag. It is deterministic, side-effect free,
// and never fails: missing fields fall back to documented defaults and only
// lower the confidence.
func (s *Scorer) Score(features SiteFeatures) StationScore {
	factors, supplied := computeFactors(features)

	categoryScores := make(map[Category]float64, len(Categories))
	var overall float64
	for _, cat := range Categories {
		cw := s.weights.Categories[cat]
		var cs float64
		for name, fw := range cw.Factors {
			cs += factors[name] * fw
		}
		categoryScores[cat] = cs

		// A high competition-risk score represents unfavorable conditions,
		// so it is inverted before entering the overall score.
		if cat == CategoryCompetitionRisk {
			cs = 1 - cs
		}
		overall += cs * cw.Weight
	}

	score := StationScore{
		OverallScore:   clamp01(overall),
		Confidence:     float64(supplied) / float64(len(TrackedFactors)),
		CategoryScores: categoryScores,
		Factors:        factors,
	}
	score.Recommendations, score.Risks, score.Opportunities = generateInsights(factors, categoryScores)
	return score
}

// computeFactors maps raw features onto normalized [0,1] factor values and
// counts how many were actually supplied by the caller.
func computeFactors(f SiteFeatures) (map[string]float64, int) {
	factors := make(map[string]float64, len(TrackedFactors))
	supplied := 0

	set := func(name string, raw *float64, def float64, transform func(float64) float64) {
		v, ok := value(raw, def)
		if ok {
			supplied++
		}
		factors[name] = transform(v)
	}

	// Heavy-tailed counts are log10-compressed then sigmoid-squashed.
	set(FactorPopulationDensity, f.PopulationDensity, 0, func(v float64) float64 { return logSigmoid(v, 2.0, 1.5) })
	set(FactorGDPPerCapita, f.GDPPerCapita, 0, func(v float64) float64 { return logSigmoid(v, 4.0, 2.0) })
	set(FactorMaritimeTraffic, f.MaritimeTraffic, 0, func(v float64) float64 { return logSigmoid(v, 3.0, 1.5) })
	set(FactorAviationTraffic, f.AviationTraffic, 0, func(v float64) float64 { return logSigmoid(v, 4.0, 1.5) })

	// Ratio-like inputs pass through linearly.
	set(FactorInternetPenetration, f.InternetPenetration, defaultInternetPenetration, clamp01)
	set(FactorFiberConnectivity, f.FiberConnectivity, defaultInfrastructure, clamp01)
	set(FactorPowerReliability, f.PowerReliability, defaultInfrastructure, clamp01)
	set(FactorTransportAccess, f.TransportAccess, defaultInfrastructure, clamp01)
	set(FactorLandAvailability, f.LandAvailability, defaultInfrastructure, clamp01)

	set(FactorWeather, f.ClearSkyDays, defaultClearSkyDays, func(v float64) float64 { return clamp01(v / 365.0) })
	set(FactorElevation, f.ElevationMeters, defaultElevationMeters, func(v float64) float64 { return clamp01(v / 2000.0) })
	// Bad-when-high inputs invert before weighting.
	set(FactorInterferenceRisk, f.InterferenceRisk, defaultInterferenceRisk, func(v float64) float64 { return 1 - clamp01(v) })
	set(FactorSatelliteVisibility, f.SatelliteVisibility, defaultSatelliteVisibility, clamp01)

	// Competition factors stay "high = more competition"; the category is
	// inverted as a whole when combined into the overall score.
	set(FactorExistingStations, f.ExistingStations, 0, func(v float64) float64 { return logSigmoid(v, 0.7, 3.0) })
	set(FactorMarketSaturation, f.MarketSaturation, defaultMarketSaturation, clamp01)
	set(FactorCompetitorGrowth, f.CompetitorGrowth, defaultCompetitorGrowth, clamp01)

	set(FactorLicensingComplexity, f.LicensingComplexity, defaultLicensingComplexity, func(v float64) float64 { return 1 - clamp01(v) })
	set(FactorPoliticalStability, f.PoliticalStability, defaultPoliticalStability, clamp01)
	set(FactorSpectrumAvailability, f.SpectrumAvailability, defaultSpectrumAvailability, clamp01)

	return factors, supplied
}

// logSigmoid compresses a heavy-tailed non-negative value with log10 and maps
// it into (0,1) with a logistic curve centered at mid (in log10 units).
// Non-positive inputs score 0 rather than propagating NaN from the log.
func logSigmoid(v, mid, steepness float64) float64 {
	if v <= 0 {
		return 0
	}
	compressed := math.Log10(v + 1)
	return 1 / (1 + math.Exp(-steepness*(compressed-mid)))
}

// clamp01 clamps v to [0,1].
func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
