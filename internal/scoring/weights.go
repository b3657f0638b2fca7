package scoring

import (
	"math"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Category identifies one of the five top-level scoring categories.
type Category string

const (
	CategoryMarketDemand         Category = "market_demand"
	CategoryInfrastructure       Category = "infrastructure"
	CategoryTechnicalFeasibility Category = "technical_feasibility"
	CategoryCompetitionRisk      Category = "competition_risk"
	CategoryRegulatory           Category = "regulatory_environment"
)

// Categories lists the five categories in their canonical order.
var Categories = []Category{
	CategoryMarketDemand,
	CategoryInfrastructure,
	CategoryTechnicalFeasibility,
	CategoryCompetitionRisk,
	CategoryRegulatory,
}

// weightTolerance is the allowed deviation from 1.0 for weight group sums.
const weightTolerance = 1e-9

// CategoryWeights holds the weight of one category and the weights of its
// sub-factors. Factor weights must sum to 1.0 within tolerance.
type CategoryWeights struct {
	Weight  float64            `yaml:"weight" json:"weight"`
	Factors map[string]float64 `yaml:"factors" json:"factors"`
}

// ScoringWeights is the full hierarchical weight configuration. It is
// validated once at construction time and treated as read-only afterward.
type ScoringWeights struct {
	Categories map[Category]CategoryWeights `yaml:"categories" json:"categories"`
}

// DefaultWeights returns the standard weight configuration. Category weights
// and every per-category factor group sum to exactly 1.0.
func DefaultWeights() ScoringWeights {
	return ScoringWeights{
		Categories: map[Category]CategoryWeights{
			CategoryMarketDemand: {
				Weight: 0.25,
				Factors: map[string]float64{
					FactorPopulationDensity:   0.30,
					FactorGDPPerCapita:        0.25,
					FactorInternetPenetration: 0.20,
					FactorMaritimeTraffic:     0.15,
					FactorAviationTraffic:     0.10,
				},
			},
			CategoryInfrastructure: {
				Weight: 0.20,
				Factors: map[string]float64{
					FactorFiberConnectivity: 0.35,
					FactorPowerReliability:  0.30,
					FactorTransportAccess:   0.20,
					FactorLandAvailability:  0.15,
				},
			},
			CategoryTechnicalFeasibility: {
				Weight: 0.20,
				Factors: map[string]float64{
					FactorWeather:             0.30,
					FactorElevation:           0.20,
					FactorInterferenceRisk:    0.25,
					FactorSatelliteVisibility: 0.25,
				},
			},
			CategoryCompetitionRisk: {
				Weight: 0.20,
				Factors: map[string]float64{
					FactorExistingStations: 0.40,
					FactorMarketSaturation: 0.35,
					FactorCompetitorGrowth: 0.25,
				},
			},
			CategoryRegulatory: {
				Weight: 0.15,
				Factors: map[string]float64{
					FactorLicensingComplexity:  0.40,
					FactorPoliticalStability:   0.35,
					FactorSpectrumAvailability: 0.25,
				},
			},
		},
	}
}

// Validate checks that all five categories are present, category weights sum
// to 1.0, and each category's factor weights sum to 1.0. Called once at
// configuration time; scoring assumes a validated configuration.
func (w ScoringWeights) Validate() error {
	if len(w.Categories) == 0 {
		return eris.New("weights: no categories configured")
	}

	var catSum float64
	for _, cat := range Categories {
		cw, ok := w.Categories[cat]
		if !ok {
			return eris.Errorf("weights: missing category %q", cat)
		}
		if cw.Weight < 0 {
			return eris.Errorf("weights: category %q has negative weight %g", cat, cw.Weight)
		}
		catSum += cw.Weight

		if len(cw.Factors) == 0 {
			return eris.Errorf("weights: category %q has no factors", cat)
		}
		var facSum float64
		for name, fw := range cw.Factors {
			if fw < 0 {
				return eris.Errorf("weights: factor %q in %q has negative weight %g", name, cat, fw)
			}
			facSum += fw
		}
		if math.Abs(facSum-1.0) > weightTolerance {
			return eris.Errorf("weights: factor weights in %q sum to %.12f, want 1.0", cat, facSum)
		}
	}

	if math.Abs(catSum-1.0) > weightTolerance {
		return eris.Errorf("weights: category weights sum to %.12f, want 1.0", catSum)
	}
	return nil
}

// LoadWeights reads a ScoringWeights YAML file and validates it.
func LoadWeights(path string) (ScoringWeights, error) {
	var w ScoringWeights

	data, err := os.ReadFile(path)
	if err != nil {
		return w, eris.Wrapf(err, "weights: read %s", path)
	}
	if err := yaml.Unmarshal(data, &w); err != nil {
		return w, eris.Wrapf(err, "weights: parse %s", path)
	}
	if err := w.Validate(); err != nil {
		return w, err
	}
	return w, nil
}
