package hexgrid

import (
	"math"

	"github.com/stationscout/siteval-cli/internal/registry"
)

// RiskLevel is the ordinal risk classification of a candidate cell.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very_high"
)

// riskRank orders levels for max-risk filtering.
var riskRank = map[RiskLevel]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskVeryHigh: 3,
}

// AtMost reports whether l is no riskier than max.
func (l RiskLevel) AtMost(max RiskLevel) bool {
	return riskRank[l] <= riskRank[max]
}

// RiskAssessment is the accumulated risk score, its ordinal level, and the
// human-readable factors that contributed.
type RiskAssessment struct {
	Score   int       `json:"score"`
	Level   RiskLevel `json:"level"`
	Factors []string  `json:"factors,omitempty"`
}

// Geopolitical country risk tiers. Static by design, reviewed manually.
var highRiskCountries = map[string]bool{
	"AF": true, "SY": true, "YE": true, "LY": true, "SO": true, "SS": true,
	"MM": true, "VE": true,
}

var mediumRiskCountries = map[string]bool{
	"NG": true, "PK": true, "ET": true, "EG": true, "IQ": true, "RU": true,
	"BY": true, "HT": true,
}

// assessRisk accumulates additive risk contributions and maps the total to
// an ordinal level.
func assessRisk(scores SubScores, stats registry.DistanceStats, countryCode string, lat float64) RiskAssessment {
	var score int
	var factors []string

	if scores.Weather < 40 {
		score += 20
		factors = append(factors, "Poor weather conditions for satellite operations")
	}
	if scores.Terrain < 35 {
		score += 15
		factors = append(factors, "Challenging terrain for construction")
	}
	if stats.CountWithin25 > 3 {
		score += 15
		factors = append(factors, "High competitor density within 25 km")
	}
	switch {
	case highRiskCountries[countryCode]:
		score += 30
		factors = append(factors, "High geopolitical risk")
	case mediumRiskCountries[countryCode]:
		score += 15
		factors = append(factors, "Elevated geopolitical risk")
	}
	if math.Abs(lat) > 65 {
		score += 10
		factors = append(factors, "Extreme latitude complicates logistics")
	}

	level := RiskVeryHigh
	switch {
	case score < 20:
		level = RiskLow
	case score < 40:
		level = RiskMedium
	case score < 60:
		level = RiskHigh
	}

	return RiskAssessment{Score: score, Level: level, Factors: factors}
}
