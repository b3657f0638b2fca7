package scoring

// Insight thresholds. Narrative insights come from a fixed rule table so that
// identical inputs always produce identical text in identical order.
const (
	highMarketThreshold        = 0.8
	lowFiberThreshold          = 0.5
	lowWeatherThreshold        = 0.6
	crowdedStationsThreshold   = 0.7
	highMaritimeThreshold      = 0.7
	sparseStationsThreshold    = 0.3
	lowStabilityThreshold      = 0.5
	highInterferenceThreshold  = 0.4 // factor is inverted, low factor = high raw risk
	highSaturationThreshold    = 0.7
	lowPenetrationThreshold    = 0.4
	highGDPThreshold           = 0.7
	lowPowerThreshold          = 0.5
)

// generateInsights evaluates the deterministic rule table against the
// normalized factors and category scores. Rules fire independently; two-factor
// joint rules are listed last within their group.
func generateInsights(factors map[string]float64, categories map[Category]float64) (recommendations, risks, opportunities []string) {
	// Recommendations.
	if categories[CategoryMarketDemand] > highMarketThreshold {
		recommendations = append(recommendations, "Strong market demand: expedite deployment to capture first-mover advantage")
	}
	if factors[FactorFiberConnectivity] < lowFiberThreshold {
		recommendations = append(recommendations, "Limited fiber connectivity: invest in fiber backhaul before station build-out")
	}
	if factors[FactorWeather] < lowWeatherThreshold {
		recommendations = append(recommendations, "Frequent cloud cover: plan adaptive coding and modulation for weather resilience")
	}
	if factors[FactorExistingStations] > crowdedStationsThreshold {
		recommendations = append(recommendations, "Established operators nearby: differentiate services rather than compete on capacity")
	}
	if factors[FactorPowerReliability] < lowPowerThreshold {
		recommendations = append(recommendations, "Unreliable grid power: budget for on-site generation and battery backup")
	}

	// Risks.
	if factors[FactorPoliticalStability] < lowStabilityThreshold {
		risks = append(risks, "Political instability may disrupt licensing and operations")
	}
	if factors[FactorInterferenceRisk] < highInterferenceThreshold {
		risks = append(risks, "High RF interference environment degrades link budgets")
	}
	if factors[FactorMarketSaturation] > highSaturationThreshold {
		risks = append(risks, "Saturated market limits achievable share")
	}
	if factors[FactorExistingStations] > crowdedStationsThreshold {
		risks = append(risks, "Crowded competitive landscape near this site")
	}

	// Opportunities.
	if factors[FactorInternetPenetration] < lowPenetrationThreshold {
		opportunities = append(opportunities, "Low internet penetration signals unmet connectivity demand")
	}
	if factors[FactorMaritimeTraffic] > highMaritimeThreshold && factors[FactorExistingStations] < sparseStationsThreshold {
		opportunities = append(opportunities, "Heavy maritime traffic with no nearby stations: underserved maritime market")
	}
	if factors[FactorGDPPerCapita] > highGDPThreshold && factors[FactorExistingStations] < sparseStationsThreshold {
		opportunities = append(opportunities, "High-income market with sparse coverage: premium service potential")
	}

	return recommendations, risks, opportunities
}
