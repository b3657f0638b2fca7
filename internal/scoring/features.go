// Package scoring implements the weighted multi-factor site scorer.
package scoring

// SiteFeatures holds the raw inputs for scoring a candidate site. Every field
// is optional; nil fields fall back to the documented default and lower the
// score confidence instead of causing an error.
type SiteFeatures struct {
	// Market demand.
	PopulationDensity  *float64 `json:"population_density,omitempty" yaml:"population_density"`   // people per km², default 0
	GDPPerCapita       *float64 `json:"gdp_per_capita,omitempty" yaml:"gdp_per_capita"`           // USD, default 0
	InternetPenetration *float64 `json:"internet_penetration,omitempty" yaml:"internet_penetration"` // 0-1, default 0.5
	MaritimeTraffic    *float64 `json:"maritime_traffic,omitempty" yaml:"maritime_traffic"`       // vessel transits/year, default 0
	AviationTraffic    *float64 `json:"aviation_traffic,omitempty" yaml:"aviation_traffic"`       // flights/year, default 0

	// Infrastructure.
	FiberConnectivity *float64 `json:"fiber_connectivity,omitempty" yaml:"fiber_connectivity"` // 0-1, default 0.5
	PowerReliability  *float64 `json:"power_reliability,omitempty" yaml:"power_reliability"`   // 0-1, default 0.5
	TransportAccess   *float64 `json:"transport_access,omitempty" yaml:"transport_access"`     // 0-1, default 0.5
	LandAvailability  *float64 `json:"land_availability,omitempty" yaml:"land_availability"`   // 0-1, default 0.5

	// Technical feasibility.
	ClearSkyDays        *float64 `json:"clear_sky_days,omitempty" yaml:"clear_sky_days"`               // days/year, default 182.5
	ElevationMeters     *float64 `json:"elevation_meters,omitempty" yaml:"elevation_meters"`           // default 1000
	InterferenceRisk    *float64 `json:"interference_risk,omitempty" yaml:"interference_risk"`         // 0-1 bad-when-high, default 0.3
	SatelliteVisibility *float64 `json:"satellite_visibility,omitempty" yaml:"satellite_visibility"`   // 0-1, default 0.7

	// Competition.
	ExistingStations *float64 `json:"existing_stations,omitempty" yaml:"existing_stations"` // count, default 0
	MarketSaturation *float64 `json:"market_saturation,omitempty" yaml:"market_saturation"` // 0-1, default 0.3
	CompetitorGrowth *float64 `json:"competitor_growth,omitempty" yaml:"competitor_growth"` // 0-1, default 0.3

	// Regulatory environment.
	LicensingComplexity  *float64 `json:"licensing_complexity,omitempty" yaml:"licensing_complexity"`   // 0-1 bad-when-high, default 0.5
	PoliticalStability   *float64 `json:"political_stability,omitempty" yaml:"political_stability"`     // 0-1, default 0.7
	SpectrumAvailability *float64 `json:"spectrum_availability,omitempty" yaml:"spectrum_availability"` // 0-1, default 0.5
}

// Factor names. These are the keys of StationScore.Factors and the names used
// by the insight rule tables and the weight configuration.
const (
	FactorPopulationDensity   = "population_density"
	FactorGDPPerCapita        = "gdp_per_capita"
	FactorInternetPenetration = "internet_penetration"
	FactorMaritimeTraffic     = "maritime_traffic"
	FactorAviationTraffic     = "aviation_traffic"

	FactorFiberConnectivity = "fiber_connectivity"
	FactorPowerReliability  = "power_reliability"
	FactorTransportAccess   = "transport_access"
	FactorLandAvailability  = "land_availability"

	FactorWeather             = "weather"
	FactorElevation           = "elevation"
	FactorInterferenceRisk    = "interference_risk"
	FactorSatelliteVisibility = "satellite_visibility"

	FactorExistingStations = "existing_stations"
	FactorMarketSaturation = "market_saturation"
	FactorCompetitorGrowth = "competitor_growth"

	FactorLicensingComplexity  = "licensing_complexity"
	FactorPoliticalStability   = "political_stability"
	FactorSpectrumAvailability = "spectrum_availability"
)

// TrackedFactors is the fixed universal factor list. Confidence is the share
// of these the caller actually supplied.
var TrackedFactors = []string{
	FactorPopulationDensity,
	FactorGDPPerCapita,
	FactorInternetPenetration,
	FactorMaritimeTraffic,
	FactorAviationTraffic,
	FactorFiberConnectivity,
	FactorPowerReliability,
	FactorTransportAccess,
	FactorLandAvailability,
	FactorWeather,
	FactorElevation,
	FactorInterferenceRisk,
	FactorSatelliteVisibility,
	FactorExistingStations,
	FactorMarketSaturation,
	FactorCompetitorGrowth,
	FactorLicensingComplexity,
	FactorPoliticalStability,
	FactorSpectrumAvailability,
}

// Feature defaults applied when a field is nil.
const (
	defaultInternetPenetration  = 0.5
	defaultInfrastructure       = 0.5
	defaultClearSkyDays         = 182.5
	defaultElevationMeters      = 1000.0
	defaultInterferenceRisk     = 0.3
	defaultSatelliteVisibility  = 0.7
	defaultMarketSaturation     = 0.3
	defaultCompetitorGrowth     = 0.3
	defaultLicensingComplexity  = 0.5
	defaultPoliticalStability   = 0.7
	defaultSpectrumAvailability = 0.5
)

// value returns the feature value or the default, plus whether it was supplied.
func value(f *float64, def float64) (float64, bool) {
	if f == nil {
		return def, false
	}
	return *f, true
}

// Float64 returns a pointer to v. Convenience for building SiteFeatures
// literals.
func Float64(v float64) *float64 { return &v }
