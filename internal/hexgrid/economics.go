package hexgrid

// Economics is the capital and revenue projection for one candidate cell.
// All monetary figures are USD.
type Economics struct {
	InvestmentUSD    float64 `json:"investment_usd"`
	AnnualRevenueUSD float64 `json:"annual_revenue_usd"`
	ROIPercent       float64 `json:"roi_percent"`
	PaybackYears     float64 `json:"payback_years"`
}

// Base capital-cost tiers by cell area. Larger cells imply larger facilities
// and land parcels.
const (
	costTierSmall  = 2_000_000  // < 100 km²
	costTierMedium = 5_000_000  // < 1,000 km²
	costTierLarge  = 8_000_000  // < 10,000 km²
	costTierXL     = 12_000_000 // everything above
)

// baseAnnualRevenueUSD is the projected revenue of a site scoring 50 overall.
const baseAnnualRevenueUSD = 3_000_000

// estimateEconomics projects investment and revenue for a cell. Investment
// scales up with difficult terrain and poor accessibility; revenue scales
// with the overall score.
func estimateEconomics(areaKM2 float64, scores SubScores, overall int) Economics {
	var investment float64
	switch {
	case areaKM2 < 100:
		investment = costTierSmall
	case areaKM2 < 1_000:
		investment = costTierMedium
	case areaKM2 < 10_000:
		investment = costTierLarge
	default:
		investment = costTierXL
	}

	terrainFactor := 1 + (60-scores.Terrain)/100
	accessFactor := 1 + (70-scores.Accessibility)/200
	investment *= terrainFactor * accessFactor

	revenue := baseAnnualRevenueUSD * float64(overall) / 50

	e := Economics{
		InvestmentUSD:    investment,
		AnnualRevenueUSD: revenue,
	}
	if investment > 0 {
		e.ROIPercent = revenue / investment * 100
	}
	if revenue > 0 {
		e.PaybackYears = investment / revenue
	}
	return e
}
