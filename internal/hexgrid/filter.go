package hexgrid

import "sort"

// TopOpportunities flattens a generated grid across resolutions and returns
// the n highest-scoring cells, ties broken by cell id for stable output.
func TopOpportunities(grid map[int][]Opportunity, n int) []Opportunity {
	var all []Opportunity
	for _, cells := range grid {
		all = append(all, cells...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].OverallScore != all[j].OverallScore {
			return all[i].OverallScore > all[j].OverallScore
		}
		return all[i].CellID < all[j].CellID
	})
	if n > 0 && n < len(all) {
		all = all[:n]
	}
	return all
}

// Criteria filters opportunities. Zero-valued fields are inactive; active
// criteria are ANDed.
type Criteria struct {
	MinScore         int       `json:"min_score"`
	MaxRisk          RiskLevel `json:"max_risk"` // empty = no risk ceiling
	Regions          []string  `json:"regions"`
	Countries        []string  `json:"countries"` // country codes
	MinROIPercent    float64   `json:"min_roi_percent"`
	MaxInvestmentUSD float64   `json:"max_investment_usd"`
}

// Filter returns the opportunities matching every active criterion, in the
// input order.
func Filter(list []Opportunity, c Criteria) []Opportunity {
	regions := toSet(c.Regions)
	countries := toSet(c.Countries)

	var out []Opportunity
	for _, o := range list {
		if o.OverallScore < c.MinScore {
			continue
		}
		if c.MaxRisk != "" && !o.Risk.Level.AtMost(c.MaxRisk) {
			continue
		}
		if len(regions) > 0 && !regions[o.Region] {
			continue
		}
		if len(countries) > 0 && !countries[o.CountryCode] {
			continue
		}
		if c.MinROIPercent > 0 && o.Economics.ROIPercent < c.MinROIPercent {
			continue
		}
		if c.MaxInvestmentUSD > 0 && o.Economics.InvestmentUSD > c.MaxInvestmentUSD {
			continue
		}
		out = append(out, o)
	}
	return out
}

func toSet(vals []string) map[string]bool {
	if len(vals) == 0 {
		return nil
	}
	set := make(map[string]bool, len(vals))
	for _, v := range vals {
		set[v] = true
	}
	return set
}
