package report

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/stationscout/siteval-cli/internal/hexgrid"
)

// WriteGridJSON renders a generated grid as indented JSON, keyed by
// resolution.
func WriteGridJSON(w io.Writer, grid map[int][]hexgrid.Opportunity) error {
	return writeJSON(w, grid)
}

var gridHeader = []string{
	"cell_id", "resolution", "center_lat", "center_lon", "country", "region",
	"population_category", "land_coverage", "coastal",
	"market", "competition", "weather", "coverage", "terrain", "accessibility",
	"overall_score", "investment_usd", "annual_revenue_usd", "roi_percent",
	"payback_years", "risk_level", "risk_score", "boundary",
}

// ringString flattens a boundary ring into "lat lon" pairs joined by
// semicolons, one CSV/XLSX cell per hexagon outline.
func ringString(ring [][2]float64) string {
	parts := make([]string, len(ring))
	for i, v := range ring {
		parts[i] = strconv.FormatFloat(v[0], 'f', 5, 64) + " " +
			strconv.FormatFloat(v[1], 'f', 5, 64)
	}
	return strings.Join(parts, ";")
}

// WriteGridCSV renders opportunities as CSV, one row per cell.
func WriteGridCSV(w io.Writer, opportunities []hexgrid.Opportunity) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(gridHeader); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, o := range opportunities {
		row := []string{
			o.CellID,
			strconv.Itoa(o.Resolution),
			strconv.FormatFloat(o.CenterLat, 'f', 5, 64),
			strconv.FormatFloat(o.CenterLon, 'f', 5, 64),
			o.Country,
			o.Region,
			o.PopulationCategory,
			strconv.FormatFloat(o.LandCoverage, 'f', 1, 64),
			strconv.FormatBool(o.Coastal),
			strconv.FormatFloat(o.Scores.Market, 'f', 1, 64),
			strconv.FormatFloat(o.Scores.Competition, 'f', 1, 64),
			strconv.FormatFloat(o.Scores.Weather, 'f', 1, 64),
			strconv.FormatFloat(o.Scores.Coverage, 'f', 1, 64),
			strconv.FormatFloat(o.Scores.Terrain, 'f', 1, 64),
			strconv.FormatFloat(o.Scores.Accessibility, 'f', 1, 64),
			strconv.Itoa(o.OverallScore),
			strconv.FormatFloat(o.Economics.InvestmentUSD, 'f', 0, 64),
			strconv.FormatFloat(o.Economics.AnnualRevenueUSD, 'f', 0, 64),
			strconv.FormatFloat(o.Economics.ROIPercent, 'f', 1, 64),
			strconv.FormatFloat(o.Economics.PaybackYears, 'f', 2, 64),
			string(o.Risk.Level),
			strconv.Itoa(o.Risk.Score),
			ringString(o.Boundary),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush csv")
}

// WriteGridXLSX renders a workbook with one sheet per resolution plus a
// ranked summary sheet across all resolutions.
func WriteGridXLSX(w io.Writer, grid map[int][]hexgrid.Opportunity) error {
	f := xlsx.NewFile()

	summary, err := f.AddSheet("Top Opportunities")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}
	summaryHeader := summary.AddRow()
	for _, h := range []string{"Rank", "Cell", "Country", "Score", "Risk", "Investment", "Annual Revenue", "ROI"} {
		summaryHeader.AddCell().SetString(h)
	}
	for i, o := range hexgrid.TopOpportunities(grid, 50) {
		row := summary.AddRow()
		row.AddCell().SetInt(i + 1)
		row.AddCell().SetString(o.CellID)
		row.AddCell().SetString(o.Country)
		row.AddCell().SetInt(o.OverallScore)
		row.AddCell().SetString(string(o.Risk.Level))
		row.AddCell().SetString(money(o.Economics.InvestmentUSD))
		row.AddCell().SetString(money(o.Economics.AnnualRevenueUSD))
		row.AddCell().SetString(percent(o.Economics.ROIPercent))
	}

	resolutions := make([]int, 0, len(grid))
	for res := range grid {
		resolutions = append(resolutions, res)
	}
	sort.Ints(resolutions)

	for _, res := range resolutions {
		sheet, err := f.AddSheet("Resolution " + strconv.Itoa(res))
		if err != nil {
			return eris.Wrapf(err, "report: add sheet for resolution %d", res)
		}
		header := sheet.AddRow()
		for _, h := range gridHeader {
			header.AddCell().SetString(h)
		}
		for _, o := range grid[res] {
			row := sheet.AddRow()
			row.AddCell().SetString(o.CellID)
			row.AddCell().SetInt(o.Resolution)
			row.AddCell().SetFloat(o.CenterLat)
			row.AddCell().SetFloat(o.CenterLon)
			row.AddCell().SetString(o.Country)
			row.AddCell().SetString(o.Region)
			row.AddCell().SetString(o.PopulationCategory)
			row.AddCell().SetFloat(o.LandCoverage)
			row.AddCell().SetBool(o.Coastal)
			row.AddCell().SetFloat(o.Scores.Market)
			row.AddCell().SetFloat(o.Scores.Competition)
			row.AddCell().SetFloat(o.Scores.Weather)
			row.AddCell().SetFloat(o.Scores.Coverage)
			row.AddCell().SetFloat(o.Scores.Terrain)
			row.AddCell().SetFloat(o.Scores.Accessibility)
			row.AddCell().SetInt(o.OverallScore)
			row.AddCell().SetFloat(o.Economics.InvestmentUSD)
			row.AddCell().SetFloat(o.Economics.AnnualRevenueUSD)
			row.AddCell().SetFloat(o.Economics.ROIPercent)
			row.AddCell().SetFloat(o.Economics.PaybackYears)
			row.AddCell().SetString(string(o.Risk.Level))
			row.AddCell().SetInt(o.Risk.Score)
			row.AddCell().SetString(ringString(o.Boundary))
		}
	}

	return eris.Wrap(f.Write(w), "report: write workbook")
}
