package report

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/stationscout/siteval-cli/internal/validation"
)

// WriteValidationJSON renders a validation summary as indented JSON.
func WriteValidationJSON(w io.Writer, s *validation.Summary) error {
	return writeJSON(w, s)
}

// WriteValidationCSV renders the per-site records as CSV.
func WriteValidationCSV(w io.Writer, s *validation.Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"site_id", "predicted", "actual", "abs_error", "pct_error", "confidence"}); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, r := range s.Records {
		row := []string{
			r.SiteID,
			strconv.FormatFloat(r.Predicted, 'f', 2, 64),
			strconv.FormatFloat(r.Actual, 'f', 2, 64),
			strconv.FormatFloat(r.AbsError, 'f', 2, 64),
			strconv.FormatFloat(r.PctError, 'f', 2, 64),
			strconv.FormatFloat(r.Confidence, 'f', 3, 64),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush csv")
}

// WriteValidationXLSX renders a workbook: overview, per-site records, and
// stratified metric sheets.
func WriteValidationXLSX(w io.Writer, s *validation.Summary) error {
	f := xlsx.NewFile()

	overview, err := f.AddSheet("Overview")
	if err != nil {
		return eris.Wrap(err, "report: add overview sheet")
	}
	addKV := func(key, val string) {
		row := overview.AddRow()
		row.AddCell().SetString(key)
		row.AddCell().SetString(val)
	}
	addKV("Target metric", string(s.Target))
	addKV("Total sites", strconv.Itoa(s.TotalSites))
	addKV("Test sites", strconv.Itoa(s.TestCount))
	addKV("RMSE", printer.Sprintf("%.2f", s.Model.RMSE))
	addKV("MAE", printer.Sprintf("%.2f", s.Model.MAE))
	addKV("MAPE", percent(s.Model.MAPE))
	addKV("R²", strconv.FormatFloat(s.Model.R2, 'f', 4, 64))
	addKV("Pearson", strconv.FormatFloat(s.Model.Pearson, 'f', 4, 64))
	addKV("Mean accuracy", percent(s.MeanAccuracy))
	addKV("Baseline RMSE", printer.Sprintf("%.2f", s.Baseline.RMSE))
	addKV("Improvement over baseline", percent(s.ImprovementPct))
	for _, rec := range s.Recommendations {
		addKV("Recommendation", rec)
	}

	records, err := f.AddSheet("Records")
	if err != nil {
		return eris.Wrap(err, "report: add records sheet")
	}
	header := records.AddRow()
	for _, h := range []string{"Site", "Predicted", "Actual", "Abs Error", "Pct Error", "Confidence"} {
		header.AddCell().SetString(h)
	}
	for _, r := range s.Records {
		row := records.AddRow()
		row.AddCell().SetString(r.SiteID)
		row.AddCell().SetFloat(r.Predicted)
		row.AddCell().SetFloat(r.Actual)
		row.AddCell().SetFloat(r.AbsError)
		row.AddCell().SetFloat(r.PctError)
		row.AddCell().SetFloat(r.Confidence)
	}

	if err := addStrataSheet(f, "By Region", s.ByRegion); err != nil {
		return err
	}
	if err := addStrataSheet(f, "By Category", s.ByCategory); err != nil {
		return err
	}
	if err := addStrataSheet(f, "By Confidence", s.ByConfidence); err != nil {
		return err
	}

	return eris.Wrap(f.Write(w), "report: write workbook")
}

func addStrataSheet(f *xlsx.File, name string, strata map[string]validation.Metrics) error {
	if len(strata) == 0 {
		return nil
	}
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "report: add sheet %s", name)
	}
	header := sheet.AddRow()
	for _, h := range []string{"Stratum", "N", "RMSE", "MAE", "MAPE", "R²", "Pearson"} {
		header.AddCell().SetString(h)
	}

	keys := make([]string, 0, len(strata))
	for k := range strata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		m := strata[k]
		row := sheet.AddRow()
		row.AddCell().SetString(k)
		row.AddCell().SetInt(m.N)
		row.AddCell().SetFloat(m.RMSE)
		row.AddCell().SetFloat(m.MAE)
		row.AddCell().SetFloat(m.MAPE)
		row.AddCell().SetFloat(m.R2)
		row.AddCell().SetFloat(m.Pearson)
	}
	return nil
}
