// Package report renders grid and validation results for downstream
// consumers: JSON for dashboards, CSV for spreadsheets, XLSX for the
// site-selection workbooks the analysts actually open.
package report

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer formats large monetary figures with thousands separators for the
// human-facing sheets.
var printer = message.NewPrinter(language.English)

func money(v float64) string {
	return printer.Sprintf("$%.0f", v)
}

func percent(v float64) string {
	return printer.Sprintf("%.1f%%", v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "report: encode json")
	}
	return nil
}
