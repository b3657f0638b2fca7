package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stationscout/siteval-cli/internal/geo"
	"github.com/stationscout/siteval-cli/internal/hexgrid"
	"github.com/stationscout/siteval-cli/internal/report"
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Generate a ranked hexagonal opportunity grid",
	Long: `Generate a land-filtered hexagonal candidate grid over a region.

Sample points across the bounding box are mapped to hexagonal cells,
filtered by land coverage (and optionally coastline proximity), then scored
on market, competition, weather, satellite coverage, terrain, and
accessibility, with projected economics and a risk assessment per cell.

Examples:
  # Grid Japan at two resolutions
  siteval grid --bounds 30,129,46,146 --resolutions 3,4

  # Coastal candidates only, exported to a workbook
  siteval grid --bounds 30,129,46,146 --resolutions 4 --coastal-only \
    --format xlsx --output japan.xlsx

  # Persist the run for later inspection
  siteval grid --bounds 30,129,46,146 --resolutions 3 --save`,
	RunE: runGrid,
}

func init() {
	f := gridCmd.Flags()
	f.String("bounds", "", "region as minLat,minLon,maxLat,maxLon")
	f.String("resolutions", "3", "comma-separated grid resolutions (0-6)")
	f.Float64("min-land-coverage", 0, "minimum land coverage percent (overrides config)")
	f.Int("max-cells", 0, "maximum cells per resolution (overrides config)")
	f.Bool("coastal-only", false, "keep only cells whose center is coastal")
	f.String("competitors", "", "JSON file of existing stations (overrides registry database)")
	f.Int("top", 10, "number of top opportunities to print")
	f.String("format", "table", "output format: table, json, csv, or xlsx")
	f.String("output", "", "output file path (default: stdout; required for xlsx)")
	f.Bool("save", false, "persist the run to the local store")
	_ = gridCmd.MarkFlagRequired("bounds")

	rootCmd.AddCommand(gridCmd)
}

func runGrid(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("grid"); err != nil {
		return err
	}

	opts, err := gridOptions(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	topN, _ := cmd.Flags().GetInt("top")
	save, _ := cmd.Flags().GetBool("save")
	competitorsPath, _ := cmd.Flags().GetString("competitors")

	switch format {
	case "table", "json", "csv", "xlsx":
	default:
		return eris.Errorf("grid: --format must be table, json, csv, or xlsx (got %q)", format)
	}
	if format == "xlsx" && outputPath == "" {
		return eris.New("grid: --output is required with --format xlsx")
	}

	gen, closeReg, err := buildGenerator(ctx, competitorsPath)
	if err != nil {
		return err
	}
	defer closeReg()

	log := zap.L().With(zap.String("command", "grid"))
	log.Info("starting grid generation",
		zap.Ints("resolutions", opts.Resolutions),
		zap.Float64("min_land_coverage", opts.MinLandCoverage),
		zap.Bool("coastal_only", opts.CoastalOnly),
	)

	grid, err := gen.Generate(ctx, opts)
	if err != nil {
		return eris.Wrap(err, "grid: generate")
	}

	if save {
		if err := persistGridRun(ctx, opts, grid); err != nil {
			return err
		}
	}

	return outputGrid(grid, format, outputPath, topN)
}

func gridOptions(cmd *cobra.Command) (hexgrid.Options, error) {
	boundsStr, _ := cmd.Flags().GetString("bounds")
	resStr, _ := cmd.Flags().GetString("resolutions")
	coastalOnly, _ := cmd.Flags().GetBool("coastal-only")

	bounds, err := parseBounds(boundsStr)
	if err != nil {
		return hexgrid.Options{}, err
	}
	resolutions, err := parseResolutions(resStr)
	if err != nil {
		return hexgrid.Options{}, err
	}

	opts := hexgrid.Options{
		Resolutions:           resolutions,
		Bounds:                bounds,
		MinLandCoverage:       cfg.Grid.MinLandCoverage,
		MaxCellsPerResolution: cfg.Grid.MaxCellsPerResolution,
		CoastalOnly:           coastalOnly,
		CoverageSampleDensity: cfg.Grid.CoverageSampleDensity,
	}
	if cfg.Grid.BudgetSecs > 0 {
		opts.Budget = time.Duration(cfg.Grid.BudgetSecs) * time.Second
	}
	if v, _ := cmd.Flags().GetFloat64("min-land-coverage"); v > 0 {
		opts.MinLandCoverage = v
	}
	if v, _ := cmd.Flags().GetInt("max-cells"); v > 0 {
		opts.MaxCellsPerResolution = v
	}
	return opts, nil
}

func parseBounds(s string) (geo.Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geo.Bounds{}, eris.Errorf("grid: --bounds needs minLat,minLon,maxLat,maxLon (got %q)", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geo.Bounds{}, eris.Wrapf(err, "grid: parse bounds component %q", p)
		}
		vals[i] = v
	}
	return geo.Bounds{MinLat: vals[0], MinLon: vals[1], MaxLat: vals[2], MaxLon: vals[3]}, nil
}

func parseResolutions(s string) ([]int, error) {
	var out []int
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, eris.Wrapf(err, "grid: parse resolution %q", p)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, eris.New("grid: at least one resolution required")
	}
	return out, nil
}

func persistGridRun(ctx context.Context, opts hexgrid.Options, grid map[int][]hexgrid.Opportunity) error {
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	run, err := st.CreateGridRun(ctx, opts)
	if err != nil {
		return err
	}
	if err := st.CompleteGridRun(ctx, run.ID, grid); err != nil {
		return err
	}
	fmt.Printf("Saved grid run %s\n", run.ID)
	return nil
}

func outputGrid(grid map[int][]hexgrid.Opportunity, format, outputPath string, topN int) error {
	w := os.Stdout
	if outputPath != "" {
		var err error
		w, err = os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "grid: create output file %s", outputPath)
		}
		defer w.Close() //nolint:errcheck
	}

	switch format {
	case "json":
		return report.WriteGridJSON(w, grid)
	case "csv":
		return report.WriteGridCSV(w, hexgrid.TopOpportunities(grid, 0))
	case "xlsx":
		return report.WriteGridXLSX(w, grid)
	default:
		printGridTable(w, grid, topN)
		return nil
	}
}

func printGridTable(w *os.File, grid map[int][]hexgrid.Opportunity, topN int) {
	top := hexgrid.TopOpportunities(grid, topN)
	if len(top) == 0 {
		fmt.Fprintln(w, "No opportunities found.")
		return
	}

	fmt.Fprintf(w, "%-4s %-12s %-20s %-14s %5s %-9s %12s %7s\n",
		"#", "Cell", "Country", "Population", "Score", "Risk", "Investment", "ROI")
	fmt.Fprintln(w, strings.Repeat("-", 92))
	for i, o := range top {
		country := o.Country
		if len(country) > 20 {
			country = country[:17] + "..."
		}
		fmt.Fprintf(w, "%-4d %-12s %-20s %-14s %5d %-9s %12s %6.0f%%\n",
			i+1, o.CellID, country, o.PopulationCategory, o.OverallScore,
			string(o.Risk.Level), formatMoney(o.Economics.InvestmentUSD),
			o.Economics.ROIPercent)
	}

	total := 0
	for _, cells := range grid {
		total += len(cells)
	}
	fmt.Fprintf(w, "\n%d candidate cells across %d resolution(s)\n", total, len(grid))
}

func formatMoney(amount float64) string {
	s := strconv.FormatFloat(amount, 'f', 0, 64)
	var result []byte
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return "$" + string(result)
}
