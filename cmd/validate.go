package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stationscout/siteval-cli/internal/report"
	"github.com/stationscout/siteval-cli/internal/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Backtest the scoring model against recorded outcomes",
	Long: `Validate scoring model predictions against a labeled site dataset.

Shuffles the dataset with a fixed seed, holds out a test fraction, and
reports RMSE, MAE, MAPE, R², Pearson correlation, accuracy tiers, a linear
baseline comparison, a feature audit, and stratified bundles per region,
category, and confidence bucket. Optionally runs k-fold cross-validation.

Examples:
  # Validate revenue predictions
  siteval validate --sites labeled.json --target revenue

  # Include 5-fold cross-validation and persist the summary
  siteval validate --sites labeled.json --target revenue --k 5 --save

  # Export a workbook for the review meeting
  siteval validate --sites labeled.json --format xlsx --output validation.xlsx`,
	RunE: runValidate,
}

func init() {
	f := validateCmd.Flags()
	f.String("sites", "", "JSON file of labeled sites")
	f.String("target", "revenue", "target metric: revenue, profit, or margin")
	f.Int("k", 0, "k-fold cross-validation folds (0 = skip)")
	f.String("weights", "", "YAML scoring weights (default: built-in)")
	f.String("format", "table", "output format: table, json, csv, or xlsx")
	f.String("output", "", "output file path (default: stdout; required for xlsx)")
	f.Bool("save", false, "persist the summary to the local store")
	_ = validateCmd.MarkFlagRequired("sites")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("validate"); err != nil {
		return err
	}

	sitesPath, _ := cmd.Flags().GetString("sites")
	targetStr, _ := cmd.Flags().GetString("target")
	k, _ := cmd.Flags().GetInt("k")
	weightsPath, _ := cmd.Flags().GetString("weights")
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	save, _ := cmd.Flags().GetBool("save")

	target, err := parseTarget(targetStr)
	if err != nil {
		return err
	}
	switch format {
	case "table", "json", "csv", "xlsx":
	default:
		return eris.Errorf("validate: --format must be table, json, csv, or xlsx (got %q)", format)
	}
	if format == "xlsx" && outputPath == "" {
		return eris.New("validate: --output is required with --format xlsx")
	}

	sites, err := loadSites(sitesPath)
	if err != nil {
		return err
	}

	scorer, err := buildScorer(cfg.Scoring, weightsPath)
	if err != nil {
		return err
	}
	harness := validation.NewHarness(scorer, validation.DefaultBaseline(), validation.Config{
		Seed:         cfg.Validation.Seed,
		TestFraction: cfg.Validation.TestFraction,
		Scale: validation.MetricScale{
			Revenue: cfg.Validation.RevenueScale,
			Profit:  cfg.Validation.ProfitScale,
			Margin:  cfg.Validation.MarginScale,
		},
	})

	summary, err := harness.Validate(sites, target)
	if err != nil {
		return err
	}

	var crossval *validation.CrossValidationReport
	if k > 0 {
		crossval, err = harness.CrossValidate(ctx, sites, k, target)
		if err != nil {
			return err
		}
	}

	if save {
		if err := persistValidationRun(ctx, summary); err != nil {
			return err
		}
	}

	return outputValidation(summary, crossval, format, outputPath)
}

func parseTarget(s string) (validation.TargetMetric, error) {
	switch validation.TargetMetric(s) {
	case validation.TargetRevenue, validation.TargetProfit, validation.TargetMargin:
		return validation.TargetMetric(s), nil
	default:
		return "", eris.Errorf("validate: --target must be revenue, profit, or margin (got %q)", s)
	}
}

func loadSites(path string) ([]validation.LabeledSite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "validate: read %s", path)
	}
	var sites []validation.LabeledSite
	if err := json.Unmarshal(data, &sites); err != nil {
		return nil, eris.Wrapf(err, "validate: parse %s", path)
	}
	zap.L().Info("loaded labeled sites", zap.Int("count", len(sites)))
	return sites, nil
}

func persistValidationRun(ctx context.Context, summary *validation.Summary) error {
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	run, err := st.SaveValidationRun(ctx, summary)
	if err != nil {
		return err
	}
	fmt.Printf("Saved validation run %s\n", run.ID)
	return nil
}

func outputValidation(summary *validation.Summary, crossval *validation.CrossValidationReport, format, outputPath string) error {
	w := os.Stdout
	if outputPath != "" {
		var err error
		w, err = os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "validate: create output file %s", outputPath)
		}
		defer w.Close() //nolint:errcheck
	}

	switch format {
	case "json":
		out := struct {
			Summary         *validation.Summary               `json:"summary"`
			CrossValidation *validation.CrossValidationReport `json:"cross_validation,omitempty"`
		}{summary, crossval}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(out), "validate: encode output")
	case "csv":
		return report.WriteValidationCSV(w, summary)
	case "xlsx":
		return report.WriteValidationXLSX(w, summary)
	default:
		printValidationTable(w, summary, crossval)
		return nil
	}
}

func printValidationTable(w *os.File, s *validation.Summary, cv *validation.CrossValidationReport) {
	fmt.Fprintf(w, "Validation (%s)\n", s.Target)
	fmt.Fprintf(w, "  Sites:         %d total, %d held out\n", s.TotalSites, s.TestCount)
	fmt.Fprintf(w, "  RMSE:          %.2f\n", s.Model.RMSE)
	fmt.Fprintf(w, "  MAE:           %.2f\n", s.Model.MAE)
	fmt.Fprintf(w, "  MAPE:          %.1f%%\n", s.Model.MAPE)
	fmt.Fprintf(w, "  R²:            %.4f\n", s.Model.R2)
	fmt.Fprintf(w, "  Pearson:       %.4f\n", s.Model.Pearson)
	fmt.Fprintf(w, "  Mean accuracy: %.1f%% (95%% CI %.1f-%.1f)\n",
		s.MeanAccuracy, s.AccuracyCI95[0], s.AccuracyCI95[1])
	fmt.Fprintf(w, "  Accuracy tiers: ≥70%%: %.0f%%  ≥80%%: %.0f%%  ≥90%%: %.0f%%\n",
		s.TierPct70, s.TierPct80, s.TierPct90)
	fmt.Fprintf(w, "  Baseline RMSE: %.2f (improvement %.1f%%)\n", s.Baseline.RMSE, s.ImprovementPct)

	if len(s.ByRegion) > 0 {
		fmt.Fprintln(w, "  By region:")
		for region, m := range s.ByRegion {
			fmt.Fprintf(w, "    %-15s n=%-3d RMSE=%.2f R²=%.3f\n", region, m.N, m.RMSE, m.R2)
		}
	}

	if cv != nil {
		fmt.Fprintf(w, "\nCross-validation (k=%d)\n", cv.K)
		fmt.Fprintf(w, "  RMSE: mean=%.2f sd=%.2f min=%.2f max=%.2f\n",
			cv.Mean.RMSE, cv.StdDev.RMSE, cv.Min.RMSE, cv.Max.RMSE)
		fmt.Fprintf(w, "  Consistency: %.1f\n", cv.Consistency)
	}

	if len(s.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRecommendations:")
		for _, rec := range s.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
	}
}
