package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stationscout/siteval-cli/internal/scoring"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score candidate sites from feature files",
	Long: `Score one or more candidate ground station sites.

Reads a JSON file holding either a single feature object or an array of
them, runs each through the weighted scoring model, and prints the scores
with confidence, category breakdowns, and generated insights.

Examples:
  # Score a single site
  siteval score --input site.json

  # Score a batch with custom weights
  siteval score --input sites.json --weights weights.yaml

  # Machine-readable output
  siteval score --input sites.json --format json --output scores.json`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("input", "", "JSON file with site features (object or array)")
	f.String("weights", "", "YAML scoring weights (default: built-in)")
	f.String("format", "table", "output format: table or json")
	f.String("output", "", "output file path (default: stdout)")
	_ = scoreCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	weightsPath, _ := cmd.Flags().GetString("weights")
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	if format != "table" && format != "json" {
		return eris.Errorf("score: --format must be table or json (got %q)", format)
	}

	scorer, err := buildScorer(cfg.Scoring, weightsPath)
	if err != nil {
		return err
	}

	features, err := loadFeatureFile(inputPath)
	if err != nil {
		return err
	}

	zap.L().Info("scoring sites", zap.Int("count", len(features)))

	scores := make([]scoring.StationScore, len(features))
	for i, f := range features {
		scores[i] = scorer.Score(f)
	}

	w := os.Stdout
	if outputPath != "" {
		w, err = os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "score: create output file %s", outputPath)
		}
		defer w.Close() //nolint:errcheck
	}

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(scores), "score: encode output")
	}

	for i, s := range scores {
		printScore(w, i, s)
	}
	return nil
}

// loadFeatureFile reads a single feature object or an array of them.
func loadFeatureFile(path string) ([]scoring.SiteFeatures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "score: read %s", path)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var features []scoring.SiteFeatures
		if err := json.Unmarshal(data, &features); err != nil {
			return nil, eris.Wrapf(err, "score: parse %s", path)
		}
		return features, nil
	}

	var single scoring.SiteFeatures
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, eris.Wrapf(err, "score: parse %s", path)
	}
	return []scoring.SiteFeatures{single}, nil
}

func printScore(w *os.File, idx int, s scoring.StationScore) {
	fmt.Fprintf(w, "Site #%d\n", idx+1)
	fmt.Fprintf(w, "  Score:      %.3f\n", s.OverallScore)
	fmt.Fprintf(w, "  Confidence: %.0f%%\n", s.Confidence*100)
	fmt.Fprintln(w, "  Categories:")
	for _, cat := range scoring.Categories {
		fmt.Fprintf(w, "    %-25s %.3f\n", string(cat), s.CategoryScores[cat])
	}
	printInsightList(w, "Recommendations", s.Recommendations)
	printInsightList(w, "Risks", s.Risks)
	printInsightList(w, "Opportunities", s.Opportunities)
	fmt.Fprintln(w)
}

func printInsightList(w *os.File, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s:\n", label)
	for _, item := range items {
		fmt.Fprintf(w, "    - %s\n", item)
	}
}
