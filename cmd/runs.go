package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stationscout/siteval-cli/internal/hexgrid"
	"github.com/stationscout/siteval-cli/internal/report"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List persisted grid and validation runs",
	RunE:  runRuns,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the cells of a stored grid run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum runs to list")
	runsShowCmd.Flags().Int("top", 10, "number of top cells to print")
	runsShowCmd.Flags().Bool("json", false, "print the full grid as JSON")
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limit, _ := cmd.Flags().GetInt("limit")

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	gridRuns, err := st.ListGridRuns(ctx, limit)
	if err != nil {
		return err
	}
	validationRuns, err := st.ListValidationRuns(ctx, limit)
	if err != nil {
		return err
	}

	if len(gridRuns) == 0 && len(validationRuns) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	if len(gridRuns) > 0 {
		fmt.Printf("%-36s %-9s %6s %-20s\n", "Grid Run", "Status", "Cells", "Created")
		fmt.Println(strings.Repeat("-", 76))
		for _, r := range gridRuns {
			fmt.Printf("%-36s %-9s %6d %-20s\n",
				r.ID, r.Status, r.CellCount, r.CreatedAt.Format("2006-01-02 15:04:05"))
		}
	}
	if len(validationRuns) > 0 {
		fmt.Printf("\n%-36s %-8s %8s %8s %-20s\n", "Validation Run", "Target", "RMSE", "R²", "Created")
		fmt.Println(strings.Repeat("-", 86))
		for _, r := range validationRuns {
			fmt.Printf("%-36s %-8s %8.1f %8.3f %-20s\n",
				r.ID, r.Target, r.Summary.Model.RMSE, r.Summary.Model.R2,
				r.CreatedAt.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	topN, _ := cmd.Flags().GetInt("top")
	asJSON, _ := cmd.Flags().GetBool("json")

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	run, err := st.GetGridRun(ctx, args[0])
	if err != nil {
		return err
	}
	grid, err := st.GridCells(ctx, run.ID)
	if err != nil {
		return err
	}

	if asJSON {
		return report.WriteGridJSON(cmd.OutOrStdout(), grid)
	}

	fmt.Printf("Run %s (%s, %d cells)\n\n", run.ID, run.Status, run.CellCount)
	for _, o := range hexgrid.TopOpportunities(grid, topN) {
		fmt.Printf("  %-12s score=%3d risk=%-9s %s\n",
			o.CellID, o.OverallScore, string(o.Risk.Level), o.Country)
	}
	return nil
}
