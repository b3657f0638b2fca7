package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stationscout/siteval-cli/internal/validation"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Check stored validation runs for accuracy drift",
	Long: `Replay persisted validation summaries through the drift monitor and
report alerts: mean-accuracy drops between consecutive runs and runs where
too few sites reach the 70% accuracy tier.`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().Int("limit", 20, "number of recent validation runs to inspect")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limit, _ := cmd.Flags().GetInt("limit")

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	runs, err := st.ListValidationRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No validation runs recorded. Run 'siteval validate --save' first.")
		return nil
	}

	monitor := validation.NewMonitor()
	for _, run := range runs {
		monitor.Record(run.Summary)
	}

	zap.L().Info("monitoring validation history", zap.Int("runs", len(runs)))

	alerts := monitor.Alerts()
	if len(alerts) == 0 {
		fmt.Printf("No drift detected across %d run(s).\n", len(runs))
		return nil
	}
	for _, a := range alerts {
		fmt.Printf("[%s] %s\n", a.Severity, a.Message)
	}
	return nil
}
