package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"procsync/internal/config"
	"procsync/internal/etl"
	"procsync/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run [daily|weekly|monthly]",
	Short: "Execute one synchronization run",
	Long: `Execute one full ETL run against the configured databases.

Daily runs sync a trailing window of transactions. Weekly and monthly
runs re-scan the full history; monthly runs additionally prune old
run-history records.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	modeArg := "daily"
	if len(args) > 0 {
		modeArg = args[0]
	}
	mode, err := etl.ParseMode(modeArg)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	src := newSourceReader(cfg)
	wh := newWarehouseService(cfg)
	defer src.Close()
	defer wh.Close()

	ui.ShowHeader("ProcSync " + string(mode) + " run")

	start := time.Now()
	runner := etl.NewRunner(cfg, src, wh)
	result, err := runner.Execute(context.Background(), mode)
	if err != nil {
		ui.ShowError(err)
		if result != nil {
			ui.RenderRunSummary(result)
		}
		os.Exit(1)
	}

	ui.RenderRunSummary(result)
	if result.Report != nil {
		fmt.Println()
		ui.RenderReconciliationReport(result.Report)
	}
	ui.ShowSuccess(fmt.Sprintf("Run finished in %s", ui.FormatDuration(time.Since(start))))

	if result.Report != nil && result.Report.Status != etl.ReconciliationPass {
		os.Exit(2)
	}
	return nil
}
