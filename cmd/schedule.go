package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"procsync/internal/config"
	"procsync/internal/etl"
	"procsync/internal/schedule"
	"procsync/internal/ui"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the sync cadences on their cron schedules",
	Long: `Start a long-running process that executes daily, weekly and
monthly runs on the cron expressions from the configuration file.
Stops cleanly on SIGINT or SIGTERM, waiting for an in-flight run.`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	runOnce := func(ctx context.Context, mode etl.Mode) error {
		src := newSourceReader(cfg)
		wh := newWarehouseService(cfg)
		defer src.Close()
		defer wh.Close()

		runner := etl.NewRunner(cfg, src, wh)
		result, err := runner.Execute(ctx, mode)
		if err != nil {
			ui.ShowError(err)
			return err
		}
		ui.ShowInfo(fmt.Sprintf("%s run %s: %d facts loaded, %d skipped, reconciliation %s",
			mode, result.Record.RunID, result.Record.FactsLoaded,
			result.Record.RowsSkipped, result.Record.ReconciliationStatus))
		return nil
	}

	scheduler, err := schedule.New(cfg.Schedule, runOnce)
	if err != nil {
		ui.ShowError(err)
		return err
	}

	scheduler.Start()
	ui.ShowHeader("ProcSync scheduler")
	for _, entry := range scheduler.Entries() {
		ui.PrintKeyValue("Next run", entry.Next.Format(time.DateTime))
	}
	ui.ShowInfo("Scheduler running; press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ui.ShowInfo("Stopping scheduler, waiting for in-flight run")
	scheduler.Stop()
	ui.ShowSuccess("Scheduler stopped")
	return nil
}
