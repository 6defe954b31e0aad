package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"procsync/internal/config"
	"procsync/internal/etl"
	"procsync/internal/ui"
	"procsync/pkg/errors"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create the analytics schema and materialize the calendar",
	Long: `Create the star-schema tables in the analytics database and
pre-populate the time dimension over the configured date range.
Safe to re-run; existing tables and calendar rows are left alone.`,
	RunE: runBootstrap,
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	start, err := time.Parse("2006-01-02", cfg.TimeDim.StartDate)
	if err != nil {
		return errors.ConfigError("Invalid calendar range start", "time_dimension.start_date")
	}
	end, err := time.Parse("2006-01-02", cfg.TimeDim.EndDate)
	if err != nil {
		return errors.ConfigError("Invalid calendar range end", "time_dimension.end_date")
	}
	if end.Before(start) {
		return errors.ConfigError("Calendar range ends before it starts", "time_dimension")
	}

	wh := newWarehouseService(cfg)
	defer wh.Close()

	ctx := context.Background()
	if err := wh.Connect(ctx); err != nil {
		ui.ShowError(err)
		return err
	}

	ui.ShowHeader("ProcSync bootstrap")

	if err := wh.EnsureSchema(ctx); err != nil {
		ui.ShowError(err)
		return err
	}
	ui.ShowSuccess("Analytics schema in place")

	spinner := ui.NewSpinner("Materializing calendar")
	spinner.Start()
	inserted, err := wh.InsertTimeRows(ctx, etl.BuildCalendar(start, end))
	if err != nil {
		spinner.Stop(false, "Calendar load failed")
		ui.ShowError(err)
		return err
	}
	spinner.Stop(true, fmt.Sprintf("Time dimension covers %s to %s (%d new dates)",
		cfg.TimeDim.StartDate, cfg.TimeDim.EndDate, inserted))

	return nil
}
