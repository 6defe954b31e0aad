package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"procsync/internal/config"
	"procsync/internal/ui"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent synchronization runs",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 10, "number of runs to show")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	wh := newWarehouseService(cfg)
	defer wh.Close()

	ctx := context.Background()
	if err := wh.Connect(ctx); err != nil {
		ui.ShowError(err)
		return err
	}

	records, err := wh.RecentRuns(ctx, statusLimit)
	if err != nil {
		ui.ShowError(err)
		return err
	}

	ui.ShowHeader("Run history")
	ui.RenderRunHistory(records)
	return nil
}
