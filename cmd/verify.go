package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"procsync/internal/config"
	"procsync/internal/etl"
	"procsync/internal/ui"
	"procsync/internal/warehouse"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the health of the operational/analytics separation",
	Long: `Verify that both databases are reachable, the star schema is
complete, and the analytics figures still reconcile with the
operational system. Exits non-zero when issues are found.`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	src := newSourceReader(cfg)
	wh := newWarehouseService(cfg)
	defer src.Close()
	defer wh.Close()

	ctx := context.Background()
	ui.ShowHeader("ProcSync health check")

	var issues []string

	if err := src.Connect(ctx); err != nil {
		issues = append(issues, "operational database unreachable: "+err.Error())
	}
	if err := wh.Connect(ctx); err != nil {
		issues = append(issues, "analytics database unreachable: "+err.Error())
	}
	if len(issues) > 0 {
		reportVerdict(issues)
		os.Exit(1)
	}

	for _, table := range warehouse.RequiredTables() {
		ok, err := wh.TableExists(ctx, table)
		if err != nil {
			issues = append(issues, fmt.Sprintf("cannot inspect %s: %v", table, err))
			continue
		}
		if !ok {
			issues = append(issues, fmt.Sprintf("missing table %s", table))
			continue
		}
		count, err := wh.TableCount(ctx, table)
		if err != nil {
			issues = append(issues, fmt.Sprintf("cannot count %s: %v", table, err))
			continue
		}
		ui.PrintKeyValue(table, fmt.Sprintf("%d rows", count))
	}

	validator := etl.NewValidator(src, wh, cfg.ETL.Tolerance)
	report, err := validator.Run(ctx)
	if err != nil {
		issues = append(issues, "reconciliation could not run: "+err.Error())
	} else {
		fmt.Println()
		ui.RenderReconciliationReport(report)
		for _, c := range report.Failed() {
			issues = append(issues, fmt.Sprintf("reconciliation check %q out of tolerance", c.Name))
		}
	}

	reportVerdict(issues)
	if len(issues) > 0 {
		os.Exit(1)
	}
	return nil
}

func reportVerdict(issues []string) {
	fmt.Println()
	if len(issues) == 0 {
		ui.ShowSuccess("HEALTHY: separation intact, figures reconcile")
		return
	}
	ui.ShowWarning(fmt.Sprintf("ISSUES: %d problem(s) found", len(issues)))
	for _, issue := range issues {
		fmt.Printf("  - %s\n", issue)
	}
}
